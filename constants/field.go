package constants

// Field is the canonical identifier of a record field. These strings appear in
// missing-field errors and in the output document keys.
type Field string

const (
	FieldRemainingFileCount Field = "remaining_file_count"
	FieldWorkflowID         Field = "workflow_id"
	FieldProjectName        Field = "project_name"
	FieldFolderNumber       Field = "folder_number"
	FieldDepositDate        Field = "deposit_date"
)

var allFields = []Field{
	FieldRemainingFileCount,
	FieldWorkflowID,
	FieldProjectName,
	FieldFolderNumber,
	FieldDepositDate,
}

// AllFields returns the record fields in canonical order.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// AsStringSlice returns the canonical field identifiers as strings.
func AsStringSlice() []string {
	result := make([]string, len(allFields))
	for i, f := range allFields {
		result[i] = string(f)
	}
	return result
}

// MaxRemainingFileCount is the largest accepted remaining-file count.
const MaxRemainingFileCount = 999_999
