package extract

import "github.com/joseph-ayodele/summary-extractor/constants"

// Record is one summary block. It is only ever returned with all five fields set.
type Record struct {
	RemainingFileCount int    `json:"remaining_file_count"`
	WorkflowID         string `json:"workflow_id"`
	ProjectName        string `json:"project_name"`
	FolderNumber       string `json:"folder_number"`
	DepositDate        string `json:"deposit_date"`
}

// Strategy turns sanitized-or-raw content into records, or fails with a parsing error.
type Strategy func(content string) ([]Record, error)

// partial accumulates the fields found in one block window.
type partial struct {
	count  *int
	fields map[constants.Field]string
}

func newPartial() *partial {
	return &partial{fields: make(map[constants.Field]string, 4)}
}

func (p *partial) missing() []string {
	var out []string
	for _, f := range constants.AllFields() {
		if f == constants.FieldRemainingFileCount {
			if p.count == nil {
				out = append(out, string(f))
			}
			continue
		}
		if _, ok := p.fields[f]; !ok {
			out = append(out, string(f))
		}
	}
	return out
}

func (p *partial) record() Record {
	return Record{
		RemainingFileCount: *p.count,
		WorkflowID:         p.fields[constants.FieldWorkflowID],
		ProjectName:        p.fields[constants.FieldProjectName],
		FolderNumber:       p.fields[constants.FieldFolderNumber],
		DepositDate:        p.fields[constants.FieldDepositDate],
	}
}
