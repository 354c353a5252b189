// Package document shapes extracted records into the JSON documents handed to
// downstream consumers.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/extract"
)

const (
	MaxProjectNameLen = 200
	MaxDepositDateLen = 50
)

// Document is the emitted form of one Record. Field values are sanitized a
// second time on the way out.
type Document struct {
	RemainingFileCount int    `json:"remaining_file_count"`
	WorkflowID         string `json:"workflow_id"`
	ProjectName        string `json:"project_name"`
	FolderNumber       string `json:"folder_number"`
	DepositDate        string `json:"deposit_date"`
}

var (
	reNotWorkflowChar = regexp.MustCompile(`[^\w-]`)
	reNotWordChar     = regexp.MustCompile(`[^\w]`)
)

// FromRecord applies the output sanitization: workflow id reduced to [\w-],
// project name cut to 200 characters, folder number reduced to [\w], deposit
// date cut to 50 characters.
func FromRecord(r extract.Record) Document {
	return Document{
		RemainingFileCount: r.RemainingFileCount,
		WorkflowID:         reNotWorkflowChar.ReplaceAllString(r.WorkflowID, ""),
		ProjectName:        truncate(r.ProjectName, MaxProjectNameLen),
		FolderNumber:       reNotWordChar.ReplaceAllString(r.FolderNumber, ""),
		DepositDate:        truncate(r.DepositDate, MaxDepositDateLen),
	}
}

// FromRecords converts records in order.
func FromRecords(records []extract.Record) []Document {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = FromRecord(r)
	}
	return docs
}

// MarshalRecords sanitizes records and encodes them as a JSON array.
func MarshalRecords(records []extract.Record) ([]byte, error) {
	return json.Marshal(FromRecords(records))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Schema returns the JSON schema of one Document as a generic map.
func Schema() map[string]any {
	str := func(maxLen int, pattern string) map[string]any {
		p := map[string]any{"type": "string", "minLength": 1}
		if maxLen > 0 {
			p["maxLength"] = maxLen
		}
		if pattern != "" {
			p["pattern"] = pattern
		}
		return p
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			string(constants.FieldRemainingFileCount): map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": constants.MaxRemainingFileCount,
			},
			string(constants.FieldWorkflowID):   str(0, `^[\w-]+$`),
			string(constants.FieldProjectName):  str(MaxProjectNameLen, ""),
			string(constants.FieldFolderNumber): str(0, `^\w+$`),
			string(constants.FieldDepositDate):  str(MaxDepositDateLen, ""),
		},
		"required": constants.AsStringSlice(),
	}
}

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(Schema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("document.json")
})

// Validate checks doc against Schema.
func Validate(doc Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return ValidateJSON(b)
}

// ValidateJSON checks one encoded document against Schema.
func ValidateJSON(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
