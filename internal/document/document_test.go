package document

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/internal/extract"
)

var sample = extract.Record{
	RemainingFileCount: 5,
	WorkflowID:         "TEST123",
	ProjectName:        "TRA - CODE - Example Project - v1.0",
	FolderNumber:       "123ABC",
	DepositDate:        "2024-05-01",
}

func TestFromRecord_PassesCleanValues(t *testing.T) {
	doc := FromRecord(sample)
	assert.Equal(t, Document{
		RemainingFileCount: 5,
		WorkflowID:         "TEST123",
		ProjectName:        "TRA - CODE - Example Project - v1.0",
		FolderNumber:       "123ABC",
		DepositDate:        "2024-05-01",
	}, doc)
	require.NoError(t, Validate(doc))
}

func TestFromRecord_SanitizesAgain(t *testing.T) {
	r := sample
	r.WorkflowID = "AB-1.2/3"
	r.FolderNumber = "12-AB_3"
	r.ProjectName = strings.Repeat("é", 250)
	r.DepositDate = strings.Repeat("1", 60)

	doc := FromRecord(r)
	assert.Equal(t, "AB-123", doc.WorkflowID)
	assert.Equal(t, "12AB_3", doc.FolderNumber)
	assert.Equal(t, strings.Repeat("é", 200), doc.ProjectName)
	assert.Equal(t, strings.Repeat("1", 50), doc.DepositDate)
	require.NoError(t, Validate(doc))
}

func TestMarshalRecords(t *testing.T) {
	b, err := MarshalRecords([]extract.Record{sample})
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 1)
	assert.Equal(t, float64(5), out[0]["remaining_file_count"])
	assert.Equal(t, "TEST123", out[0]["workflow_id"])

	b, err = MarshalRecords(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestValidateJSON_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing field":  `{"remaining_file_count":1,"workflow_id":"A","project_name":"P","folder_number":"F"}`,
		"negative count": `{"remaining_file_count":-1,"workflow_id":"A","project_name":"P","folder_number":"F","deposit_date":"d1"}`,
		"string count":   `{"remaining_file_count":"1","workflow_id":"A","project_name":"P","folder_number":"F","deposit_date":"d1"}`,
		"extra field":    `{"remaining_file_count":1,"workflow_id":"A","project_name":"P","folder_number":"F","deposit_date":"d1","x":1}`,
		"bad folder":     `{"remaining_file_count":1,"workflow_id":"A","project_name":"P","folder_number":"F-1","deposit_date":"d1"}`,
		"not json":       `{`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateJSON([]byte(in)))
		})
	}
}
