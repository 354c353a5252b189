package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

const runLog = `Nombre de fichier(s) restant(s) : 2
Télédémarche : AUTO-RUN-7
Nom du projet : TRA - P1 - Nightly - v3.2
Numéro de dossier : D9X
Date de dépôt : 12/03/2024

Remaining file(s) count: 0
Télédémarche: AUTO-RUN-8
Project name: TRA - P1 - Nightly - v3.3
Dossier number: DA1
Deposit date: 2024-03-13`

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUMMARY_CONFIG", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "")
	t.Setenv("S3_ENDPOINT", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON(t *testing.T) {
	setupEnv(t)
	path := writeLog(t, "run.log", runLog)

	out, err := execute(t, "parse", path)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "RUN-7", rows[0]["workflow_id"])
	assert.Equal(t, "RUN-8", rows[1]["workflow_id"])
	assert.Equal(t, path, rows[0]["source"])
}

func TestParseLast(t *testing.T) {
	setupEnv(t)
	path := writeLog(t, "run.log", runLog)

	out, err := execute(t, "parse", "--last", path)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "RUN-8", rows[0]["workflow_id"])
}

func TestParseXLSX(t *testing.T) {
	setupEnv(t)
	path := writeLog(t, "run.txt", runLog)
	book := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := execute(t, "parse", "--out", "xlsx", "-o", book, path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 row(s)")

	b, err := os.ReadFile(book)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(b[:2]))
}

func TestParsePartialFailure(t *testing.T) {
	setupEnv(t)
	good := writeLog(t, "good.log", runLog)
	bad := writeLog(t, "bad.log", "no summary here")

	out, err := execute(t, "parse", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 source(s) failed")

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 2)
}

func TestParseBadOut(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "parse", "--out", "csv", "x.log")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "validate", writeLog(t, "ok.log", runLog))
	require.NoError(t, err)
	assert.Contains(t, out, `"is_valid": true`)

	out, err = execute(t, "validate", writeLog(t, "empty.log", "  \n "))
	require.Error(t, err)
	assert.Contains(t, out, "File is empty")
}

func TestHistoryEmpty(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "history", "--limit", "5")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistoryByID(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "history", "--id", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a valid UUID")

	_, err = execute(t, "history", "--id", "6f1c2f6e-3c1d-4b7a-9d4e-0a2b3c4d5e6f")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestValidateReportsWarningsSeparately(t *testing.T) {
	setupEnv(t)
	path := writeLog(t, "evil.log", "ok\n<script>"+strings.Repeat("x", 200)+"</script>")

	out, err := execute(t, "validate", path)
	require.Error(t, err)

	var res struct {
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"Content was heavily modified during sanitization and may be malicious"}, res.Errors)
	assert.Contains(t, res.Warnings, "Potentially dangerous content removed: script tag")
}
