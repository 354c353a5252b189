package sanitizer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

const sampleLog = `Nombre de fichier(s) restant(s) : 5
Télédémarche : AUTO-TEST123
Nom du projet : TRA - CODE - Example Project - v1.0
Numéro de dossier : D123ABC
Date de dépôt : 2024-05-01`

func newSanitizer(t *testing.T, mutate func(*Config)) *Sanitizer {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestValidateAndSanitize_CleanContent(t *testing.T) {
	res, err := Default().ValidateAndSanitize(sampleLog)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, sampleLog, res.SanitizedContent)
}

func TestValidateAndSanitize_Empty(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t\n"} {
		_, err := Default().ValidateAndSanitize(content)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrValidation)
		assert.Equal(t, "File is empty", err.Error())
	}
}

func TestValidateAndSanitize_TooManyLines(t *testing.T) {
	s := newSanitizer(t, func(c *Config) { c.MaxLines = 3 })

	_, err := s.ValidateAndSanitize("a\nb\nc")
	require.NoError(t, err)

	_, err = s.ValidateAndSanitize("a\nb\nc\nd")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "File has too many lines (4). Maximum allowed: 3", err.Error())
}

func TestValidateAndSanitize_LongLinesWarnOnly(t *testing.T) {
	s := newSanitizer(t, func(c *Config) { c.MaxLineLength = 5 })
	res, err := s.ValidateAndSanitize("abcdefgh\nab\nxyzxyzxyz")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, []string{"2 line(s) exceed the maximum length of 5 characters"}, res.Warnings)
}

func TestValidateAndSanitize_NeutralizesDangerousContent(t *testing.T) {
	tests := []struct {
		name    string
		inject  string
		warning string
	}{
		{name: "script", inject: "<script>alert(1)</script>", warning: "script tag"},
		{name: "script multiline", inject: "<SCRIPT type=\"x\">\nalert(1)\n</script>", warning: "script tag"},
		{name: "iframe", inject: "<iframe src=x></iframe>", warning: "iframe tag"},
		{name: "javascript uri", inject: "javascript:alert(1)", warning: "javascript URI"},
		{name: "vbscript uri", inject: "VBScript:msgbox", warning: "vbscript URI"},
		{name: "data uri", inject: "data:text/html;base64,AAAA", warning: "HTML data URI"},
		{name: "event handler", inject: "<img onerror=alert(1)>", warning: "event handler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := sampleLog + "\n" + tt.inject
			res, err := Default().ValidateAndSanitize(content)
			require.NoError(t, err)
			assert.Contains(t, res.Warnings, "Potentially dangerous content removed: "+tt.warning)
			assert.Contains(t, res.SanitizedContent, DefaultPlaceholder)
			assert.True(t, strings.HasPrefix(res.SanitizedContent, sampleLog))
		})
	}
}

func TestValidateAndSanitize_StripsControlCharacters(t *testing.T) {
	res, err := Default().ValidateAndSanitize(sampleLog + "\nend\x00\x07 of\x1b run\r\n\tdone")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.SanitizedContent, "\nend of run\r\n\tdone"))
	assert.Empty(t, res.Warnings)
}

func TestValidateAndSanitize_HeavyModificationRejected(t *testing.T) {
	content := "ok\n<script>" + strings.Repeat("x", 200) + "</script>"
	_, err := Default().ValidateAndSanitize(content)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "Content was heavily modified during sanitization and may be malicious", err.Error())

	var ae *common.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"Content was heavily modified during sanitization and may be malicious"}, ae.Details)
	assert.Contains(t, ae.Warnings, "Potentially dangerous content removed: script tag")
	assert.NotContains(t, ae.Details, "Potentially dangerous content removed: script tag")
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "a\tb\r\nc", StripControlChars("a\x00\tb\x1b\r\n\x7fc"))
}

func TestValidateAndSanitize_RetainedRatioBoundary(t *testing.T) {
	// Ten control characters out of fifty runes is exactly 20% removed.
	content := strings.Repeat("a", 40) + strings.Repeat("\x01", 10)
	_, err := Default().ValidateAndSanitize(content)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	content = strings.Repeat("a", 41) + strings.Repeat("\x01", 9)
	res, err := Default().ValidateAndSanitize(content)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 41), res.SanitizedContent)
}

func TestValidateAndSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		sampleLog,
		sampleLog + "\n<script>alert(1)</script>\x00",
		sampleLog + "\n<scr<script>x</script>ipt>alert(1)</script>",
		sampleLog + "\nonclick = go()\njavascript:void(0)",
	}
	for _, in := range inputs {
		first, err := Default().ValidateAndSanitize(in)
		require.NoError(t, err)
		second, err := Default().ValidateAndSanitize(first.SanitizedContent)
		require.NoError(t, err)
		assert.Equal(t, first.SanitizedContent, second.SanitizedContent)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DangerousPatterns = append(cfg.DangerousPatterns, DangerousPattern{Name: "broken", Pattern: "("})
	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, common.KindConfig, common.KindOf(err))

	cfg = DefaultConfig()
	cfg.MinRetainedRatio = 1.5
	_, err = New(cfg)
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sanitizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_lines: 42\nplaceholder: \"<cut>\"\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.MaxLines)
	assert.Equal(t, "<cut>", cfg.Placeholder)
	assert.Equal(t, DefaultConfig().MaxLineLength, cfg.MaxLineLength)
	assert.Len(t, cfg.DangerousPatterns, len(DefaultPatterns))

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
