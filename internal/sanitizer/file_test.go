package sanitizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/ratelimit"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		fd       FileDescriptor
		wantErr  string
		wantWarn string
	}{
		{name: "plain text", fd: FileDescriptor{Name: "run.txt", Size: 100, MIMEType: "text/plain"}},
		{name: "log with charset", fd: FileDescriptor{Name: "RUN.LOG", Size: 100, MIMEType: "text/plain; charset=utf-8"}},
		{name: "no mime", fd: FileDescriptor{Name: "run.log", Size: 1}},
		{name: "unexpected mime", fd: FileDescriptor{Name: "run.txt", Size: 1, MIMEType: "application/pdf"}, wantWarn: `Unexpected MIME type "application/pdf"`},
		{name: "too large", fd: FileDescriptor{Name: "run.txt", Size: 11 << 20}, wantErr: "exceeds maximum allowed size"},
		{name: "negative size", fd: FileDescriptor{Name: "run.txt", Size: -1}, wantErr: "File size is invalid"},
		{name: "extension", fd: FileDescriptor{Name: "run.exe", Size: 1}, wantErr: `File type ".exe" is not allowed. Allowed types: .log, .txt`},
		{name: "no extension", fd: FileDescriptor{Name: "run", Size: 1}, wantErr: "is not allowed"},
		{name: "traversal", fd: FileDescriptor{Name: "../run.txt", Size: 1}, wantErr: "path traversal"},
		{name: "backslash", fd: FileDescriptor{Name: `dir\run.txt`, Size: 1}, wantErr: "path traversal"},
		{name: "invalid chars", fd: FileDescriptor{Name: "run<1>.txt", Size: 1}, wantErr: "invalid characters"},
		{name: "reserved", fd: FileDescriptor{Name: "con.txt", Size: 1}, wantErr: "reserved system name"},
		{name: "reserved bare", fd: FileDescriptor{Name: "LPT1", Size: 1}, wantErr: "reserved system name"},
		{name: "hidden", fd: FileDescriptor{Name: ".run.txt", Size: 1}, wantErr: "Hidden files are not allowed"},
		{name: "empty name", fd: FileDescriptor{Name: " ", Size: 1}, wantErr: "File name is required"},
	}
	s := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ValidateFile(tt.fd)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.IsValid)
			if tt.wantWarn != "" {
				assert.Contains(t, res.Warnings, tt.wantWarn)
			} else {
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

func TestValidateFileList(t *testing.T) {
	s := Default()

	_, err := s.ValidateFileList(nil)
	require.Error(t, err)
	assert.Equal(t, "No files provided", err.Error())

	res, err := s.ValidateFileList([]FileDescriptor{
		{Name: "a.txt", Size: 10},
		{Name: "b.log", Size: 10, MIMEType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`b.log: Unexpected MIME type "image/png"`}, res.Warnings)

	var many []FileDescriptor
	for i := 0; i < 11; i++ {
		many = append(many, FileDescriptor{Name: fmt.Sprintf("f%d.txt", i), Size: 1})
	}
	_, err = s.ValidateFileList(many)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many files (11). Maximum allowed: 10")

	_, err = s.ValidateFileList([]FileDescriptor{
		{Name: "a.txt", Size: 9 << 20},
		{Name: "b.txt", Size: 9 << 20},
		{Name: "c.txt", Size: 9 << 20},
		{Name: "d.txt", Size: 9 << 20},
		{Name: "e.txt", Size: 9 << 20},
		{Name: "f.txt", Size: 9 << 20},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Total size (54 MiB) exceeds maximum allowed size (50 MiB)")

	_, err = s.ValidateFileList([]FileDescriptor{{Name: "ok.txt", Size: 1}, {Name: "bad.exe", Size: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bad.exe: File type ".exe" is not allowed`)
}

func TestValidateRateLimit(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := ratelimit.New(ratelimit.WithMaxRequests(1), ratelimit.WithClock(func() time.Time { return now }))

	res, err := ValidateRateLimit(l)
	require.NoError(t, err)
	assert.True(t, res.IsValid)

	_, err = ValidateRateLimit(l)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateLimited)
	assert.Equal(t, "Rate limit exceeded. Please try again in 1 minute(s).", err.Error())
}
