package sanitizer

import (
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/ratelimit"
)

// FileDescriptor describes an uploaded file independently of its content.
type FileDescriptor struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	// MIMEType is the type reported by the client; empty when unknown.
	MIMEType string `json:"mime_type,omitempty"`
}

var (
	reInvalidNameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1F]`)
	reReservedName     = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[1-9]|lpt[1-9])(\..*)?$`)
)

// ValidateFile checks size, extension, MIME type and name of one file.
// A MIME mismatch is only a warning.
func (s *Sanitizer) ValidateFile(fd FileDescriptor) (ValidationResult, error) {
	errs, warnings := s.checkFile(fd)
	if len(errs) > 0 {
		return ValidationResult{}, common.NewValidationError(errs, warnings)
	}
	return ValidationResult{IsValid: true, Errors: []string{}, Warnings: nonNil(warnings)}, nil
}

// ValidateFileList enforces the aggregate ceilings, then validates every file
// and fails once with all collected issues.
func (s *Sanitizer) ValidateFileList(files []FileDescriptor) (ValidationResult, error) {
	var errs, warnings []string

	if len(files) == 0 {
		return ValidationResult{}, common.NewValidationError([]string{"No files provided"}, nil)
	}
	if len(files) > s.cfg.MaxFiles {
		errs = append(errs, fmt.Sprintf("Too many files (%d). Maximum allowed: %d", len(files), s.cfg.MaxFiles))
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	if total > s.cfg.MaxTotalSize {
		errs = append(errs, fmt.Sprintf("Total size (%s) exceeds maximum allowed size (%s)",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(s.cfg.MaxTotalSize))))
	}

	for _, f := range files {
		fe, fw := s.checkFile(f)
		for _, e := range fe {
			errs = append(errs, f.Name+": "+e)
		}
		for _, w := range fw {
			warnings = append(warnings, f.Name+": "+w)
		}
	}

	if len(errs) > 0 {
		return ValidationResult{}, common.NewValidationError(errs, warnings)
	}
	return ValidationResult{IsValid: true, Errors: []string{}, Warnings: nonNil(warnings)}, nil
}

func (s *Sanitizer) checkFile(fd FileDescriptor) (errs, warnings []string) {
	if fd.Size > s.cfg.MaxFileSize {
		errs = append(errs, fmt.Sprintf("File size (%s) exceeds maximum allowed size (%s)",
			humanize.IBytes(uint64(fd.Size)), humanize.IBytes(uint64(s.cfg.MaxFileSize))))
	}
	if fd.Size < 0 {
		errs = append(errs, "File size is invalid")
	}

	ext := normalizeExt(filepath.Ext(fd.Name))
	if _, ok := s.allowedExts[ext]; !ok {
		errs = append(errs, fmt.Sprintf("File type %q is not allowed. Allowed types: %s", "."+ext, s.allowedExtList()))
	}

	if fd.MIMEType != "" {
		mt, _, err := mime.ParseMediaType(fd.MIMEType)
		if err != nil {
			mt = fd.MIMEType
		}
		if _, ok := s.allowedMIME[strings.ToLower(mt)]; !ok {
			warnings = append(warnings, fmt.Sprintf("Unexpected MIME type %q", fd.MIMEType))
		}
	}

	errs = append(errs, checkFileName(fd.Name)...)
	return errs, warnings
}

func checkFileName(name string) []string {
	var errs []string
	if strings.TrimSpace(name) == "" {
		return []string{"File name is required"}
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		errs = append(errs, "File name contains path traversal sequences")
	}
	if reInvalidNameChars.MatchString(name) {
		errs = append(errs, "File name contains invalid characters")
	}
	if reReservedName.MatchString(name) {
		errs = append(errs, "File name is a reserved system name")
	}
	if strings.HasPrefix(name, ".") {
		errs = append(errs, "Hidden files are not allowed")
	}
	return errs
}

func (s *Sanitizer) allowedExtList() string {
	out := make([]string, 0, len(s.allowedExts))
	for ext := range s.allowedExts {
		out = append(out, "."+ext)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

func normalizeExt(ext string) string {
	return constants.NormalizeExt(strings.TrimSpace(ext))
}

// ValidateRateLimit admits one call through l or returns its RateLimitError.
func ValidateRateLimit(l *ratelimit.Limiter) (ValidationResult, error) {
	if err := l.Check(); err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{}}, nil
}
