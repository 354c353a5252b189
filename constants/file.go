package constants

import "strings"

// AllowedExtensions holds the default allowed file extensions for test-runner logs.
var AllowedExtensions = map[string]struct{}{
	"txt": {},
	"log": {},
}

// AllowedMIMETypes holds the MIME types accepted without a warning.
var AllowedMIMETypes = []string{"text/plain", "text/x-log"}

// Default ceilings applied by the sanitizer when no configuration overrides them.
const (
	DefaultMaxLines      = 10_000
	DefaultMaxLineLength = 1_000
	DefaultMaxFileSize   = 10 << 20
	DefaultMaxFiles      = 10
	DefaultMaxTotalSize  = 50 << 20
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt reports whether ext (with or without dot) is in the default allow-list.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
