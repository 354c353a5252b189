// Package sanitizer decides whether raw runner output is safe and bounded
// before any parsing happens, and validates uploaded file descriptors.
package sanitizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

// ValidationResult is the outcome of one validation pass. It is computed once
// and not mutated afterwards.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	// SanitizedContent is empty when the pass does not produce content
	// (file descriptor and rate-limit checks).
	SanitizedContent string `json:"sanitized_content,omitempty"`
}

var reControlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// Replacement passes repeat until the text is stable, at most this many times.
// Removing one match can join its neighbours into a new match.
const maxSanitizePasses = 4

type compiledPattern struct {
	name string
	re   *regexp.Regexp
}

// Sanitizer applies a Config. It holds no mutable state and is safe for
// concurrent use.
type Sanitizer struct {
	cfg         Config
	patterns    []compiledPattern
	allowedExts map[string]struct{}
	allowedMIME map[string]struct{}
}

// New compiles cfg. It fails only when cfg does not validate.
func New(cfg Config) (*Sanitizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Sanitizer{
		cfg:         cfg,
		allowedExts: make(map[string]struct{}, len(cfg.AllowedExtensions)),
		allowedMIME: make(map[string]struct{}, len(cfg.AllowedMIMETypes)),
	}
	if s.cfg.Placeholder == "" {
		s.cfg.Placeholder = DefaultPlaceholder
	}
	for _, p := range cfg.DangerousPatterns {
		s.patterns = append(s.patterns, compiledPattern{name: p.Name, re: regexp.MustCompile(p.Pattern)})
	}
	for _, ext := range cfg.AllowedExtensions {
		s.allowedExts[normalizeExt(ext)] = struct{}{}
	}
	for _, mt := range cfg.AllowedMIMETypes {
		s.allowedMIME[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return s, nil
}

// Default returns a Sanitizer over DefaultConfig.
func Default() *Sanitizer {
	s, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// Config returns a copy of the active configuration.
func (s *Sanitizer) Config() Config {
	return s.cfg
}

// ValidateAndSanitize checks content structurally, neutralizes dangerous
// fragments and strips control characters. Any fatal condition is returned as
// a validation error; a nil error always comes with IsValid set.
func (s *Sanitizer) ValidateAndSanitize(content string) (ValidationResult, error) {
	var warnings []string

	if strings.TrimSpace(content) == "" {
		return ValidationResult{}, common.NewValidationError([]string{"File is empty"}, nil)
	}

	lines := strings.Split(content, "\n")
	if len(lines) > s.cfg.MaxLines {
		return ValidationResult{}, common.NewValidationError([]string{
			fmt.Sprintf("File has too many lines (%d). Maximum allowed: %d", len(lines), s.cfg.MaxLines),
		}, nil)
	}

	long := 0
	for _, line := range lines {
		if utf8.RuneCountInString(line) > s.cfg.MaxLineLength {
			long++
		}
	}
	if long > 0 {
		warnings = append(warnings, fmt.Sprintf("%d line(s) exceed the maximum length of %d characters", long, s.cfg.MaxLineLength))
	}

	sanitized, hits := s.neutralize(content)
	for _, name := range hits {
		warnings = append(warnings, "Potentially dangerous content removed: "+name)
	}

	original := utf8.RuneCountInString(content)
	retained := utf8.RuneCountInString(sanitized)
	if float64(original-retained) >= (1-s.cfg.MinRetainedRatio)*float64(original) && original != retained {
		return ValidationResult{}, common.NewValidationError([]string{
			"Content was heavily modified during sanitization and may be malicious",
		}, warnings)
	}

	return ValidationResult{
		IsValid:          true,
		Errors:           []string{},
		Warnings:         nonNil(warnings),
		SanitizedContent: sanitized,
	}, nil
}

// neutralize replaces dangerous fragments with the placeholder, then strips
// control characters, until the text stops changing. hits lists each pattern
// that matched, once, in configuration order.
func (s *Sanitizer) neutralize(content string) (string, []string) {
	text := content
	seen := make(map[string]bool, len(s.patterns))
	var hits []string
	for pass := 0; pass < maxSanitizePasses; pass++ {
		before := text
		for _, p := range s.patterns {
			if !p.re.MatchString(text) {
				continue
			}
			text = p.re.ReplaceAllLiteralString(text, s.cfg.Placeholder)
			if !seen[p.name] {
				seen[p.name] = true
				hits = append(hits, p.name)
			}
		}
		text = StripControlChars(text)
		if text == before {
			break
		}
	}
	return text, hits
}

// StripControlChars removes control characters except newline, carriage return and tab.
func StripControlChars(s string) string {
	return reControlChars.ReplaceAllString(s, "")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
