package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

// Each extractor looks at a single line and returns ok=false when the line
// does not carry its marker (or its value token). An error means the marker
// is there but the value is unusable.

var (
	reFileCount = regexp.MustCompile(`:\s*(-?\d+)`)

	reWorkflowToken    = regexp.MustCompile(`AUTO-(\S+)`)
	reWorkflowTrailing = regexp.MustCompile(`[^A-Z0-9-]+$`)
	reWorkflowID       = regexp.MustCompile(`^[A-Z0-9-]+$`)

	reProject         = regexp.MustCompile(`TRA\s*-\s*([A-Z0-9]+)\s*-\s*(.+?)\s*-\s*v([\d.]+)`)
	reProjectCode     = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	reProjectVersion  = regexp.MustCompile(`^\d+(\.\d+)*$`)
	reForbiddenInName = regexp.MustCompile(`[<>:"|?*\\/]`)

	reFolderToken    = regexp.MustCompile(`\bD([A-Z0-9]+)`)
	reFolderTrailing = regexp.MustCompile(`[^A-Z0-9]+$`)
	reFolderNumber   = regexp.MustCompile(`^[A-Z0-9]+$`)

	reForbiddenInDate = regexp.MustCompile("[<>\"'|;&$`\\\\]")
	reDigit           = regexp.MustCompile(`\d`)
)

var dateLayouts = []*regexp.Regexp{
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`),
}

const maxFreeformDateLen = 50

// ExtractRemainingFileCount reads the first integer after a colon on a
// remaining-files line. Negative values count as no match.
func ExtractRemainingFileCount(line string) (int, bool, error) {
	if !constants.HasMarker(line, constants.FieldRemainingFileCount) {
		return 0, false, nil
	}
	m := reFileCount.FindStringSubmatch(line)
	if m == nil || strings.HasPrefix(m[1], "-") {
		return 0, false, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > constants.MaxRemainingFileCount {
		return 0, false, common.NewParsingError(fmt.Sprintf("Invalid remaining file count: %s", m[1]))
	}
	return n, true, nil
}

// ExtractWorkflowID returns the token after AUTO- on a workflow line, with
// trailing characters outside [A-Z0-9-] removed.
func ExtractWorkflowID(line string) (string, bool, error) {
	if !constants.HasMarker(line, constants.FieldWorkflowID) {
		return "", false, nil
	}
	m := reWorkflowToken.FindStringSubmatch(line)
	if m == nil {
		return "", false, nil
	}
	id := reWorkflowTrailing.ReplaceAllString(m[1], "")
	if !reWorkflowID.MatchString(id) {
		return "", false, common.NewParsingError(fmt.Sprintf("Invalid workflow ID format: %q", m[1]))
	}
	return id, true, nil
}

// ExtractProjectName returns the normalized "TRA - CODE - NAME - vX.Y" form.
// Lines that only loosely mention TRA are accepted as-is once their code
// segment checks out.
func ExtractProjectName(line string) (string, bool, error) {
	if !constants.HasMarker(line, constants.FieldProjectName) {
		return "", false, nil
	}
	_, value, found := strings.Cut(line, ":")
	if !found {
		return "", false, nil
	}

	if m := reProject.FindStringSubmatch(value); m != nil {
		code, rawName, version := m[1], m[2], m[3]
		if !reProjectCode.MatchString(code) {
			return "", false, common.NewParsingError(fmt.Sprintf("Invalid project code: %q", code))
		}
		name := sanitizeProjectName(rawName)
		if name == "" {
			return "", false, common.NewParsingError("Project name is empty after sanitization")
		}
		if !reProjectVersion.MatchString(version) {
			return "", false, common.NewParsingError(fmt.Sprintf("Invalid project version: %q", version))
		}
		return fmt.Sprintf("TRA - %s - %s - v%s", code, name, version), true, nil
	}

	value = strings.TrimSpace(value)
	if !strings.Contains(value, "TRA") {
		return "", false, nil
	}
	if parts := strings.Split(value, "-"); len(parts) >= 2 {
		if code := strings.TrimSpace(parts[1]); !reProjectCode.MatchString(code) {
			return "", false, common.NewParsingError(fmt.Sprintf("Invalid project code: %q", code))
		}
	}
	return sanitizeProjectName(value), true, nil
}

// ExtractFolderNumber returns the alphanumeric token after the D prefix.
func ExtractFolderNumber(line string) (string, bool, error) {
	if !constants.HasMarker(line, constants.FieldFolderNumber) {
		return "", false, nil
	}
	_, value, found := strings.Cut(line, ":")
	if !found {
		return "", false, nil
	}
	m := reFolderToken.FindStringSubmatch(value)
	if m == nil {
		return "", false, nil
	}
	// The capture is already alphanumeric; the check below guards the
	// trailing strip, not the capture.
	number := reFolderTrailing.ReplaceAllString(m[1], "")
	if !reFolderNumber.MatchString(number) {
		return "", false, common.NewParsingError(fmt.Sprintf("Invalid folder number: %q", m[1]))
	}
	return number, true, nil
}

// ExtractDepositDate returns the cleaned text after the colon when it looks
// like a date: one of the known layouts, or a short string with a digit.
func ExtractDepositDate(line string) (string, bool, error) {
	if !constants.HasMarker(line, constants.FieldDepositDate) {
		return "", false, nil
	}
	_, value, found := strings.Cut(line, ":")
	if !found {
		return "", false, nil
	}
	date := strings.TrimSpace(reForbiddenInDate.ReplaceAllString(value, ""))
	if date == "" {
		return "", false, common.NewParsingError("Deposit date is empty")
	}
	if IsKnownDateLayout(date) {
		return date, true, nil
	}
	if utf8.RuneCountInString(date) <= maxFreeformDateLen && reDigit.MatchString(date) {
		return date, true, nil
	}
	return "", false, common.NewParsingError("Invalid deposit date format")
}

// IsKnownDateLayout reports whether s matches one of DD/MM/YYYY, YYYY-MM-DD,
// YYYY-MM-DDTHH:MM:SS, DD-MM-YYYY or DD.MM.YYYY.
func IsKnownDateLayout(s string) bool {
	for _, re := range dateLayouts {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func sanitizeProjectName(s string) string {
	return strings.TrimSpace(reForbiddenInName.ReplaceAllString(s, "_"))
}
