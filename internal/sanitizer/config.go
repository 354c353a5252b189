package sanitizer

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

// DangerousPattern is one named regular expression whose matches are replaced
// by the placeholder.
type DangerousPattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// Config holds the structural ceilings and content rules.
type Config struct {
	MaxLines          int                `yaml:"max_lines"`
	MaxLineLength     int                `yaml:"max_line_length"`
	MaxFileSize       int64              `yaml:"max_file_size"`
	MaxFiles          int                `yaml:"max_files"`
	MaxTotalSize      int64              `yaml:"max_total_size"`
	AllowedExtensions []string           `yaml:"allowed_extensions"`
	AllowedMIMETypes  []string           `yaml:"allowed_mime_types"`
	DangerousPatterns []DangerousPattern `yaml:"dangerous_patterns"`
	Placeholder       string             `yaml:"placeholder"`
	MinRetainedRatio  float64            `yaml:"min_retained_ratio"`
}

// DefaultPatterns covers script/iframe tags, script-capable URI schemes and
// inline event-handler attributes.
var DefaultPatterns = []DangerousPattern{
	{Name: "script tag", Pattern: `(?is)<script\b[^>]*>.*?</script\s*>`},
	{Name: "iframe tag", Pattern: `(?is)<iframe\b[^>]*>.*?</iframe\s*>`},
	{Name: "javascript URI", Pattern: `(?i)javascript:`},
	{Name: "vbscript URI", Pattern: `(?i)vbscript:`},
	{Name: "HTML data URI", Pattern: `(?i)data:text/html`},
	{Name: "event handler", Pattern: `(?i)\bon[a-z]+\s*=`},
}

const DefaultPlaceholder = "[REMOVED]"

// DefaultConfig returns the ceilings used when nothing is configured.
func DefaultConfig() Config {
	exts := make([]string, 0, len(constants.AllowedExtensions))
	for ext := range constants.AllowedExtensions {
		exts = append(exts, "."+ext)
	}
	patterns := make([]DangerousPattern, len(DefaultPatterns))
	copy(patterns, DefaultPatterns)
	mimes := make([]string, len(constants.AllowedMIMETypes))
	copy(mimes, constants.AllowedMIMETypes)
	return Config{
		MaxLines:          constants.DefaultMaxLines,
		MaxLineLength:     constants.DefaultMaxLineLength,
		MaxFileSize:       constants.DefaultMaxFileSize,
		MaxFiles:          constants.DefaultMaxFiles,
		MaxTotalSize:      constants.DefaultMaxTotalSize,
		AllowedExtensions: exts,
		AllowedMIMETypes:  mimes,
		DangerousPatterns: patterns,
		Placeholder:       DefaultPlaceholder,
		MinRetainedRatio:  0.8,
	}
}

// LoadConfigFile overlays the YAML document at path onto DefaultConfig.
// Keys absent from the file keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read sanitizer config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("decode sanitizer config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the ceilings and compiles every pattern once.
func (c Config) Validate() error {
	if c.MaxLines <= 0 || c.MaxLineLength <= 0 {
		return common.NewAppError(common.KindConfig, "max_lines and max_line_length must be positive", common.ErrInvalidInput)
	}
	if c.MaxFileSize <= 0 || c.MaxTotalSize <= 0 || c.MaxFiles <= 0 {
		return common.NewAppError(common.KindConfig, "file ceilings must be positive", common.ErrInvalidInput)
	}
	if c.MinRetainedRatio < 0 || c.MinRetainedRatio > 1 {
		return common.NewAppError(common.KindConfig, "min_retained_ratio must be within [0,1]", common.ErrInvalidInput)
	}
	for _, p := range c.DangerousPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return common.NewAppError(common.KindConfig, fmt.Sprintf("dangerous pattern %q: %v", p.Name, err), common.ErrInvalidInput)
		}
	}
	return nil
}
