// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultRounds is how many collection rounds a run executes unless
// overridden.
const DefaultRounds = 3

// Config represents the CLI configuration loadable from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Run shape
	Rounds     int    `json:"rounds,omitempty"`      // Number of collection rounds
	OutputDir  string `json:"output_dir,omitempty"`  // Directory for report files
	UseBrowser bool   `json:"use_browser,omitempty"` // Use headless browser for SPA sites
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed progress information

	// External services
	SearchAPIKey string `json:"search_api_key,omitempty"` // Google Custom Search API key
	SearchCx     string `json:"search_cx,omitempty"`      // Custom Search engine ID
	GeminiAPIKey string `json:"gemini_api_key,omitempty"` // Gemini API key for report insights
	DatabaseURL  string `json:"database_url,omitempty"`   // PostgreSQL connection URL

	// Fetching
	TimeoutSeconds int `json:"timeout_seconds,omitempty"` // Per-request timeout
	MaxRetries     int `json:"max_retries,omitempty"`     // Fetch retry attempts

	// Server mode
	ServerAddr string `json:"server_addr,omitempty"` // Listen address for serve mode
}

// configSchema constrains the config file shape. Validated before
// unmarshalling so typos surface as field errors, not silent defaults.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"rounds":          {"type": "integer", "minimum": 0, "maximum": 10},
		"output_dir":      {"type": "string"},
		"use_browser":     {"type": "boolean"},
		"verbose":         {"type": "boolean"},
		"search_api_key":  {"type": "string"},
		"search_cx":       {"type": "string"},
		"gemini_api_key":  {"type": "string"},
		"database_url":    {"type": "string"},
		"timeout_seconds": {"type": "integer", "minimum": 0},
		"max_retries":     {"type": "integer", "minimum": 0},
		"server_addr":     {"type": "string"}
	}
}`

// ValidationError aggregates schema violations with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// LoadConfig loads configuration from a JSON file, validating it against
// the config schema first.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := validateSchema(string(data)); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// validateSchema checks raw config JSON against the embedded schema.
func validateSchema(content string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewStringLoader(content),
	)
	if err != nil {
		return fmt.Errorf("failed to run schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Rounds < 0 {
		return fmt.Errorf("config error: 'rounds' must be non-negative")
	}
	if c.SearchAPIKey != "" && c.SearchCx == "" {
		return fmt.Errorf("config error: 'search_cx' is required when 'search_api_key' is set")
	}
	if c.OutputDir != "" {
		if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: 'output_dir' is not a directory: %s", c.OutputDir)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-value fields filled
// from defaults. Used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchCx == "" {
		result.SearchCx = defaults.SearchCx
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ServerAddr == "" {
		result.ServerAddr = defaults.ServerAddr
	}

	if result.Rounds == 0 {
		if defaults.Rounds > 0 {
			result.Rounds = defaults.Rounds
		} else {
			result.Rounds = DefaultRounds
		}
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}

	// Bool fields: unset and false are indistinguishable, so CLI flags
	// always win for those.

	return result
}
