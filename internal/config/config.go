package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pocketbook-dev/pocketbook/internal/history"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// FileName is the workspace config file name.
const FileName = "pocketbook.yaml"

// Environment overrides.
const (
	EnvLogLevel     = "POCKETBOOK_LOG_LEVEL"
	EnvHistoryDepth = "POCKETBOOK_HISTORY_DEPTH"
	EnvPageSize     = "POCKETBOOK_PAGE_SIZE"
	EnvTitle        = "POCKETBOOK_TITLE"
)

// Config represents the top-level pocketbook.yaml configuration.
type Config struct {
	Title   string        `yaml:"title"`
	History HistoryConfig `yaml:"history"`
	CSV     CSVConfig     `yaml:"csv"`
	Report  ReportConfig  `yaml:"report"`
	Log     LogConfig     `yaml:"log"`
}

// HistoryConfig bounds undo/redo.
type HistoryConfig struct {
	Depth int `yaml:"depth"`
}

// CSVConfig controls CSV import and export.
type CSVConfig struct {
	DateLayouts []string `yaml:"date_layouts"` // Go time layouts; the first is used for export
}

// ReportConfig controls PDF export.
type ReportConfig struct {
	PageSize  string `yaml:"page_size"`  // "A4" or "Letter"
	TopSlices int    `yaml:"top_slices"` // pie chart wedges; 0 = all
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads a pocketbook.yaml file from disk. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadWorkspace reads <dir>/pocketbook.yaml (defaults if absent), then
// applies <dir>/.env and POCKETBOOK_* environment overrides.
func LoadWorkspace(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFile(dir); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads <dir>/.env if present. Variables already set win.
func LoadEnvFile(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Title: "Personal Finance Data",
		History: HistoryConfig{
			Depth: history.DefaultDepth,
		},
		CSV: CSVConfig{
			DateLayouts: []string{model.DateLayout},
		},
		Report: ReportConfig{
			PageSize:  "A4",
			TopSlices: 10,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyEnv overrides fields from POCKETBOOK_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		c.Report.PageSize = v
	}
	if v := os.Getenv(EnvTitle); v != "" {
		c.Title = v
	}
	if v := os.Getenv(EnvHistoryDepth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvHistoryDepth, v, err)
		}
		c.History.Depth = n
	}
	return nil
}

// Validate reports every problem with the config at once.
func (c *Config) Validate() error {
	var problems []string
	if c.History.Depth < 1 {
		problems = append(problems, fmt.Sprintf("history.depth must be at least 1, got %d", c.History.Depth))
	}
	if len(c.CSV.DateLayouts) == 0 {
		problems = append(problems, "csv.date_layouts must list at least one layout")
	}
	switch strings.ToLower(c.Report.PageSize) {
	case "a4", "letter":
	default:
		problems = append(problems, fmt.Sprintf("report.page_size must be A4 or Letter, got %q", c.Report.PageSize))
	}
	if c.Report.TopSlices < 0 {
		problems = append(problems, fmt.Sprintf("report.top_slices must not be negative, got %d", c.Report.TopSlices))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PageSizeName returns the page size in the form the PDF renderer expects.
func (c *Config) PageSizeName() string {
	if strings.EqualFold(c.Report.PageSize, "letter") {
		return "Letter"
	}
	return "A4"
}
