package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the project configuration file name.
	ProjectConfigFile = ".envcheck.yaml"

	// projectConfigFileAlt is accepted when ProjectConfigFile is absent.
	projectConfigFileAlt = ".envcheck.yml"

	// DefaultMinColumns is the minimum column count for the sample CSV.
	DefaultMinColumns = 6
)

// Config represents the complete envcheck configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Packages PackagesConfig `yaml:"packages" json:"packages"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Layout   LayoutConfig   `yaml:"layout" json:"layout"`
	Sample   SampleConfig   `yaml:"sample" json:"sample"`
	State    StateConfig    `yaml:"state" json:"state"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// PackagesConfig configures the package import check.
type PackagesConfig struct {
	// Required lists the Python packages that must be importable.
	Required []string `yaml:"required" json:"required"`
	// Python is the interpreter used for imports.
	// Empty selects .venv/bin/python in the working directory, then python3 on PATH.
	Python string `yaml:"python" json:"python"`
	// ImportTimeout bounds each single import (default: "60s").
	ImportTimeout string `yaml:"import_timeout" json:"import_timeout"`
}

// PipelineConfig configures the pipeline construction check.
type PipelineConfig struct {
	Name        string `yaml:"name" json:"name"`
	Destination string `yaml:"destination" json:"destination"`
	Dataset     string `yaml:"dataset" json:"dataset"`
}

// DatabaseConfig configures the embedded database check.
type DatabaseConfig struct {
	// Driver is the database/sql driver name (default: "sqlite").
	Driver string `yaml:"driver" json:"driver"`
	// DSN is the data source name (default: ":memory:").
	DSN string `yaml:"dsn" json:"dsn"`
	// Query must return a single integer.
	Query string `yaml:"query" json:"query"`
	// Expected is the value Query must return.
	// Only taken from a file that also sets Query, so an explicit 0 survives merging.
	Expected int64 `yaml:"expected" json:"expected"`
}

// LayoutConfig lists paths that must exist relative to the working directory.
type LayoutConfig struct {
	Files []string `yaml:"files" json:"files"`
	Dirs  []string `yaml:"dirs" json:"dirs"`
}

// SampleConfig configures the sample data check.
type SampleConfig struct {
	Path       string `yaml:"path" json:"path"`
	MinRows    int    `yaml:"min_rows" json:"min_rows"`
	MinColumns int    `yaml:"min_columns" json:"min_columns"`
}

// StateConfig configures where run state is kept.
type StateConfig struct {
	// Dir is relative to the working directory (default: ".envcheck").
	Dir string `yaml:"dir" json:"dir"`
	// SkipRecord disables writing the last-pass marker.
	SkipRecord bool `yaml:"skip_record" json:"skip_record"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// defaultPackages mirrors the data tooling the environment is expected to provide.
var defaultPackages = []string{
	"dlt",
	"duckdb",
	"pandas",
	"numpy",
	"jupyter",
	"matplotlib",
	"seaborn",
	"dotenv",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Packages: PackagesConfig{
			Required:      append([]string(nil), defaultPackages...),
			Python:        "",
			ImportTimeout: "60s",
		},
		Pipeline: PipelineConfig{
			Name:        "test_pipeline",
			Destination: "sqlite",
			Dataset:     "test_data",
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      ":memory:",
			Query:    "SELECT 1 AS test_value",
			Expected: 1,
		},
		Layout: LayoutConfig{
			Files: []string{
				"requirements.txt",
				"data/sample.csv",
				"notebooks/data_workflow.ipynb",
			},
			Dirs: []string{
				"data",
				"notebooks",
				"output",
			},
		},
		Sample: SampleConfig{
			Path:       "data/sample.csv",
			MinRows:    1,
			MinColumns: DefaultMinColumns,
		},
		State: StateConfig{
			Dir: ".envcheck",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// ImportTimeoutDuration returns the parsed import timeout.
// Falls back to 60s if the value is empty or invalid.
func (c *Config) ImportTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Packages.ImportTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/envcheck/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/envcheck/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "envcheck", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "envcheck", "config.yaml")
	}
	return filepath.Join(home, ".config", "envcheck", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project config file in dir, preferring
// .envcheck.yaml over .envcheck.yml. Returns "" if neither exists.
func ProjectConfigPath(dir string) string {
	yamlPath := filepath.Join(dir, ProjectConfigFile)
	if fileExists(yamlPath) {
		return yamlPath
	}
	ymlPath := filepath.Join(dir, projectConfigFileAlt)
	if fileExists(ymlPath) {
		return ymlPath
	}
	return ""
}

// Load loads configuration for the given working directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/envcheck/config.yaml)
//  3. Project config (.envcheck.yaml in dir)
//  4. Environment variables (ENVCHECK_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if projectPath := ProjectConfigPath(dir); projectPath != "" {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile parses a single configuration file on top of the defaults.
// No other sources are consulted and the result is not validated.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Packages
	if len(other.Packages.Required) > 0 {
		c.Packages.Required = other.Packages.Required
	}
	if other.Packages.Python != "" {
		c.Packages.Python = other.Packages.Python
	}
	if other.Packages.ImportTimeout != "" {
		c.Packages.ImportTimeout = other.Packages.ImportTimeout
	}

	// Pipeline
	if other.Pipeline.Name != "" {
		c.Pipeline.Name = other.Pipeline.Name
	}
	if other.Pipeline.Destination != "" {
		c.Pipeline.Destination = other.Pipeline.Destination
	}
	if other.Pipeline.Dataset != "" {
		c.Pipeline.Dataset = other.Pipeline.Dataset
	}

	// Database
	if other.Database.Driver != "" {
		c.Database.Driver = other.Database.Driver
	}
	if other.Database.DSN != "" {
		c.Database.DSN = other.Database.DSN
	}
	if other.Database.Query != "" {
		c.Database.Query = other.Database.Query
		c.Database.Expected = other.Database.Expected
	} else if other.Database.Expected != 0 {
		c.Database.Expected = other.Database.Expected
	}

	// Layout replaces rather than appends: a project may drop a default entry.
	if len(other.Layout.Files) > 0 {
		c.Layout.Files = other.Layout.Files
	}
	if len(other.Layout.Dirs) > 0 {
		c.Layout.Dirs = other.Layout.Dirs
	}

	// Sample
	if other.Sample.Path != "" {
		c.Sample.Path = other.Sample.Path
	}
	if other.Sample.MinRows != 0 {
		c.Sample.MinRows = other.Sample.MinRows
	}
	if other.Sample.MinColumns != 0 {
		c.Sample.MinColumns = other.Sample.MinColumns
	}

	// State
	if other.State.Dir != "" {
		c.State.Dir = other.State.Dir
	}
	if other.State.SkipRecord {
		c.State.SkipRecord = true
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies ENVCHECK_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ENVCHECK_PYTHON"); v != "" {
		c.Packages.Python = v
	}
	if v := os.Getenv("ENVCHECK_PACKAGES"); v != "" {
		c.Packages.Required = splitList(v)
	}
	if v := os.Getenv("ENVCHECK_PIPELINE_DESTINATION"); v != "" {
		c.Pipeline.Destination = v
	}
	if v := os.Getenv("ENVCHECK_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("ENVCHECK_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("ENVCHECK_SAMPLE_PATH"); v != "" {
		c.Sample.Path = v
	}
	if v := os.Getenv("ENVCHECK_SAMPLE_MIN_COLUMNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ENVCHECK_SAMPLE_MIN_COLUMNS: %w", err)
		}
		c.Sample.MinColumns = n
	}
	if v := os.Getenv("ENVCHECK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid.
// Pipeline and package names are not checked here: rejecting them is the job
// of the checks themselves, so a bad name shows up as a failed check.
func (c *Config) Validate() error {
	if len(c.Packages.Required) == 0 {
		return fmt.Errorf("packages.required must list at least one package")
	}
	if c.Packages.ImportTimeout != "" {
		d, err := time.ParseDuration(c.Packages.ImportTimeout)
		if err != nil {
			return fmt.Errorf("packages.import_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("packages.import_timeout must be positive, got %s", d)
		}
	}

	if strings.TrimSpace(c.Database.Driver) == "" {
		return fmt.Errorf("database.driver must not be empty")
	}
	if strings.TrimSpace(c.Database.Query) == "" {
		return fmt.Errorf("database.query must not be empty")
	}

	if len(c.Layout.Files) == 0 && len(c.Layout.Dirs) == 0 {
		return fmt.Errorf("layout must list at least one file or directory")
	}

	if c.Sample.Path == "" {
		return fmt.Errorf("sample.path must not be empty")
	}
	if c.Sample.MinRows <= 0 {
		return fmt.Errorf("sample.min_rows must be positive, got %d", c.Sample.MinRows)
	}
	if c.Sample.MinColumns <= 0 {
		return fmt.Errorf("sample.min_columns must be positive, got %d", c.Sample.MinColumns)
	}

	if c.State.Dir == "" {
		return fmt.Errorf("state.dir must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
