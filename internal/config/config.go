package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig represents model backend configuration
type LLMConfig struct {
	// BaseURL is the Ollama-compatible endpoint
	BaseURL string `yaml:"base_url"`

	// FactsModel is the model used for the scan phase
	FactsModel string `yaml:"facts_model"`

	// ClassifyModel is the model used for the classify phase
	ClassifyModel string `yaml:"classify_model"`

	// VisionModel is the model used to caption images; empty disables captioning
	VisionModel string `yaml:"vision_model"`

	// Timeout is the per-call deadline for model requests
	Timeout time.Duration `yaml:"timeout"`
}

// ArchiveConfig represents archive layout configuration
type ArchiveConfig struct {
	// UndatedLabel is the year folder used when no reference year is known
	UndatedLabel string `yaml:"undated_label"`

	// MaxNameLen caps sanitized archive filenames
	MaxNameLen int `yaml:"max_name_len"`

	// CollisionSuffix selects the collision disambiguator (numeric or hash)
	CollisionSuffix string `yaml:"collision_suffix"`
}

// Config represents archivist configuration options
type Config struct {
	// Concurrency is the number of parallel workers per batch
	Concurrency int `yaml:"concurrency"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Recursive walks subdirectories of the source root
	Recursive bool `yaml:"recursive"`

	// IncludeExtensions limits discovery to these extensions (no leading dot);
	// empty means all supported kinds
	IncludeExtensions []string `yaml:"include_extensions"`

	// ExcludeDirNames skips directories with these names during discovery
	ExcludeDirNames []string `yaml:"exclude_dirs"`

	// ConfidenceThreshold is the minimum classification confidence; results
	// below it are recorded as skipped
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// TaxonomyPath points to a YAML taxonomy file; empty uses the built-in one
	TaxonomyPath string `yaml:"taxonomy_path"`

	// LLM contains model backend configuration
	LLM LLMConfig `yaml:"llm"`

	// Archive contains archive layout configuration
	Archive ArchiveConfig `yaml:"archive"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Concurrency:         3,
		LogLevel:            "info",
		Recursive:           true,
		IncludeExtensions:   nil,
		ExcludeDirNames:     nil,
		ConfidenceThreshold: 0.30,
		TaxonomyPath:        "",
		LLM: LLMConfig{
			BaseURL:       "http://localhost:11434",
			FactsModel:    "qwen2.5:7b-instruct",
			ClassifyModel: "qwen2.5:7b-instruct",
			VisionModel:   "",
			Timeout:       2 * time.Minute,
		},
		Archive: ArchiveConfig{
			UndatedLabel:    "undated",
			MaxNameLen:      180,
			CollisionSuffix: "numeric",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings in YAML, so parse into an intermediate
	// shape first.
	type yamlLLM struct {
		BaseURL       string `yaml:"base_url"`
		FactsModel    string `yaml:"facts_model"`
		ClassifyModel string `yaml:"classify_model"`
		VisionModel   string `yaml:"vision_model"`
		Timeout       string `yaml:"timeout"`
	}
	type yamlConfig struct {
		Concurrency         *int          `yaml:"concurrency"`
		LogLevel            string        `yaml:"log_level"`
		Recursive           *bool         `yaml:"recursive"`
		IncludeExtensions   []string      `yaml:"include_extensions"`
		ExcludeDirNames     []string      `yaml:"exclude_dirs"`
		ConfidenceThreshold *float64      `yaml:"confidence_threshold"`
		TaxonomyPath        string        `yaml:"taxonomy_path"`
		LLM                 yamlLLM       `yaml:"llm"`
		Archive             ArchiveConfig `yaml:"archive"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Concurrency != nil {
		cfg.Concurrency = *yamlCfg.Concurrency
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Recursive != nil {
		cfg.Recursive = *yamlCfg.Recursive
	}
	if yamlCfg.IncludeExtensions != nil {
		cfg.IncludeExtensions = yamlCfg.IncludeExtensions
	}
	if yamlCfg.ExcludeDirNames != nil {
		cfg.ExcludeDirNames = yamlCfg.ExcludeDirNames
	}
	if yamlCfg.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *yamlCfg.ConfidenceThreshold
	}
	if yamlCfg.TaxonomyPath != "" {
		cfg.TaxonomyPath = yamlCfg.TaxonomyPath
	}

	if yamlCfg.LLM.BaseURL != "" {
		cfg.LLM.BaseURL = yamlCfg.LLM.BaseURL
	}
	if yamlCfg.LLM.FactsModel != "" {
		cfg.LLM.FactsModel = yamlCfg.LLM.FactsModel
	}
	if yamlCfg.LLM.ClassifyModel != "" {
		cfg.LLM.ClassifyModel = yamlCfg.LLM.ClassifyModel
	}
	if yamlCfg.LLM.VisionModel != "" {
		cfg.LLM.VisionModel = yamlCfg.LLM.VisionModel
	}
	if yamlCfg.LLM.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm.timeout format %q: %w", yamlCfg.LLM.Timeout, err)
		}
		cfg.LLM.Timeout = timeout
	}

	if yamlCfg.Archive.UndatedLabel != "" {
		cfg.Archive.UndatedLabel = yamlCfg.Archive.UndatedLabel
	}
	if yamlCfg.Archive.MaxNameLen != 0 {
		cfg.Archive.MaxNameLen = yamlCfg.Archive.MaxNameLen
	}
	if yamlCfg.Archive.CollisionSuffix != "" {
		cfg.Archive.CollisionSuffix = yamlCfg.Archive.CollisionSuffix
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .archivist/config.yaml in the
// specified directory (normally the source root)
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".archivist", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(concurrency *int, logLevel *string, recursive *bool, confidenceThreshold *float64, model *string) {
	if concurrency != nil {
		c.Concurrency = *concurrency
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if recursive != nil {
		c.Recursive = *recursive
	}
	if confidenceThreshold != nil {
		c.ConfidenceThreshold = *confidenceThreshold
	}
	if model != nil {
		c.LLM.FactsModel = *model
		c.LLM.ClassifyModel = *model
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %g", c.ConfidenceThreshold)
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url cannot be empty")
	}
	if c.LLM.FactsModel == "" {
		return fmt.Errorf("llm.facts_model cannot be empty")
	}
	if c.LLM.ClassifyModel == "" {
		return fmt.Errorf("llm.classify_model cannot be empty")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be > 0, got %v", c.LLM.Timeout)
	}

	if c.Archive.MaxNameLen < 16 {
		return fmt.Errorf("archive.max_name_len must be >= 16, got %d", c.Archive.MaxNameLen)
	}
	switch c.Archive.CollisionSuffix {
	case "numeric", "hash":
	default:
		return fmt.Errorf("invalid archive.collision_suffix %q, must be numeric or hash", c.Archive.CollisionSuffix)
	}

	return nil
}
