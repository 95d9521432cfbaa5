package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level greenbook.yaml configuration.
type Config struct {
	Business   BusinessConfig   `yaml:"business"`
	Invoicing  InvoicingConfig  `yaml:"invoicing"`
	Extraction ExtractionConfig `yaml:"extraction,omitempty"`
	Git        GitConfig        `yaml:"git"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// InvoicingConfig controls invoice numbering and tax defaults.
type InvoicingConfig struct {
	Prefix  string  `yaml:"prefix"`   // e.g. "FAC"
	TaxRate float64 `yaml:"tax_rate"` // fraction, e.g. 0.23
}

// ExtractionConfig selects the Document AI processor used by `invoice
// capture`. Credentials come from the environment, not the file.
type ExtractionConfig struct {
	ProjectID   string `yaml:"project_id,omitempty"`
	Location    string `yaml:"location,omitempty"`
	ProcessorID string `yaml:"processor_id,omitempty"`
}

// GitConfig controls git snapshotting of the books directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoggingConfig controls the structured log.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace..panic
	Format string `yaml:"format"` // console, json
}

// Load reads a greenbook.yaml file from disk, after overlaying a .env file
// if one sits next to it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Environment wins over the file for extraction settings.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		cfg.Extraction.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		cfg.Extraction.Location = v
	}
	if v := os.Getenv("DOCUMENT_AI_PROCESSOR_ID"); v != "" {
		cfg.Extraction.ProcessorID = v
	}

	return &cfg, nil
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

// Default returns a Config with sensible defaults for a new books
// directory.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Invoicing: InvoicingConfig{
			Prefix:  "FAC",
			TaxRate: 0.23,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Greenbook",
			AuthorEmail: "books@greenbook.dev",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
