// Package config provides configuration loading and management for niemqa.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete niemqa configuration
type Config struct {
	Model      ModelConfig      `yaml:"model" envPrefix:"MODEL_"`
	Dictionary DictionaryConfig `yaml:"dictionary" envPrefix:"DICTIONARY_"`
	Rules      RulesConfig      `yaml:"rules" envPrefix:"RULES_"`
	Results    ResultsConfig    `yaml:"results" envPrefix:"RESULTS_"`
	NATS       NATSConfig       `yaml:"nats" envPrefix:"NATS_"`
}

// ModelConfig locates the model to check
type ModelConfig struct {
	// Path is the JSON model file
	Path string `yaml:"path" env:"PATH"`
}

// DictionaryConfig configures the spell checker
type DictionaryConfig struct {
	// Path is a hunspell .dic or plain word-per-line file
	Path string `yaml:"path" env:"PATH"`
	// CustomWords is a YAML allow/exclude word list applied after loading
	CustomWords string `yaml:"custom_words" env:"CUSTOM_WORDS"`
	// SpecialTerms are acronyms never split during name segmentation
	SpecialTerms []string `yaml:"special_terms" env:"SPECIAL_TERMS"`
}

// RulesConfig configures rule selection and execution
type RulesConfig struct {
	// Catalog is a YAML rule catalog (empty = built-in catalog)
	Catalog string `yaml:"catalog" env:"CATALOG"`
	// Include is the list of rule id globs to run (empty = all rules)
	Include []string `yaml:"include" env:"INCLUDE"`
	// SuppressExceptions drops objects named in a test's exception labels (default: true)
	SuppressExceptions *bool `yaml:"suppress_exceptions" env:"SUPPRESS_EXCEPTIONS"`
	// Concurrency is the number of rules run at once
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

// ResultsConfig configures where results are saved
type ResultsConfig struct {
	// Output is the JSON results file
	Output string `yaml:"output" env:"OUTPUT"`
}

// NATSConfig configures the optional NATS KV model store
type NATSConfig struct {
	// URL is the NATS server URL (empty = in-memory model store)
	URL string `yaml:"url" env:"URL"`
	// Bucket is the KV bucket holding the model
	Bucket string `yaml:"bucket" env:"BUCKET"`
}

// Suppress reports whether exception suppression is enabled.
func (r RulesConfig) Suppress() bool {
	return r.SuppressExceptions == nil || *r.SuppressExceptions
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	suppress := true
	return &Config{
		Rules: RulesConfig{
			SuppressExceptions: &suppress,
			Concurrency:        4,
		},
		Results: ResultsConfig{
			Output: "niemqa-results.json",
		},
		NATS: NATSConfig{
			Bucket: "NIEMQA_MODEL",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Rules.Concurrency < 1 {
		return fmt.Errorf("rules.concurrency must be at least 1")
	}
	if c.Results.Output == "" {
		return fmt.Errorf("results.output is required")
	}
	if c.NATS.URL != "" && c.NATS.Bucket == "" {
		return fmt.Errorf("nats.bucket is required when nats.url is set")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	config.Merge(file)
	return config, nil
}

// readFile decodes a YAML file into an otherwise empty Config, so that only
// the keys it sets take part in a merge. Unknown keys are rejected.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.resolvePaths(filepath.Dir(path))
	return config, nil
}

// resolvePaths makes the file paths of a config file relative to its directory.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{
		&c.Model.Path,
		&c.Dictionary.Path,
		&c.Dictionary.CustomWords,
		&c.Rules.Catalog,
		&c.Results.Output,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Model
	if other.Model.Path != "" {
		c.Model.Path = other.Model.Path
	}

	// Dictionary
	if other.Dictionary.Path != "" {
		c.Dictionary.Path = other.Dictionary.Path
	}
	if other.Dictionary.CustomWords != "" {
		c.Dictionary.CustomWords = other.Dictionary.CustomWords
	}
	if len(other.Dictionary.SpecialTerms) > 0 {
		c.Dictionary.SpecialTerms = other.Dictionary.SpecialTerms
	}

	// Rules
	if other.Rules.Catalog != "" {
		c.Rules.Catalog = other.Rules.Catalog
	}
	if len(other.Rules.Include) > 0 {
		c.Rules.Include = other.Rules.Include
	}
	if other.Rules.SuppressExceptions != nil {
		v := *other.Rules.SuppressExceptions
		c.Rules.SuppressExceptions = &v
	}
	if other.Rules.Concurrency != 0 {
		c.Rules.Concurrency = other.Rules.Concurrency
	}

	// Results
	if other.Results.Output != "" {
		c.Results.Output = other.Results.Output
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Bucket != "" {
		c.NATS.Bucket = other.NATS.Bucket
	}
}
