package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Rules.Suppress() {
		t.Error("expected exception suppression by default")
	}
	if cfg.Rules.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Rules.Concurrency)
	}
	if cfg.Results.Output != "niemqa-results.json" {
		t.Errorf("expected default output niemqa-results.json, got %s", cfg.Results.Output)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected in-memory store by default, got NATS URL %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Rules.Concurrency = 0 },
			wantErr: true,
		},
		{
			name:    "missing output",
			modify:  func(c *Config) { c.Results.Output = "" },
			wantErr: true,
		},
		{
			name: "nats without bucket",
			modify: func(c *Config) {
				c.NATS.URL = "nats://localhost:4222"
				c.NATS.Bucket = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "niemqa.yaml")

	writeFile(t, configPath, `
model:
  path: model.json
dictionary:
  path: /usr/share/hunspell/en_US.dic
  special_terms: [FIPS, NCIC]
rules:
  include: ["property_*"]
  suppress_exceptions: false
  concurrency: 2
nats:
  url: "nats://test:4222"
`)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Model.Path != filepath.Join(tmpDir, "model.json") {
		t.Errorf("expected model path relative to config dir, got %s", cfg.Model.Path)
	}
	if cfg.Dictionary.Path != "/usr/share/hunspell/en_US.dic" {
		t.Errorf("expected absolute dictionary path kept, got %s", cfg.Dictionary.Path)
	}
	if len(cfg.Dictionary.SpecialTerms) != 2 {
		t.Errorf("expected 2 special terms, got %d", len(cfg.Dictionary.SpecialTerms))
	}
	if cfg.Rules.Suppress() {
		t.Error("expected suppression disabled")
	}
	if cfg.Rules.Concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", cfg.Rules.Concurrency)
	}
	if cfg.Results.Output != "niemqa-results.json" {
		t.Errorf("expected default output kept, got %s", cfg.Results.Output)
	}
	if cfg.NATS.Bucket != "NIEMQA_MODEL" {
		t.Errorf("expected default bucket kept, got %s", cfg.NATS.Bucket)
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "niemqa.yaml")
	writeFile(t, configPath, "rules:\n  concurency: 2\n")

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	off := false
	override := &Config{
		Model: ModelConfig{Path: "/override/model.json"},
		Rules: RulesConfig{SuppressExceptions: &off},
	}

	base.Merge(override)

	if base.Model.Path != "/override/model.json" {
		t.Errorf("expected model path /override/model.json, got %s", base.Model.Path)
	}
	if base.Rules.Suppress() {
		t.Error("expected suppression disabled by override")
	}
	// Concurrency should remain from base since override didn't set it
	if base.Rules.Concurrency != 4 {
		t.Errorf("expected concurrency to remain default, got %d", base.Rules.Concurrency)
	}

	off = true
	if base.Rules.Suppress() {
		t.Error("merged config must not alias the override")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Rules.Concurrency = 8

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Rules.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", loaded.Rules.Concurrency)
	}
}
