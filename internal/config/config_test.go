package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Format != "text" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Store.Backend != "json" || cfg.Store.DSN != "seqanalyzer-runs.json" {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.NCBI.CacheTTLSeconds != 7*24*3600 || cfg.NCBI.QPS != 3 {
		t.Errorf("unexpected ncbi defaults: %+v", cfg.NCBI)
	}
	if !cfg.S3.UseSSL {
		t.Errorf("expected s3.use_ssl default true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	body := `{
  "input": "reads.fasta",
  "log_level": "debug",
  "motifs": ["ATG", "TATA"],
  "workers": 4,
  "store": {"backend": "sqlite", "dsn": "runs.db"},
  "ncbi": {"api_key": "k"}
}`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SEQANALYZER_LOG_LEVEL", "warn")
	t.Setenv("SEQANALYZER_STORE_DSN", "/tmp/other.db")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input != "reads.fasta" || cfg.Workers != 4 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if len(cfg.Motifs) != 2 || cfg.Motifs[1] != "TATA" {
		t.Errorf("unexpected motifs: %v", cfg.Motifs)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("env should override file, got %q", cfg.LogLevel)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.DSN != "/tmp/other.db" {
		t.Errorf("unexpected store: %+v", cfg.Store)
	}
	if cfg.NCBI.APIKey != "k" {
		t.Errorf("unexpected ncbi: %+v", cfg.NCBI)
	}
}

func TestLoad_BadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Format: "json", Store: StoreConfig{Backend: "json"}}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []Config{
		{Format: "xml"},
		{Format: "json", Workers: -1},
		{Format: "json", Store: StoreConfig{Backend: "redis"}},
		{Format: "json", Motifs: []string{"ATG", ""}},
		{Format: "json", NCBI: NCBIConfig{QPS: -1}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, c)
		}
	}
}
