package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Dialect != DialectModern {
		t.Errorf("Expected modern dialect, got %s", cfg.Dialect)
	}
	if cfg.OperationTimeout != 5*time.Minute {
		t.Errorf("Expected 5m operation timeout, got %v", cfg.OperationTimeout)
	}
	if cfg.HealthTimeout != 5*time.Second {
		t.Errorf("Expected 5s health timeout, got %v", cfg.HealthTimeout)
	}
	if cfg.MaxFileSize() != 50*1024*1024 {
		t.Errorf("Expected 50MiB limit, got %d", cfg.MaxFileSize())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
dialect: legacy
base_url: http://127.0.0.1:9001
poll_interval: 2s
operation_timeout: 10m
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Dialect != DialectLegacy {
		t.Errorf("Expected legacy dialect, got %s", cfg.Dialect)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("Expected 2s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.OperationTimeout != 10*time.Minute {
		t.Errorf("Expected 10m operation timeout, got %v", cfg.OperationTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.HealthTimeout != DefaultHealthTimeout {
		t.Errorf("Expected default health timeout, got %v", cfg.HealthTimeout)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("dialect: graphql\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for unknown dialect")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.PollInterval = 7 * time.Second

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.PollInterval != 7*time.Second {
		t.Errorf("Expected 7s poll interval, got %v", got.PollInterval)
	}
}

func TestCapabilities(t *testing.T) {
	cfg := DefaultConfig()
	caps := cfg.Capabilities()
	if !caps.BatchIngest || caps.IngestPath != "/ingest/files" || caps.IngestField != "files" {
		t.Errorf("Unexpected modern ingest capabilities: %+v", caps)
	}
	if caps.SearchPath != "/research/query" || !caps.SearchSendsLimit {
		t.Errorf("Unexpected modern search capabilities: %+v", caps)
	}
	if len(caps.HealthPaths) != 2 || caps.HealthSentinel != "healthy" {
		t.Errorf("Unexpected modern health capabilities: %+v", caps)
	}
	if caps.AuthURL != "http://localhost:8001" {
		t.Errorf("Expected separate auth service, got %s", caps.AuthURL)
	}

	cfg.Dialect = DialectLegacy
	cfg.BaseURL = "http://localhost:8001"
	caps = cfg.Capabilities()
	if caps.BatchIngest || caps.IngestPath != "/upload" || caps.IngestField != "file" {
		t.Errorf("Unexpected legacy ingest capabilities: %+v", caps)
	}
	if caps.SearchPath != "/search" || caps.SearchSendsLimit {
		t.Errorf("Unexpected legacy search capabilities: %+v", caps)
	}
	if caps.HealthSentinel != "running" || caps.HealthPaths[0] != "/" {
		t.Errorf("Unexpected legacy health capabilities: %+v", caps)
	}
	if caps.AuthURL != cfg.BaseURL {
		t.Errorf("Expected legacy auth on base URL, got %s", caps.AuthURL)
	}

	batch := true
	cfg.BatchIngest = &batch
	if !cfg.Capabilities().BatchIngest {
		t.Error("Expected batch_ingest override to apply")
	}
}
