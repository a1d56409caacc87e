// Package config holds the CortexDesk client configuration and the backend
// capability descriptor derived from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Dialect names a backend API variant.
type Dialect string

const (
	// DialectModern is the knowledge service with batch ingest (/ingest/files).
	DialectModern Dialect = "modern"
	// DialectLegacy is the assistant service with per-file /upload.
	DialectLegacy Dialect = "legacy"
)

const (
	// DefaultOperationTimeout bounds long operations such as ingestion and question answering.
	DefaultOperationTimeout = 5 * time.Minute
	// DefaultHealthTimeout bounds a single health probe.
	DefaultHealthTimeout = 5 * time.Second
	// DefaultPollInterval is the confirmation polling period.
	DefaultPollInterval = 5 * time.Second
	// DefaultHealthInterval is the connectivity monitor period.
	DefaultHealthInterval = 30 * time.Second
	// DefaultMaxFileSizeMB is the per-file upload limit.
	DefaultMaxFileSizeMB = 50
)

// Config holds client configuration.
type Config struct {
	// Dialect selects the backend API variant: modern or legacy.
	Dialect Dialect `yaml:"dialect"`
	// BaseURL is the root of the knowledge service API.
	BaseURL string `yaml:"base_url"`
	// AuthURL is the root of the service that owns auth and confirmations.
	// Ignored by the legacy dialect, which serves both from BaseURL.
	AuthURL string `yaml:"auth_url"`
	// BatchIngest overrides the dialect's ingest strategy when set.
	BatchIngest *bool `yaml:"batch_ingest,omitempty"`
	// OperationTimeout is the ceiling for ingestion, search and questions.
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	// HealthTimeout is the ceiling for a health probe.
	HealthTimeout time.Duration `yaml:"health_timeout"`
	// PollInterval is how often pending confirmations are refreshed.
	PollInterval time.Duration `yaml:"poll_interval"`
	// HealthInterval is how often connectivity is re-probed.
	HealthInterval time.Duration `yaml:"health_interval"`
	// MaxFileSizeMB is the per-file upload limit in MiB.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
	// JournalPath is the SQLite file recording user decisions.
	JournalPath string `yaml:"journal_path"`
}

// DefaultConfig returns the configuration of a local modern deployment.
func DefaultConfig() *Config {
	journal := ""
	if home, err := os.UserHomeDir(); err == nil {
		journal = filepath.Join(home, ".cortexdesk", "journal.db")
	}
	return &Config{
		Dialect:          DialectModern,
		BaseURL:          "http://localhost:8000/api",
		AuthURL:          "http://localhost:8001",
		OperationTimeout: DefaultOperationTimeout,
		HealthTimeout:    DefaultHealthTimeout,
		PollInterval:     DefaultPollInterval,
		HealthInterval:   DefaultHealthInterval,
		MaxFileSizeMB:    DefaultMaxFileSizeMB,
		JournalPath:      journal,
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// HomePath returns ~/.cortexdesk/config.yaml.
func HomePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(home, ".cortexdesk", "config.yaml"), nil
}

// LoadConfigFromHome loads configuration from ~/.cortexdesk/config.yaml.
func LoadConfigFromHome() (*Config, error) {
	path, err := HomePath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// SaveConfig saves configuration to a YAML file, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Dialect {
	case DialectModern, DialectLegacy:
	default:
		return fmt.Errorf("invalid dialect %q, must be: modern or legacy", c.Dialect)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation_timeout must be positive")
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("health_timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("health_interval must be positive")
	}
	if c.MaxFileSizeMB < 1 {
		return fmt.Errorf("max_file_size_mb must be at least 1")
	}
	return nil
}

// Capabilities describes what the configured backend supports. It is
// resolved once at startup; callers branch on its fields, never on the
// dialect name.
type Capabilities struct {
	Dialect Dialect
	// BaseURL is the knowledge service root.
	BaseURL string
	// AuthURL is the root for auth and confirmation endpoints.
	AuthURL string
	// BatchIngest selects one multipart call for all files.
	BatchIngest bool
	// IngestPath and IngestField describe the file upload endpoint.
	IngestPath  string
	IngestField string
	// SearchPath is the semantic search endpoint; SearchSendsLimit is
	// true when it accepts max_results.
	SearchPath       string
	SearchSendsLimit bool
	// HealthPaths are probed in order; HealthSentinel is the expected status.
	HealthPaths    []string
	HealthSentinel string
}

// Capabilities resolves the capability descriptor for the configured dialect.
func (c *Config) Capabilities() Capabilities {
	var caps Capabilities
	switch c.Dialect {
	case DialectLegacy:
		caps = Capabilities{
			Dialect:        DialectLegacy,
			BaseURL:        c.BaseURL,
			AuthURL:        c.BaseURL,
			BatchIngest:    false,
			IngestPath:     "/upload",
			IngestField:    "file",
			SearchPath:     "/search",
			HealthPaths:    []string{"/"},
			HealthSentinel: "running",
		}
	default:
		caps = Capabilities{
			Dialect:          DialectModern,
			BaseURL:          c.BaseURL,
			AuthURL:          c.AuthURL,
			BatchIngest:      true,
			IngestPath:       "/ingest/files",
			IngestField:      "files",
			SearchPath:       "/research/query",
			SearchSendsLimit: true,
			HealthPaths:      []string{"/health", "/api/health"},
			HealthSentinel:   "healthy",
		}
	}
	if caps.AuthURL == "" {
		caps.AuthURL = c.BaseURL
	}
	if c.BatchIngest != nil {
		caps.BatchIngest = *c.BatchIngest
	}
	return caps
}

// MaxFileSize returns the per-file limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
