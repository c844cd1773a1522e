// Package config loads and validates the Prioris YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration loaded from YAML.
type Config struct {
	// Cloud configures the remote Prioris backend. Omit the block to run
	// purely local (the engine then never leaves localFirst mode).
	Cloud *CloudConfig `yaml:"cloud,omitempty"`

	// Persistence configures the strategy engine.
	Persistence PersistenceConfig `yaml:"persistence"`

	// ListenAddr is the bind address for the HTTP API (e.g. ":8080").
	// Defaults to ":8080" if unset.
	ListenAddr string `yaml:"listen_addr"`

	// DBPath overrides the local SQLite database path.
	// Defaults to ~/.local/share/prioris/prioris.db.
	DBPath string `yaml:"db_path,omitempty"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// CloudConfig holds the remote backend connection settings.
type CloudConfig struct {
	// BaseURL is the base URL of the cloud API (e.g. "https://api.prioris.app").
	BaseURL string `yaml:"base_url"`

	// APIToken is the bearer token sent on every cloud request.
	APIToken string `yaml:"api_token"`
}

// PersistenceConfig is the engine configuration. It is read once at startup;
// changing it requires constructing a new engine.
type PersistenceConfig struct {
	// Mode selects the strategy selection policy. "auto" (default) derives
	// the mode from the authentication state; "hybrid" pins the hybrid
	// strategy, which itself switches behaviour on authentication per call.
	Mode string `yaml:"mode"`

	// EnableDeduplication routes local list writes through the
	// exists-check path instead of raw inserts.
	EnableDeduplication bool `yaml:"enable_deduplication"`

	// EnableBackgroundSync enables detached cloud propagation of local
	// writes. When false every sync call is a no-op.
	EnableBackgroundSync bool `yaml:"enable_background_sync"`

	// SyncTimeout bounds each cloud attempt inside a background sync task.
	// Defaults to 10s.
	SyncTimeout time.Duration `yaml:"sync_timeout"`

	// MaxRetries is the number of additional attempts after the first
	// failure inside a background sync task. Must be >= 0; zero means a
	// single attempt with no retry.
	MaxRetries int `yaml:"max_retries"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection. Use for local collectors.
	Insecure bool `yaml:"insecure"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "prioris".
	ServiceName string `yaml:"service_name"`

	// Headers contains key-value pairs sent as gRPC metadata on every OTLP
	// request, e.g. {"Authorization": "Bearer <token>"}.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Modes accepted by PersistenceConfig.Mode.
const (
	ModeAuto   = "auto"
	ModeHybrid = "hybrid"
)

// DefaultPath returns the default config file path: ~/.config/prioris/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "prioris", "config.yaml"), nil
}

// DefaultDBPath returns the default local database path:
// ~/.local/share/prioris/prioris.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "prioris", "prioris.db"), nil
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Write marshals the config to YAML and writes it to path, creating parent
// directories as needed. The file is written 0600 since it carries the API token.
func (c *Config) Write(path string) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("refusing to write invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %q: %w", path, err)
	}
	return nil
}

// validate checks that all required fields are present and well-formed,
// applying defaults where the zero value means "unset".
func (c *Config) validate() error {
	if c.Cloud != nil {
		if c.Cloud.BaseURL == "" {
			return fmt.Errorf("cloud.base_url is required when cloud is configured")
		}
		u, err := url.ParseRequestURI(c.Cloud.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("cloud.base_url %q must be a valid http or https URL", c.Cloud.BaseURL)
		}
		if c.Cloud.APIToken == "" {
			return fmt.Errorf("cloud.api_token is required when cloud is configured")
		}
	}

	switch c.Persistence.Mode {
	case "":
		c.Persistence.Mode = ModeAuto
	case ModeAuto, ModeHybrid:
	default:
		return fmt.Errorf("persistence.mode %q must be %q or %q", c.Persistence.Mode, ModeAuto, ModeHybrid)
	}

	if c.Persistence.SyncTimeout == 0 {
		c.Persistence.SyncTimeout = 10 * time.Second
	}
	if c.Persistence.SyncTimeout < time.Second {
		return fmt.Errorf("persistence.sync_timeout %v is too short (minimum 1s)", c.Persistence.SyncTimeout)
	}
	if c.Persistence.SyncTimeout > 5*time.Minute {
		return fmt.Errorf("persistence.sync_timeout %v is too long (maximum 5m)", c.Persistence.SyncTimeout)
	}

	if c.Persistence.MaxRetries < 0 {
		return fmt.Errorf("persistence.max_retries must be >= 0, got %d", c.Persistence.MaxRetries)
	}
	if c.Persistence.MaxRetries > 10 {
		return fmt.Errorf("persistence.max_retries %d is excessive (maximum 10)", c.Persistence.MaxRetries)
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}
