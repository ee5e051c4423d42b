// Package models - Service configuration and operational settings.
// Hierarchical configuration with per-component grouping, environment
// friendly defaults and validation that catches misconfigurations at
// startup rather than first request.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	RateLimits    RateLimitsConfig    `yaml:"rate_limits" json:"rate_limits"`
	Librarian     LibrarianConfig     `yaml:"librarian" json:"librarian"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

type StorageConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

type SecurityConfig struct {
	// SessionTTL bounds how long an admin login cookie stays valid.
	SessionTTL time.Duration `yaml:"session_ttl" json:"session_ttl"`
	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool `yaml:"secure_cookies" json:"secure_cookies"`
}

// RateLimitsConfig holds the two independent limiter configurations.
// Search is the stricter one guarding the AI endpoint and carries a
// process-wide ceiling; comments has no global ceiling.
type RateLimitsConfig struct {
	Search   WindowLimitConfig `yaml:"search" json:"search"`
	Comments WindowLimitConfig `yaml:"comments" json:"comments"`
}

// WindowLimitConfig configures one window limiter instance.
type WindowLimitConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	MaxPerKey int           `yaml:"max_per_key" json:"max_per_key"`
	MaxGlobal int           `yaml:"max_global" json:"max_global"` // 0 = no global ceiling
	Window    time.Duration `yaml:"window" json:"window"`
}

// LibrarianConfig configures the AI search orchestrator. The API key is
// deliberately absent from YAML; it is read from the environment only.
type LibrarianConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Model   string        `yaml:"model" json:"model"`
	BaseURL string        `yaml:"base_url" json:"base_url"` // override for compatible providers
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	APIKey  string        `yaml:"-" json:"-"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // stdout or otlp
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
// The limiter defaults reproduce the site's historical quotas: 10 AI
// searches per client per hour under a 200/hour global ceiling, and 5
// comments per client per hour.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         86400,
			},
		},
		Storage: StorageConfig{
			Type: StorageTypeSQLite,
			Database: DatabaseConfig{
				DSN:             "./data/nthl.db",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
		},
		Security: SecurityConfig{
			SessionTTL:    8 * time.Hour,
			SecureCookies: false,
		},
		RateLimits: RateLimitsConfig{
			Search: WindowLimitConfig{
				Enabled:   true,
				MaxPerKey: 10,
				MaxGlobal: 200,
				Window:    time.Hour,
			},
			Comments: WindowLimitConfig{
				Enabled:   true,
				MaxPerKey: 5,
				Window:    time.Hour,
			},
		},
		Librarian: LibrarianConfig{
			Enabled: true,
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "nthl",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}
	if err := c.Librarian.Validate(); err != nil {
		return fmt.Errorf("invalid librarian config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}
	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}
	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}
	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}
	return nil
}

func (stc *StorageConfig) Validate() error {
	switch stc.Type {
	case StorageTypeMemory:
		return nil
	case StorageTypeSQLite, StorageTypePostgres:
		if stc.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", stc.Type)
		}
		return nil
	default:
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}
}

func (sec *SecurityConfig) Validate() error {
	if sec.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}

func (rc *RateLimitsConfig) Validate() error {
	if err := rc.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := rc.Comments.Validate(); err != nil {
		return fmt.Errorf("comments: %w", err)
	}
	return nil
}

func (wc *WindowLimitConfig) Validate() error {
	if !wc.Enabled {
		return nil
	}
	if wc.MaxPerKey <= 0 {
		return errors.New("max_per_key must be positive")
	}
	if wc.MaxGlobal < 0 {
		return errors.New("max_global cannot be negative")
	}
	if wc.Window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}

func (lc *LibrarianConfig) Validate() error {
	if !lc.Enabled {
		return nil
	}
	if lc.Model == "" {
		return errors.New("model cannot be empty")
	}
	if lc.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	switch lc.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}
	switch lc.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}
	switch lc.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}
	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}
	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}
	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}
	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}
	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}
	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required for otlp exporter")
		}
	default:
		return fmt.Errorf("invalid tracing exporter: %s", oc.Tracing.Exporter)
	}
	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("tracing sample rate must be between 0 and 1")
	}
	return nil
}
