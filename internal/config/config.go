// Package config loads service configuration from an optional YAML file
// with NTHL_* environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vietdungregister/nthl/internal/models"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment applies NTHL_* overrides. The librarian API key is
// only ever read from the environment, never from the config file.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("NTHL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("NTHL_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("NTHL_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("NTHL_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("NTHL_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("NTHL_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("NTHL_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("NTHL_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Storage configuration
	if storageType := os.Getenv("NTHL_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if dsn := os.Getenv("NTHL_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	if maxOpen := os.Getenv("NTHL_DATABASE_MAX_OPEN_CONNS"); maxOpen != "" {
		if conns, err := strconv.Atoi(maxOpen); err == nil {
			config.Storage.Database.MaxOpenConns = conns
		}
	}

	if maxIdle := os.Getenv("NTHL_DATABASE_MAX_IDLE_CONNS"); maxIdle != "" {
		if conns, err := strconv.Atoi(maxIdle); err == nil {
			config.Storage.Database.MaxIdleConns = conns
		}
	}

	// Security configuration
	if ttl := os.Getenv("NTHL_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Security.SessionTTL = d
		}
	}

	if secure := os.Getenv("NTHL_SECURE_COOKIES"); secure != "" {
		config.Security.SecureCookies = strings.ToLower(secure) == "true"
	}

	// Rate limit configuration
	applyWindowLimitEnv("NTHL_SEARCH_LIMIT", &config.RateLimits.Search)
	applyWindowLimitEnv("NTHL_COMMENT_LIMIT", &config.RateLimits.Comments)

	// Librarian configuration
	if enabled := os.Getenv("NTHL_LIBRARIAN_ENABLED"); enabled != "" {
		config.Librarian.Enabled = strings.ToLower(enabled) == "true"
	}

	if model := os.Getenv("NTHL_LIBRARIAN_MODEL"); model != "" {
		config.Librarian.Model = model
	}

	if baseURL := os.Getenv("NTHL_LIBRARIAN_BASE_URL"); baseURL != "" {
		config.Librarian.BaseURL = baseURL
	}

	if timeout := os.Getenv("NTHL_LIBRARIAN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Librarian.Timeout = d
		}
	}

	if key := os.Getenv("NTHL_OPENAI_API_KEY"); key != "" {
		config.Librarian.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Librarian.APIKey = key
	}

	// Logging configuration
	if level := os.Getenv("NTHL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("NTHL_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("NTHL_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("NTHL_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("NTHL_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("NTHL_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("NTHL_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Tracing configuration
	if tracing := os.Getenv("NTHL_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("NTHL_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("NTHL_TRACING_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// applyWindowLimitEnv reads <prefix>_PER_KEY, <prefix>_GLOBAL and
// <prefix>_WINDOW overrides for one limiter.
func applyWindowLimitEnv(prefix string, cfg *models.WindowLimitConfig) {
	if v := os.Getenv(prefix + "_ENABLED"); v != "" {
		cfg.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(prefix + "_PER_KEY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPerKey = n
		}
	}
	if v := os.Getenv(prefix + "_GLOBAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxGlobal = n
		}
	}
	if v := os.Getenv(prefix + "_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Window = d
		}
	}
}
