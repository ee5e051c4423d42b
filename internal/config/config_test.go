package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdungregister/nthl/internal/models"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
server:
  port: 8081
  host: "localhost"
  read_timeout: 15s
  write_timeout: 15s
  idle_timeout: 90s
  cors:
    enabled: true
    allowed_origins: ["https://nguyenthehoanglinh.vn"]
    allowed_methods: ["GET", "POST"]
    allowed_headers: ["Content-Type"]
    max_age: 3600

storage:
  type: "sqlite"
  database:
    dsn: "./data/test.db"

security:
  session_ttl: 4h
  secure_cookies: true

rate_limits:
  search:
    enabled: true
    max_per_key: 3
    max_global: 50
    window: 30m
  comments:
    enabled: false

librarian:
  enabled: true
  model: "gpt-4o"
  timeout: 20s

logging:
  level: "debug"
  format: "text"
  output: "stdout"

metrics:
  enabled: true
  path: "/metrics"
  port: 9191
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	config, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 8081, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, config.Server.IdleTimeout)

	assert.True(t, config.Server.CORS.Enabled)
	assert.Equal(t, []string{"https://nguyenthehoanglinh.vn"}, config.Server.CORS.AllowedOrigins)

	assert.Equal(t, models.StorageTypeSQLite, config.Storage.Type)
	assert.Equal(t, "./data/test.db", config.Storage.Database.DSN)

	assert.Equal(t, 4*time.Hour, config.Security.SessionTTL)
	assert.True(t, config.Security.SecureCookies)

	assert.True(t, config.RateLimits.Search.Enabled)
	assert.Equal(t, 3, config.RateLimits.Search.MaxPerKey)
	assert.Equal(t, 50, config.RateLimits.Search.MaxGlobal)
	assert.Equal(t, 30*time.Minute, config.RateLimits.Search.Window)
	assert.False(t, config.RateLimits.Comments.Enabled)

	assert.Equal(t, "gpt-4o", config.Librarian.Model)
	assert.Equal(t, 20*time.Second, config.Librarian.Timeout)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)

	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, 9191, config.Metrics.Port)
}

func TestLoad_WithDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	defaults := models.NewDefaultConfig()
	assert.Equal(t, defaults.Server.Port, config.Server.Port)
	assert.Equal(t, defaults.Storage.Type, config.Storage.Type)
	assert.Equal(t, defaults.Security.SessionTTL, config.Security.SessionTTL)
	assert.Equal(t, defaults.RateLimits.Search.MaxPerKey, config.RateLimits.Search.MaxPerKey)
	assert.Equal(t, defaults.Librarian.Model, config.Librarian.Model)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "bad.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server: [not: valid"), 0644))

	_, err := Load(configFile)
	assert.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 99999\n"), 0644))

	_, err := Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("NTHL_PORT", "9000")
	t.Setenv("NTHL_HOST", "127.0.0.1")
	t.Setenv("NTHL_STORAGE_TYPE", "memory")
	t.Setenv("NTHL_SESSION_TTL", "2h")
	t.Setenv("NTHL_SECURE_COOKIES", "true")
	t.Setenv("NTHL_SEARCH_LIMIT_PER_KEY", "7")
	t.Setenv("NTHL_SEARCH_LIMIT_WINDOW", "10m")
	t.Setenv("NTHL_COMMENT_LIMIT_ENABLED", "false")
	t.Setenv("NTHL_LIBRARIAN_MODEL", "gpt-4.1-mini")
	t.Setenv("NTHL_LOG_LEVEL", "warn")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, models.StorageTypeMemory, config.Storage.Type)
	assert.Equal(t, 2*time.Hour, config.Security.SessionTTL)
	assert.True(t, config.Security.SecureCookies)
	assert.Equal(t, 7, config.RateLimits.Search.MaxPerKey)
	assert.Equal(t, 10*time.Minute, config.RateLimits.Search.Window)
	assert.False(t, config.RateLimits.Comments.Enabled)
	assert.Equal(t, "gpt-4.1-mini", config.Librarian.Model)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 8085\n"), 0644))

	t.Setenv("NTHL_PORT", "8090")

	config, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, 8090, config.Server.Port)
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("NTHL_OPENAI_API_KEY", "sk-test-override")
	t.Setenv("OPENAI_API_KEY", "sk-test-fallback")

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-override", config.Librarian.APIKey)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	t.Setenv("NTHL_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test-fallback")

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-fallback", config.Librarian.APIKey)
}
