package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validJWTSecret meets the 32-character minimum requirement.
const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "127.0.0.1"
  port: 9090
websocket:
  allow_anonymous: true
pagination:
  default_page_size: 5
  max_page_size: 50
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
    access_token_ttl: 30
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if !cfg.WebSocket.AllowAnonymous {
		t.Error("WebSocket.AllowAnonymous should be true")
	}
	if cfg.Pagination.DefaultPageSize != 5 {
		t.Errorf("Pagination.DefaultPageSize = %d, want 5", cfg.Pagination.DefaultPageSize)
	}
	if cfg.AccessTokenTTL() != 30*time.Minute {
		t.Errorf("AccessTokenTTL() = %v, want 30m", cfg.AccessTokenTTL())
	}

	// Unset keys keep their defaults
	if cfg.WebSocket.QueueSize != 1024 {
		t.Errorf("WebSocket.QueueSize = %d, want default 1024", cfg.WebSocket.QueueSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for missing secret, got nil")
	}
	if !strings.Contains(err.Error(), "FEEDLINE_JWT_SECRET") {
		t.Errorf("error should mention FEEDLINE_JWT_SECRET, got %v", err)
	}
}

func TestLoad_EnvSecret(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)
	t.Setenv("FEEDLINE_JWT_SECRET", validJWTSecret)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWT.Secret != validJWTSecret {
		t.Errorf("Security.JWT.Secret = %q, want env value", cfg.Security.JWT.Secret)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = validJWTSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "tls without files", mutate: func(c *Config) { c.API.TLS.Enabled = true }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "zero token ttl", mutate: func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, wantErr: true},
		{name: "zero send buffer", mutate: func(c *Config) { c.WebSocket.SendBuffer = 0 }, wantErr: true},
		{name: "zero queue size", mutate: func(c *Config) { c.WebSocket.QueueSize = 0 }, wantErr: true},
		{name: "rate limit without rate", mutate: func(c *Config) { c.Security.RateLimit.RequestsPerMinute = 0 }, wantErr: true},
		{name: "rate limit disabled", mutate: func(c *Config) {
			c.Security.RateLimit.Enabled = false
			c.Security.RateLimit.RequestsPerMinute = 0
		}, wantErr: false},
		{name: "zero default page size", mutate: func(c *Config) { c.Pagination.DefaultPageSize = 0 }, wantErr: true},
		{name: "max below default", mutate: func(c *Config) { c.Pagination.MaxPageSize = 1 }, wantErr: true},
		{name: "missing uploads dir", mutate: func(c *Config) { c.Uploads.Dir = "" }, wantErr: true},
		{name: "relative url prefix", mutate: func(c *Config) { c.Uploads.URLPrefix = "uploads" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Path = ""
	cfg.API.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"database.path", "api.port", "security.jwt.secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestAPIConfig_GetTimeouts(t *testing.T) {
	cfg := APIConfig{
		Timeouts: APITimeoutConfig{
			Read:  30,
			Write: 45,
			Idle:  60,
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("FEEDLINE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("FEEDLINE_API_HOST", "192.168.1.1")
	t.Setenv("FEEDLINE_API_PORT", "9443")
	t.Setenv("FEEDLINE_UPLOADS_DIR", "/srv/uploads")
	t.Setenv("FEEDLINE_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.API.Port != 9443 {
		t.Errorf("API.Port = %d, want 9443", cfg.API.Port)
	}
	if cfg.Uploads.Dir != "/srv/uploads" {
		t.Errorf("Uploads.Dir = %q, want %q", cfg.Uploads.Dir, "/srv/uploads")
	}
	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("FEEDLINE_API_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Security.JWT.Secret != "" {
		t.Error("defaultConfig must not ship a JWT secret")
	}
}
