package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTP.Port != 4000 {
		t.Errorf("expected default port 4000, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "./data/rollcall.db" {
		t.Errorf("unexpected default database path %q", cfg.Database.Path)
	}
	if cfg.WebSocket.BufferSize != 100 {
		t.Errorf("expected default buffer size 100, got %d", cfg.WebSocket.BufferSize)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected default token TTL 24h, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Error("JWT secret must have no default")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Auth.JWTSecret = "test-secret"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"zero read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
		{"zero websocket buffer", func(c *Config) { c.WebSocket.BufferSize = 0 }},
		{"negative token ttl", func(c *Config) { c.Auth.TokenTTL = -time.Hour }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROLLCALL_HTTP_HOST", "127.0.0.1")
	t.Setenv("ROLLCALL_HTTP_PORT", "8080")
	t.Setenv("ROLLCALL_DATABASE_PATH", "/tmp/test.db")
	t.Setenv("ROLLCALL_JWT_SECRET", "env-secret")
	t.Setenv("ROLLCALL_TOKEN_TTL", "2h")
	t.Setenv("ROLLCALL_WEBSOCKET_BUFFER_SIZE", "50")

	cfg := LoadFromEnv()

	if cfg.HTTP.Host != "127.0.0.1" {
		t.Errorf("expected host override, got %q", cfg.HTTP.Host)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected port override, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("expected database path override, got %q", cfg.Database.Path)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected JWT secret override, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("expected token TTL override, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.WebSocket.BufferSize != 50 {
		t.Errorf("expected buffer size override, got %d", cfg.WebSocket.BufferSize)
	}
}

func TestLoadFromEnvFallbacks(t *testing.T) {
	t.Setenv("ROLLCALL_HTTP_PORT", "")
	t.Setenv("ROLLCALL_JWT_SECRET", "")
	t.Setenv("PORT", "3000")
	t.Setenv("JWT_SECRET", "plain-secret")

	cfg := LoadFromEnv()

	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected PORT fallback, got %d", cfg.HTTP.Port)
	}
	if cfg.Auth.JWTSecret != "plain-secret" {
		t.Errorf("expected JWT_SECRET fallback, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("ROLLCALL_HTTP_PORT", "not-a-number")
	t.Setenv("ROLLCALL_TOKEN_TTL", "not-a-duration")

	cfg := LoadFromEnv()

	if cfg.HTTP.Port != 4000 {
		t.Errorf("expected default port on bad value, got %d", cfg.HTTP.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected default TTL on bad value, got %v", cfg.Auth.TokenTTL)
	}
}
