package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the system-wide configuration.
type Config struct {
	Database  *DatabaseConfig  `json:"database"`
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Auth      *AuthConfig      `json:"auth"`
}

type DatabaseConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	HandshakeTimeout time.Duration `json:"handshake_timeout"`
	WriteTimeout     time.Duration `json:"write_timeout"`
	BufferSize       int           `json:"buffer_size"`
}

type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// DefaultConfig returns production defaults. The JWT secret has no default
// and must come from the environment.
func DefaultConfig() *Config {
	return &Config{
		Database: &DatabaseConfig{
			Path:    "./data/rollcall.db",
			Timeout: 30 * time.Second,
		},
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         4000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     5 * time.Second,
			BufferSize:       100,
		},
		Auth: &AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Validate catches unusable configurations before any component starts.
func (c *Config) Validate() error {
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.HandshakeTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket timeouts must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}
	if c.Auth == nil || c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set ROLLCALL_JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	return nil
}

// LoadFromEnv builds a configuration from defaults overridden by
// ROLLCALL_* environment variables.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("ROLLCALL_HTTP_HOST"); host != "" {
		cfg.HTTP.Host = host
	}
	if port := os.Getenv("ROLLCALL_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	} else if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if dbPath := os.Getenv("ROLLCALL_DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if timeout := os.Getenv("ROLLCALL_DATABASE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Database.Timeout = d
		}
	}
	if timeout := os.Getenv("ROLLCALL_HTTP_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.HTTP.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("ROLLCALL_HTTP_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.HTTP.WriteTimeout = d
		}
	}
	if timeout := os.Getenv("ROLLCALL_WEBSOCKET_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.WebSocket.WriteTimeout = d
		}
	}
	if size := os.Getenv("ROLLCALL_WEBSOCKET_BUFFER_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			cfg.WebSocket.BufferSize = n
		}
	}
	if secret := os.Getenv("ROLLCALL_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	} else if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if ttl := os.Getenv("ROLLCALL_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}

	return cfg
}
