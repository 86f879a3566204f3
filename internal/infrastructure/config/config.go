package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Attach    AttachConfig
	GRPC      GRPCConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string   `envconfig:"PORT" default:"8888"`
	Host         string   `envconfig:"HOST" default:"127.0.0.1"`
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// AttachConfig describes the externally owned kernel.
type AttachConfig struct {
	ConnectionFile      string `envconfig:"JUPYTER_ATTACH_CONNECTION_FILE"`
	KernelName          string `envconfig:"JUPYTER_ATTACH_KERNEL_NAME" default:"ManiVaultStudio"`
	WatchConnectionFile bool   `envconfig:"JUPYTER_ATTACH_WATCH" default:"true"`
}

// GRPCConfig holds gRPC health server configuration.
// An empty HealthAddr disables the server.
type GRPCConfig struct {
	HealthAddr string `envconfig:"GRPC_HEALTH_ADDR"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// Global shares one bucket across all clients instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8888",
			Host:         "127.0.0.1",
			AllowOrigins: []string{"*"},
		},
		Attach: AttachConfig{
			KernelName:          "ManiVaultStudio",
			WatchConnectionFile: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	path := c.Attach.ConnectionFile
	if path == "" {
		return fmt.Errorf("connection file is not configured")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("connection file %q must be an absolute path", path)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is empty")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst, got %d/%d",
			c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	}
	return nil
}
