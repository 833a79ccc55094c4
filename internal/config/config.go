// Package config loads settings for the pert CLI and HTTP service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/lilRK/PERT-Analysis/internal/render"
)

// Config holds all pert configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ReadTimeout    string   `yaml:"read_timeout"`
	WriteTimeout   string   `yaml:"write_timeout"`
	RequestTimeout string   `yaml:"request_timeout"` // per-analysis budget
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	MaxConnections int      `yaml:"max_connections"` // 0 = unlimited
	CacheSize      int      `yaml:"cache_size"`      // 0 disables the result cache
}

// RenderConfig configures diagram rendering.
type RenderConfig struct {
	MaxNodes     int     `yaml:"max_nodes"`
	MaxDimension int     `yaml:"max_dimension"`
	NodeRadius   float64 `yaml:"node_radius"`
	ColumnGap    float64 `yaml:"column_gap"`
	RowGap       float64 `yaml:"row_gap"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	ro := render.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    "10s",
			WriteTimeout:   "60s",
			RequestTimeout: "30s",
			MaxBodyBytes:   1 << 20,
			MaxConnections: 256,
			CacheSize:      128,
		},
		Render: RenderConfig{
			MaxNodes:     ro.MaxNodes,
			MaxDimension: ro.MaxDimension,
			NodeRadius:   ro.NodeRadius,
			ColumnGap:    ro.ColumnGap,
			RowGap:       ro.RowGap,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is not an error, an empty path skips it), then a .env file in
// the working directory, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// Existing environment variables win over .env entries
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if strings.HasPrefix(port, ":") {
			c.Server.Addr = port
		} else {
			c.Server.Addr = ":" + port
		}
	}
	if addr := strings.TrimSpace(os.Getenv("PERT_ADDR")); addr != "" {
		c.Server.Addr = addr
	}
	if origins := strings.TrimSpace(os.Getenv("PERT_ALLOWED_ORIGINS")); origins != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if level := strings.TrimSpace(os.Getenv("PERT_LOG_LEVEL")); level != "" {
		c.Log.Level = level
	}

	for _, iv := range []struct {
		key string
		dst *int
	}{
		{"PERT_CACHE_SIZE", &c.Server.CacheSize},
		{"PERT_MAX_NODES", &c.Render.MaxNodes},
	} {
		raw := strings.TrimSpace(os.Getenv(iv.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", iv.key, raw, err)
		}
		*iv.dst = n
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address not configured")
	}
	for name, raw := range map[string]string{
		"read_timeout":    c.Server.ReadTimeout,
		"write_timeout":   c.Server.WriteTimeout,
		"request_timeout": c.Server.RequestTimeout,
	} {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid server.%s %q: %w", name, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("server.%s must be positive, got %s", name, raw)
		}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative, got %d", c.Server.MaxConnections)
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("server.cache_size must not be negative, got %d", c.Server.CacheSize)
	}
	if c.Render.MaxNodes <= 0 {
		return fmt.Errorf("render.max_nodes must be positive, got %d", c.Render.MaxNodes)
	}
	if c.Render.MaxDimension <= 0 {
		return fmt.Errorf("render.max_dimension must be positive, got %d", c.Render.MaxDimension)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// GetReadTimeout returns the read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetRequestTimeout returns the per-analysis timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.Server.RequestTimeout, 30*time.Second)
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// RenderOptions converts the render section for render.New.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		MaxNodes:     c.Render.MaxNodes,
		MaxDimension: c.Render.MaxDimension,
		NodeRadius:   c.Render.NodeRadius,
		ColumnGap:    c.Render.ColumnGap,
		RowGap:       c.Render.RowGap,
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
