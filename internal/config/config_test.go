package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pert.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// clearEnv blanks every variable Load reads; blank values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "PERT_ADDR", "PERT_ALLOWED_ORIGINS", "PERT_LOG_LEVEL", "PERT_CACHE_SIZE", "PERT_MAX_NODES"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":8080"
  allowed_origins: ["http://localhost:3000"]
  request_timeout: 5s
  cache_size: 0
render:
  max_nodes: 50
log:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.GetRequestTimeout())
	assert.Zero(t, cfg.Server.CacheSize)
	assert.Equal(t, 50, cfg.RenderOptions().MaxNodes)
	assert.Equal(t, float64(32), cfg.RenderOptions().NodeRadius)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel())
	assert.True(t, cfg.Log.Development)
	// Untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.GetReadTimeout())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PERT_LOG_LEVEL", "warn")
	t.Setenv("PERT_CACHE_SIZE", "7")
	t.Setenv("PERT_MAX_NODES", "12")
	t.Setenv("PERT_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":8080\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, zapcore.WarnLevel, cfg.LogLevel())
	assert.Equal(t, 7, cfg.Server.CacheSize)
	assert.Equal(t, 12, cfg.Render.MaxNodes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_AddrOverridesPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("PERT_ADDR", "127.0.0.1:7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "server: [1, 2"},
		{name: "bad duration", yaml: "server:\n  read_timeout: soon\n"},
		{name: "negative timeout", yaml: "server:\n  write_timeout: -1s\n"},
		{name: "bad level", yaml: "log:\n  level: loud\n"},
		{name: "zero max nodes", yaml: "render:\n  max_nodes: 0\n"},
		{name: "negative cache", yaml: "server:\n  cache_size: -1\n"},
		{name: "bad env int", yaml: "", env: map[string]string{"PERT_CACHE_SIZE": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestGetters_FallBackOnGarbage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.WriteTimeout = "never"
	cfg.Log.Level = "loud"

	assert.Equal(t, 60*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel())
}
