package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheldon-client/infrastructure/config"
	pkgerrors "sheldon-client/pkg/errors"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.NewLoader("").WithEnv(envOf(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultHost, cfg.Host)
	assert.Equal(t, 3600*time.Second, cfg.Timeout)
	assert.False(t, cfg.Logging.Enabled)
	assert.False(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoad_Environment(t *testing.T) {
	cfg, err := config.NewLoader("").WithEnv(envOf(map[string]string{
		"SHELDON_HOST":            "http://i.am.the.real.sheldon/",
		"SHELDON_TIMEOUT":         "90",
		"SHELDON_LOG_LEVEL":       "debug",
		"SHELDON_LOG_OUTPUT":      "stderr",
		"SHELDON_BREAKER_ENABLED": "true",
		"SHELDON_METRICS_ENABLED": "yes",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://i.am.the.real.sheldon", cfg.Host)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.Logging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheldon.yaml")
	content := `
host: http://sheldon.host
timeout: 2m
logging:
  enabled: true
  format: json
tracing:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.NewLoader(path).WithEnv(envOf(map[string]string{
		"SHELDON_HOST": "http://other.sheldon.host",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://other.sheldon.host", cfg.Host)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "sheldon-client", cfg.Tracing.ServiceName)
	assert.Equal(t, []string{"defaults", path, "environment"}, cfg.LoadedFrom)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := config.NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).WithEnv(envOf(nil)).Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHost, cfg.Host)
}

func TestLoad_BadTimeout(t *testing.T) {
	_, err := config.NewLoader("").WithEnv(envOf(map[string]string{"SHELDON_TIMEOUT": "soon"})).Load()
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
		errMsg  string
	}{
		{"defaults", func(*config.Config) {}, false, ""},
		{"missing host", func(c *config.Config) { c.Host = "" }, true, "host is required"},
		{"host not a url", func(c *config.Config) { c.Host = "sheldon" }, true, "host must be a valid URL"},
		{"zero timeout", func(c *config.Config) { c.Timeout = 0 }, true, "timeout must be greater than 0"},
		{"unknown format", func(c *config.Config) { c.Logging.Format = "xml" }, true, "format must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "http://sheldon.host", config.NormalizeHost("http://sheldon.host/"))
	assert.Equal(t, "http://sheldon.host", config.NormalizeHost(" http://sheldon.host "))
}
