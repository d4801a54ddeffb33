package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader applies configuration sources from lowest to highest priority:
//  1. Default values
//  2. YAML file, when a path is given
//  3. Environment variables
type Loader struct {
	path    string
	getenv  func(string) string
	sources []string
}

// NewLoader creates a loader. An empty path skips the file layer; a path that
// does not exist is ignored as well.
func NewLoader(path string) *Loader {
	return &Loader{path: path, getenv: os.Getenv}
}

// WithEnv replaces the environment lookup, mostly for tests
func (l *Loader) WithEnv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// Load builds and validates the configuration
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	l.sources = append(l.sources[:0], "defaults")

	if l.path != "" {
		if err := l.loadFile(cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	file, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", l.path, err)
	}
	l.sources = append(l.sources, l.path)
	return nil
}

func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	if val := l.getenv("SHELDON_HOST"); val != "" {
		cfg.Host = val
	}
	if val := l.getenv("SHELDON_TIMEOUT"); val != "" {
		d, err := parseDuration(val)
		if err != nil {
			return fmt.Errorf("SHELDON_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	// Logging
	if val := l.getenv("SHELDON_LOG"); val != "" {
		cfg.Logging.Enabled = parseBool(val)
	}
	if val := l.getenv("SHELDON_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := l.getenv("SHELDON_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := l.getenv("SHELDON_LOG_OUTPUT"); val != "" {
		cfg.Logging.Output = val
		cfg.Logging.Enabled = true
	}

	if val := l.getenv("SHELDON_BREAKER_ENABLED"); val != "" {
		cfg.CircuitBreaker.Enabled = parseBool(val)
	}

	if val := l.getenv("SHELDON_METRICS_ENABLED"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := l.getenv("SHELDON_METRICS_NAMESPACE"); val != "" {
		cfg.Metrics.Namespace = val
	}

	if val := l.getenv("SHELDON_TRACING_ENABLED"); val != "" {
		cfg.Tracing.Enabled = parseBool(val)
	}
	return nil
}

// parseDuration accepts Go durations ("90s") and bare seconds ("3600")
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func parseBool(s string) bool {
	switch s {
	case "1", "yes", "on":
		return true
	}
	val, _ := strconv.ParseBool(s)
	return val
}

// Load reads configuration from the environment only
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFile reads configuration from path, overlaid with the environment
func LoadFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}
