// Package config loads client configuration from defaults, an optional YAML file
// and SHELDON_* environment variables, in that order of priority.
package config

import (
	"strings"
	"time"

	"sheldon-client/pkg/utils"
)

// DefaultHost is used when neither a file nor the environment names a backend
const DefaultHost = "http://localhost:2311"

// DefaultTimeout is long enough for reindex calls on large nodes
const DefaultTimeout = 3600 * time.Second

// Config holds all client configuration
type Config struct {
	Host    string        `yaml:"host" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	Logging        Logging        `yaml:"logging"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker"`
	Metrics        Metrics        `yaml:"metrics"`
	Tracing        Tracing        `yaml:"tracing"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// Logging controls the per-request diagnostic log
type Logging struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"oneof=json console"`
	// Output is stdout, stderr or a file path
	Output string `yaml:"output" validate:"required"`
}

// CircuitBreaker settings. The breaker never retries; it only fails fast while
// the backend keeps answering with 5xx.
type CircuitBreaker struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests" validate:"gt=0"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests" validate:"gt=0"`
}

// Metrics settings for the prometheus collector
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required"`
}

// Tracing settings for client spans
type Tracing struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name" validate:"required"`
}

// Default returns a configuration that works against a local backend
func Default() *Config {
	return &Config{
		Host:    DefaultHost,
		Timeout: DefaultTimeout,
		Logging: Logging{
			Enabled: false,
			Level:   "info",
			Format:  "console",
			Output:  "stdout",
		},
		CircuitBreaker: CircuitBreaker{
			Enabled:          false,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
		Metrics: Metrics{
			Enabled:   false,
			Namespace: "sheldon_client",
		},
		Tracing: Tracing{
			Enabled:     false,
			ServiceName: "sheldon-client",
		},
	}
}

// Validate checks struct tags after normalizing the host
func (c *Config) Validate() error {
	c.Host = NormalizeHost(c.Host)
	return utils.ValidateStruct(c)
}

// NormalizeHost drops a trailing slash so paths can be appended verbatim
func NormalizeHost(host string) string {
	return strings.TrimRight(strings.TrimSpace(host), "/")
}
