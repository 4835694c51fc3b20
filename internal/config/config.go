// Package config defines the tool's configuration and its loading from
// config files and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied when neither the config file nor flags say otherwise.
const (
	DefaultTargetURL = "http://example.com/"
	DefaultBackend   = "http"
	DefaultTimeout   = 2 * time.Second
	DefaultFormat    = `Content from {{log_key}}: "{{result_flat}}"`
)

// Config holds everything the CLI parses before the core runs. Proxies are
// still in shorthand form here; expansion happens in cmd.
type Config struct {
	Proxies    []string      `mapstructure:"proxies"`
	TargetURL  string        `mapstructure:"url"`
	UserAgent  string        `mapstructure:"agent"`
	Backend    string        `mapstructure:"backend"`
	Number     int           `mapstructure:"number"`
	Workers    int           `mapstructure:"workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Repeat     time.Duration `mapstructure:"repeat"`
	Print      bool          `mapstructure:"print"`
	Format     string        `mapstructure:"format"`
	JSONOutput bool          `mapstructure:"json_output"`
	Quiet      bool          `mapstructure:"quiet"`
	Verbose    bool          `mapstructure:"verbose"`
	Debug      bool          `mapstructure:"debug"`
	ConfigFile string        `mapstructure:"-"`
	Tracing    TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures the optional OpenTelemetry exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	Protocol    string `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// ValidationError aggregates all configuration problems found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate rejects invalid option combinations before anything reaches the
// core. Negative worker counts are rejected here; zero means unbounded.
func (c Config) Validate() error {
	var issues []string

	if len(c.Proxies) == 0 {
		issues = append(issues, "at least one proxy is required (use \"none\" to test without a proxy)")
	}
	for idx, proxy := range c.Proxies {
		if strings.TrimSpace(proxy) == "" {
			issues = append(issues, fmt.Sprintf("proxies[%d]: must not be empty", idx))
		}
	}
	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "url is required")
	}
	if strings.TrimSpace(c.Backend) == "" {
		issues = append(issues, "backend is required")
	}
	if c.Number < 1 {
		issues = append(issues, "number must be >= 1")
	}
	if c.Workers < 0 {
		issues = append(issues, "workers must be >= 0 (0 means unlimited)")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Repeat < 0 {
		issues = append(issues, "repeat must be >= 0")
	}
	if c.Print && strings.TrimSpace(c.Format) == "" {
		issues = append(issues, "format must not be empty when print is enabled")
	}
	if c.Tracing.Protocol != "" && c.Tracing.Protocol != "grpc" && c.Tracing.Protocol != "http" {
		issues = append(issues, fmt.Sprintf("tracing protocol must be 'grpc' or 'http', got %q", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
