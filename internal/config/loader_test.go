package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load([]string{"1.2.3.4:8080"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Proxies; len(got) != 1 || got[0] != "1.2.3.4:8080" {
		t.Fatalf("Proxies = %v", got)
	}
	if cfg.TargetURL != DefaultTargetURL {
		t.Fatalf("TargetURL = %q, want default", cfg.TargetURL)
	}
	if cfg.Backend != DefaultBackend {
		t.Fatalf("Backend = %q, want default", cfg.Backend)
	}
	if cfg.Number != 1 {
		t.Fatalf("Number = %d, want 1", cfg.Number)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Fatalf("Timeout = %v, want default", cfg.Timeout)
	}
	if cfg.Format != DefaultFormat {
		t.Fatalf("Format = %q, want default", cfg.Format)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Fatalf("Tracing.Protocol = %q, want grpc", cfg.Tracing.Protocol)
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := NewLoader().Load([]string{
		"--url", "http://httpbin.org/ip",
		"--backend", "websocket",
		"--number", "3",
		"--workers", "4",
		"--timeout", "5s",
		"--repeat", "30s",
		"--print",
		"--agent", "test-agent/1.0",
		"--json",
		"none",
		"1.2.3.4:8080-8082",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetURL != "http://httpbin.org/ip" {
		t.Fatalf("TargetURL = %q", cfg.TargetURL)
	}
	if cfg.Backend != "websocket" {
		t.Fatalf("Backend = %q", cfg.Backend)
	}
	if cfg.Number != 3 || cfg.Workers != 4 {
		t.Fatalf("Number/Workers = %d/%d", cfg.Number, cfg.Workers)
	}
	if cfg.Timeout != 5*time.Second || cfg.Repeat != 30*time.Second {
		t.Fatalf("Timeout/Repeat = %v/%v", cfg.Timeout, cfg.Repeat)
	}
	if !cfg.Print || !cfg.JSONOutput {
		t.Fatal("Print and JSONOutput should be set")
	}
	if cfg.UserAgent != "test-agent/1.0" {
		t.Fatalf("UserAgent = %q", cfg.UserAgent)
	}
	if want := []string{"none", "1.2.3.4:8080-8082"}; len(cfg.Proxies) != 2 || cfg.Proxies[0] != want[0] || cfg.Proxies[1] != want[1] {
		t.Fatalf("Proxies = %v, want %v", cfg.Proxies, want)
	}
}

func TestLoadShorthandFlags(t *testing.T) {
	cfg, err := NewLoader().Load([]string{"-u", "http://example.org/", "-n", "2", "-j", "8", "1.2.3.4"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetURL != "http://example.org/" || cfg.Number != 2 || cfg.Workers != 8 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadHelp(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}, nil} {
		if _, err := NewLoader().Load(args); !errors.Is(err, ErrHelpRequested) {
			t.Fatalf("Load(%v) error = %v, want ErrHelpRequested", args, err)
		}
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := NewLoader().Load([]string{"--nope", "1.2.3.4"})
	if err == nil || errors.Is(err, ErrHelpRequested) {
		t.Fatalf("unknown flag should be an error, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxytest.yaml")
	content := []byte(`proxies:
  - 1.2.3.4:8080
url: http://httpbin.org/ip
backend: dummy
number: 5
workers: 2
timeout: 10s
quiet: true
tracing:
  enabled: true
  endpoint: localhost:4317
  protocol: grpc
  service_name: proxytest-ci
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Proxies) != 1 || cfg.Proxies[0] != "1.2.3.4:8080" {
		t.Fatalf("Proxies = %v", cfg.Proxies)
	}
	if cfg.TargetURL != "http://httpbin.org/ip" || cfg.Backend != "dummy" {
		t.Fatalf("TargetURL/Backend = %q/%q", cfg.TargetURL, cfg.Backend)
	}
	if cfg.Number != 5 || cfg.Workers != 2 || cfg.Timeout != 10*time.Second {
		t.Fatalf("Number/Workers/Timeout = %d/%d/%v", cfg.Number, cfg.Workers, cfg.Timeout)
	}
	if !cfg.Quiet {
		t.Fatal("Quiet should come from the config file")
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.ServiceName != "proxytest-ci" {
		t.Fatalf("Tracing = %+v", cfg.Tracing)
	}
}

func TestLoadFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxytest.yaml")
	content := []byte(`proxies:
  - 1.2.3.4:8080
number: 5
backend: dummy
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewLoader().Load([]string{"--config", path, "--number", "9", "5.6.7.8:3128"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Number != 9 {
		t.Fatalf("Number = %d, flag should override file", cfg.Number)
	}
	if cfg.Backend != "dummy" {
		t.Fatalf("Backend = %q, unset flag should keep file value", cfg.Backend)
	}
	if len(cfg.Proxies) != 1 || cfg.Proxies[0] != "5.6.7.8:3128" {
		t.Fatalf("Proxies = %v, positional args should override file", cfg.Proxies)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Fatal("missing config file should be an error")
	}
}
