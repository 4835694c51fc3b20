package backend_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yoleg/proxytest/internal/backend"
)

func TestDiscoverRegistersPlugins(t *testing.T) {
	reg := backend.NewRegistry()
	plugins := []backend.Plugin{
		{Name: "alpha", Load: func(r *backend.Registry) error { return r.Register("alpha", noopStrategy("a")) }},
		{Name: "beta", Load: func(r *backend.Registry) error { return r.Register("beta", noopStrategy("b")) }},
	}
	if err := reg.Discover(plugins, zerolog.Nop()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("names = %v", names)
	}
}

func TestDiscoverSkipsUnsupported(t *testing.T) {
	reg := backend.NewRegistry()
	plugins := []backend.Plugin{
		{Name: "exotic", Load: func(r *backend.Registry) error { return backend.ErrNotSupported }},
		{Name: "alpha", Load: func(r *backend.Registry) error { return r.Register("alpha", noopStrategy("a")) }},
	}
	if err := reg.Discover(plugins, zerolog.Nop()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	if len(reg.Suggested()) != 0 {
		t.Fatalf("suggested = %v, want none", reg.Suggested())
	}
}

func TestDiscoverAccumulatesSuggestions(t *testing.T) {
	reg := backend.NewRegistry()
	plugins := []backend.Plugin{
		{Name: "fancy", Load: func(r *backend.Registry) error {
			return &backend.MissingDependencyError{Packages: []string{"fancy-fetch"}}
		}},
		{Name: "fancier", Load: func(r *backend.Registry) error {
			return &backend.MissingDependencyError{Packages: []string{"other-fetch", "another-fetch"}}
		}},
	}
	if err := reg.Discover(plugins, zerolog.Nop()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	suggested := reg.Suggested()
	if len(suggested) != 3 {
		t.Fatalf("suggested = %v, want 3 entries", suggested)
	}
	// Sorted for stable user output.
	want := []string{"another-fetch", "fancy-fetch", "other-fetch"}
	for i := range want {
		if suggested[i] != want[i] {
			t.Fatalf("suggested = %v, want %v", suggested, want)
		}
	}
}

func TestDiscoverPropagatesHardFailures(t *testing.T) {
	reg := backend.NewRegistry()
	bad := errors.New("corrupt plugin")
	plugins := []backend.Plugin{
		{Name: "broken", Load: func(r *backend.Registry) error { return bad }},
	}
	err := reg.Discover(plugins, zerolog.Nop())
	if !errors.Is(err, bad) {
		t.Fatalf("got %v, want wrapped %v", err, bad)
	}
}

func TestDiscoverRejectsMissingLoadFunc(t *testing.T) {
	reg := backend.NewRegistry()
	if err := reg.Discover([]backend.Plugin{{Name: "hollow"}}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for plugin without load function")
	}
}

func TestDiscoverRepeatableAfterReset(t *testing.T) {
	reg := backend.NewRegistry()
	plugins := []backend.Plugin{
		{Name: "alpha", Load: func(r *backend.Registry) error { return r.Register("alpha", noopStrategy("a")) }},
		{Name: "fancy", Load: func(r *backend.Registry) error {
			return &backend.MissingDependencyError{Packages: []string{"fancy-fetch"}}
		}},
	}
	if err := reg.Discover(plugins, zerolog.Nop()); err != nil {
		t.Fatalf("first Discover: %v", err)
	}
	reg.Reset()
	if err := reg.Discover(plugins, zerolog.Nop()); err != nil {
		t.Fatalf("second Discover: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	if got := reg.Suggested(); len(got) != 1 {
		t.Fatalf("suggested = %v, want exactly one entry (no duplicates)", got)
	}
}
