package backend_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/request"
)

func noopStrategy(tag string) backend.Strategy {
	return backend.Func(func(ctx context.Context, session *request.Session) error {
		_ = tag
		return nil
	})
}

func TestRegisterThenLookup(t *testing.T) {
	reg := backend.NewRegistry()
	strategy := noopStrategy("a")
	if err := reg.Register("alpha", strategy); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := reg.Lookup("alpha")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got == nil {
		t.Fatal("Lookup returned nil strategy")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	reg := backend.NewRegistry()
	if err := reg.Register("", noopStrategy("a")); !errors.Is(err, backend.ErrEmptyName) {
		t.Fatalf("empty name: got %v, want ErrEmptyName", err)
	}
	if err := reg.Register("alpha", nil); !errors.Is(err, backend.ErrNilStrategy) {
		t.Fatalf("nil strategy: got %v, want ErrNilStrategy", err)
	}
}

func TestDuplicateRegistrationKeepsOriginal(t *testing.T) {
	reg := backend.NewRegistry()
	marker := ""
	original := backend.Func(func(ctx context.Context, session *request.Session) error {
		marker = "original"
		return nil
	})
	replacement := backend.Func(func(ctx context.Context, session *request.Session) error {
		marker = "replacement"
		return nil
	})

	if err := reg.Register("alpha", original); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := reg.Register("alpha", replacement)
	var dup *backend.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want *DuplicateError", err)
	}
	if dup.Name != "alpha" {
		t.Fatalf("duplicate name = %q", dup.Name)
	}

	strategy, err := reg.Lookup("alpha")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := strategy.Process(context.Background(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if marker != "original" {
		t.Fatalf("lookup returned %s strategy, want original", marker)
	}
}

func TestLookupNotFoundListsAvailable(t *testing.T) {
	reg := backend.NewRegistry()
	if err := reg.Register("alpha", noopStrategy("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("beta", noopStrategy("b")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := reg.Lookup("gamma")
	var notFound *backend.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want *NotFoundError", err)
	}
	if notFound.Name != "gamma" {
		t.Fatalf("name = %q", notFound.Name)
	}
	if len(notFound.Available) != 2 || notFound.Available[0] != "alpha" || notFound.Available[1] != "beta" {
		t.Fatalf("available = %v", notFound.Available)
	}
	if !strings.Contains(err.Error(), "alpha, beta") {
		t.Fatalf("error %q should list available backends", err)
	}
}

func TestLookupWithEmptyRegistry(t *testing.T) {
	reg := backend.NewRegistry()
	_, err := reg.Lookup("anything")
	var notFound *backend.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want *NotFoundError", err)
	}
	if len(notFound.Available) != 0 {
		t.Fatalf("available = %v, want none", notFound.Available)
	}
	if !strings.Contains(err.Error(), "no backends available") {
		t.Fatalf("error %q should say no backends are available", err)
	}
}

func TestResetClearsState(t *testing.T) {
	reg := backend.NewRegistry()
	if err := reg.Register("alpha", noopStrategy("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	reg.Reset()
	if reg.Len() != 0 {
		t.Fatalf("Len after Reset = %d", reg.Len())
	}
	// Re-registering the same name must work after a reset.
	if err := reg.Register("alpha", noopStrategy("a")); err != nil {
		t.Fatalf("Register after Reset: %v", err)
	}
}
