// Package backend holds the registry of fetch strategies and the plugin
// discovery boundary through which optional strategies are loaded.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yoleg/proxytest/internal/request"
)

// Strategy is a pluggable implementation of "fetch this batch of proxies and
// test each". Process must call Start and then exactly one of Succeed/Fail
// on every record in the session before returning nil; returning an error
// aborts the whole batch.
type Strategy interface {
	Process(ctx context.Context, session *request.Session) error
}

// Func adapts a plain function to the Strategy interface.
type Func func(ctx context.Context, session *request.Session) error

func (f Func) Process(ctx context.Context, session *request.Session) error {
	return f(ctx, session)
}

// Registration errors. Registering a backend incorrectly is a plugin-author
// mistake and always fatal at registration time.
var (
	ErrEmptyName   = errors.New("backend: name must not be empty")
	ErrNilStrategy = errors.New("backend: strategy must not be nil")
)

// DuplicateError reports a name registered twice. The original registration
// wins; append-only means no overwrite for the registry's lifetime.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("backend: %q is already registered", e.Name)
}

// NotFoundError reports a lookup for an unregistered backend, listing what
// is available so the failure is actionable.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("backend: %q is not registered (no backends available)", e.Name)
	}
	return fmt.Sprintf("backend: %q is not registered (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Registry maps backend names to strategies. It is an explicit instance
// passed through construction rather than package-level state, so reset and
// test isolation are explicit.
type Registry struct {
	mu         sync.Mutex
	strategies map[string]Strategy
	suggested  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register binds a name to a strategy. Registration is append-only: a
// duplicate name fails and the original binding is kept.
func (r *Registry) Register(name string, strategy Strategy) error {
	if name == "" {
		return ErrEmptyName
	}
	if strategy == nil {
		return ErrNilStrategy
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[name]; exists {
		return &DuplicateError{Name: name}
	}
	r.strategies[name] = strategy
	return nil
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	strategy, ok := r.strategies[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Available: r.namesLocked()}
	}
	return strategy, nil
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.strategies)
}

// Suggested returns package names that would unlock additional backends,
// accumulated from plugins that reported missing optional dependencies.
func (r *Registry) Suggested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.suggested...)
}

// Reset clears all registrations and suggestions so discovery can run again
// without tripping over duplicate names.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = make(map[string]Strategy)
	r.suggested = nil
}

func (r *Registry) suggest(packages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggested = append(r.suggested, packages...)
	sort.Strings(r.suggested)
}
