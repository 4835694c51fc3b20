package backend

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Unavailability signals a plugin may report from its Load function. Both
// are expected conditions, not errors in the plugin itself.
var (
	// ErrNotSupported means the backend cannot run on this platform or
	// build. The plugin is skipped silently (logged at debug level).
	ErrNotSupported = errors.New("backend: not supported here")
)

// MissingDependencyError means a backend needs optional packages that are
// not linked into this build. The plugin is skipped and the package names
// are surfaced to the user as installation suggestions.
type MissingDependencyError struct {
	Packages []string
}

func (e *MissingDependencyError) Error() string {
	pkgs := append([]string(nil), e.Packages...)
	sort.Strings(pkgs)
	return fmt.Sprintf("backend: missing packages: %v", pkgs)
}

// Plugin is one discoverable strategy source. Load registers the plugin's
// strategies on the given registry, or reports unavailability via
// ErrNotSupported or a *MissingDependencyError.
type Plugin struct {
	Name string
	Load func(*Registry) error
}

// Discover loads each plugin in order. Unsupported plugins and plugins with
// missing optional dependencies are skipped; any other load failure is a
// malformed plugin and propagates immediately. Call Reset first to make
// discovery repeatable.
func (r *Registry) Discover(plugins []Plugin, log zerolog.Logger) error {
	for _, plugin := range plugins {
		if plugin.Load == nil {
			return fmt.Errorf("backend: plugin %q has no load function", plugin.Name)
		}
		err := plugin.Load(r)
		if err == nil {
			continue
		}
		var missing *MissingDependencyError
		switch {
		case errors.As(err, &missing):
			log.Debug().Str("plugin", plugin.Name).Strs("packages", missing.Packages).Msg("backend needs missing packages")
			r.suggest(missing.Packages)
		case errors.Is(err, ErrNotSupported):
			log.Debug().Str("plugin", plugin.Name).Msg("backend not supported here")
		default:
			return fmt.Errorf("backend: loading plugin %q: %w", plugin.Name, err)
		}
	}
	return nil
}
