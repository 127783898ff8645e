package extension

import (
	"log/slog"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/datamodel"
	"github.com/xraph/rampart/identity"
	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/store"
)

// ExtOption configures the rampart Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend. A store.Store registered in the
// DI container takes precedence when none is set.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.store = s
	}
}

// WithSessionStore keeps sessions outside the main store, e.g. in Redis.
func WithSessionStore(s session.Store) ExtOption {
	return func(e *Extension) {
		e.identityOpts = append(e.identityOpts, identity.WithSessionStore(s))
	}
}

// WithIdentityOptions adds identity backend options.
func WithIdentityOptions(opts ...identity.Option) ExtOption {
	return func(e *Extension) {
		e.identityOpts = append(e.identityOpts, opts...)
	}
}

// WithRegistry sets the method and topic registry.
func WithRegistry(r *rampart.Registry) ExtOption {
	return func(e *Extension) {
		e.registry = r
	}
}

// WithDataModels sets the models served by the generic data methods.
func WithDataModels(r *datamodel.Registry) ExtOption {
	return func(e *Extension) {
		e.models = r
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...rampart.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
