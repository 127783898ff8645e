package rampart

import (
	"log/slog"

	"github.com/xraph/rampart/plugin"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithIdentityStore sets the store used to authenticate users and resolve
// sessions.
func WithIdentityStore(s IdentityStore) Option { return func(e *Engine) { e.identities = s } }

// WithRegistry sets the method and topic registry. It is sealed by
// NewEngine.
func WithRegistry(r *Registry) Option { return func(e *Engine) { e.registry = r } }

// WithEvaluator replaces the default access evaluator.
func WithEvaluator(ev Evaluator) Option { return func(e *Engine) { e.evaluator = ev } }

// WithDataDispatcher sets the adapter serving generic data methods and
// enables them.
func WithDataDispatcher(d DataDispatcher) Option {
	return func(e *Engine) {
		e.data = d
		e.config.GenericData = true
	}
}

// WithCache sets a cache for resolved identities.
func WithCache(c IdentityCache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option {
	return func(e *Engine) {
		generic := e.config.GenericData
		e.config = c
		e.config.GenericData = c.GenericData || generic
	}
}

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
