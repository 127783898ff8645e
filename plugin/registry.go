package plugin

import (
	"context"
	"log/slog"
)

// Named entry types pair a hook with the plugin name for logging.

type connOpenedEntry struct {
	name string
	hook ConnOpened
}
type connClosedEntry struct {
	name string
	hook ConnClosed
}
type stateRebuiltEntry struct {
	name string
	hook StateRebuilt
}
type loginSucceededEntry struct {
	name string
	hook LoginSucceeded
}
type loginFailedEntry struct {
	name string
	hook LoginFailed
}
type loggedOutEntry struct {
	name string
	hook LoggedOut
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook. Register before the
// engine starts serving; emits are not synchronized with registration.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	connOpened     []connOpenedEntry
	connClosed     []connClosedEntry
	stateRebuilt   []stateRebuiltEntry
	loginSucceeded []loginSucceededEntry
	loginFailed    []loginFailedEntry
	loggedOut      []loggedOutEntry
	shutdown       []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(ConnOpened); ok {
		r.connOpened = append(r.connOpened, connOpenedEntry{name, h})
	}
	if h, ok := p.(ConnClosed); ok {
		r.connClosed = append(r.connClosed, connClosedEntry{name, h})
	}
	if h, ok := p.(StateRebuilt); ok {
		r.stateRebuilt = append(r.stateRebuilt, stateRebuiltEntry{name, h})
	}
	if h, ok := p.(LoginSucceeded); ok {
		r.loginSucceeded = append(r.loginSucceeded, loginSucceededEntry{name, h})
	}
	if h, ok := p.(LoginFailed); ok {
		r.loginFailed = append(r.loginFailed, loginFailedEntry{name, h})
	}
	if h, ok := p.(LoggedOut); ok {
		r.loggedOut = append(r.loggedOut, loggedOutEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// EmitConnOpened notifies all plugins that implement ConnOpened.
func (r *Registry) EmitConnOpened(ctx context.Context, connID string) {
	for _, e := range r.connOpened {
		if err := e.hook.OnConnOpened(ctx, connID); err != nil {
			r.logHookError("OnConnOpened", e.name, err)
		}
	}
}

// EmitConnClosed notifies all plugins that implement ConnClosed.
func (r *Registry) EmitConnClosed(ctx context.Context, connID string) {
	for _, e := range r.connClosed {
		if err := e.hook.OnConnClosed(ctx, connID); err != nil {
			r.logHookError("OnConnClosed", e.name, err)
		}
	}
}

// EmitStateRebuilt notifies all plugins that implement StateRebuilt.
func (r *Registry) EmitStateRebuilt(ctx context.Context, connID string, state any) {
	for _, e := range r.stateRebuilt {
		if err := e.hook.OnStateRebuilt(ctx, connID, state); err != nil {
			r.logHookError("OnStateRebuilt", e.name, err)
		}
	}
}

// EmitLoginSucceeded notifies all plugins that implement LoginSucceeded.
func (r *Registry) EmitLoginSucceeded(ctx context.Context, connID, username, userID string) {
	for _, e := range r.loginSucceeded {
		if err := e.hook.OnLoginSucceeded(ctx, connID, username, userID); err != nil {
			r.logHookError("OnLoginSucceeded", e.name, err)
		}
	}
}

// EmitLoginFailed notifies all plugins that implement LoginFailed.
func (r *Registry) EmitLoginFailed(ctx context.Context, connID, username string) {
	for _, e := range r.loginFailed {
		if err := e.hook.OnLoginFailed(ctx, connID, username); err != nil {
			r.logHookError("OnLoginFailed", e.name, err)
		}
	}
}

// EmitLoggedOut notifies all plugins that implement LoggedOut.
func (r *Registry) EmitLoggedOut(ctx context.Context, connID, userID string) {
	for _, e := range r.loggedOut {
		if err := e.hook.OnLoggedOut(ctx, connID, userID); err != nil {
			r.logHookError("OnLoggedOut", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
