// Package plugin defines the plugin system for rampart.
// Plugins are notified of connection lifecycle events (connection opened,
// state rebuilt, login, logout) and can react with logging, metrics or
// auditing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import "context"

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Connection lifecycle hooks
// ──────────────────────────────────────────────────

// ConnOpened is called after a connection has been registered and its
// first state built.
type ConnOpened interface {
	OnConnOpened(ctx context.Context, connID string) error
}

// ConnClosed is called after a connection has been forgotten.
type ConnClosed interface {
	OnConnClosed(ctx context.Context, connID string) error
}

// StateRebuilt is called after a connection state has been replaced.
// The state parameter is *rampart.ConnState (passed as any to avoid an
// import cycle).
type StateRebuilt interface {
	OnStateRebuilt(ctx context.Context, connID string, state any) error
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// LoginSucceeded is called after a login created a session.
type LoginSucceeded interface {
	OnLoginSucceeded(ctx context.Context, connID, username, userID string) error
}

// LoginFailed is called when credentials were rejected.
type LoginFailed interface {
	OnLoginFailed(ctx context.Context, connID, username string) error
}

// LoggedOut is called after a connection logged out.
type LoggedOut interface {
	OnLoggedOut(ctx context.Context, connID, userID string) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
