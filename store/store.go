// Package store defines the aggregate persistence interface. Each entity
// package (user, permission, group, session, authlog) declares its own store
// interface and a single backend implements all of them.
// Backends: Memory, SQLite, Postgres and MongoDB.
package store

import (
	"context"

	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/user"
)

// Store is the aggregate persistence interface.
type Store interface {
	user.Store
	permission.Store
	group.Store
	session.Store
	authlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
