package session

import (
	"context"
	"time"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for sessions.
type Store interface {
	// CreateSession persists a new session.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by token. Expired sessions may still be
	// returned; callers check Expired.
	GetSession(ctx context.Context, token string) (*Session, error)

	// DeleteSession removes a session. Deleting an unknown token is not an
	// error.
	DeleteSession(ctx context.Context, token string) error

	// DeleteUserSessions removes every session of a user and returns how
	// many were removed.
	DeleteUserSessions(ctx context.Context, userID id.UserID) (int64, error)

	// PurgeExpiredSessions removes sessions that expired before the given
	// time.
	PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}
