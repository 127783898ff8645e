package user

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for users.
type Store interface {
	// CreateUser persists a new user. Usernames are unique.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID id.UserID) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUser persists changes to a user.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes a user together with its grants, memberships and
	// sessions.
	DeleteUser(ctx context.Context, userID id.UserID) error

	// ListUsers returns users matching the filter, ordered by username.
	ListUsers(ctx context.Context, filter *ListFilter) ([]*User, error)
}
