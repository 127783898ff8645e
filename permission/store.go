package permission

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for permissions and direct user
// grants.
type Store interface {
	// CreatePermission persists a new permission. Names are unique.
	CreatePermission(ctx context.Context, p *Permission) error

	// GetPermission retrieves a permission by ID.
	GetPermission(ctx context.Context, permID id.PermissionID) (*Permission, error)

	// GetPermissionByName retrieves a permission by its full name.
	GetPermissionByName(ctx context.Context, name Name) (*Permission, error)

	// DeletePermission removes a permission and every grant of it.
	DeletePermission(ctx context.Context, permID id.PermissionID) error

	// ListPermissions returns permissions matching the filter, ordered by name.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	// GrantUserPermission grants a permission directly to a user. Granting
	// twice is not an error.
	GrantUserPermission(ctx context.Context, userID id.UserID, permID id.PermissionID) error

	// RevokeUserPermission removes a direct grant.
	RevokeUserPermission(ctx context.Context, userID id.UserID, permID id.PermissionID) error

	// ListUserPermissions returns the permissions granted directly to a user.
	ListUserPermissions(ctx context.Context, userID id.UserID) ([]*Permission, error)

	// ListEffectivePermissions returns the union of a user's direct grants
	// and the permissions of every group the user belongs to.
	ListEffectivePermissions(ctx context.Context, userID id.UserID) ([]Name, error)
}
