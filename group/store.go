package group

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for groups, their permissions and
// their members.
type Store interface {
	// CreateGroup persists a new group. Names are unique.
	CreateGroup(ctx context.Context, g *Group) error

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID id.GroupID) (*Group, error)

	// GetGroupByName retrieves a group by name.
	GetGroupByName(ctx context.Context, name string) (*Group, error)

	// DeleteGroup removes a group with its permission links and memberships.
	DeleteGroup(ctx context.Context, groupID id.GroupID) error

	// ListGroups returns groups matching the filter, ordered by name.
	ListGroups(ctx context.Context, filter *ListFilter) ([]*Group, error)

	// AttachPermission links a permission to a group.
	AttachPermission(ctx context.Context, groupID id.GroupID, permID id.PermissionID) error

	// DetachPermission removes a permission from a group.
	DetachPermission(ctx context.Context, groupID id.GroupID, permID id.PermissionID) error

	// ListGroupPermissions returns permission IDs attached to a group.
	ListGroupPermissions(ctx context.Context, groupID id.GroupID) ([]id.PermissionID, error)

	// AddMember puts a user in a group.
	AddMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error

	// RemoveMember takes a user out of a group.
	RemoveMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error

	// ListUserGroups returns the IDs of the groups a user belongs to.
	ListUserGroups(ctx context.Context, userID id.UserID) ([]id.GroupID, error)
}
