package api

// ──────────────────────────────────────────────────
// User requests
// ──────────────────────────────────────────────────

// CreateUserRequest is the body for creating a user.
type CreateUserRequest struct {
	Username    string `json:"username" description:"Login name"`
	Password    string `json:"password" description:"Initial password"`
	IsSuperuser bool   `json:"is_superuser,omitempty" description:"Grant every permission"`
}

// UpdateUserRequest is the body for updating a user.
type UpdateUserRequest struct {
	IsActive    *bool  `json:"is_active,omitempty" description:"Allow the user to log in"`
	IsSuperuser *bool  `json:"is_superuser,omitempty" description:"Grant every permission"`
	Password    string `json:"password,omitempty" description:"New password"`
}

// GetUserRequest is the path parameter for getting a user.
type GetUserRequest struct {
	UserID string `path:"userId" description:"User ID"`
}

// ListUsersRequest holds query parameters for listing users.
type ListUsersRequest struct {
	Search    string `query:"search" description:"Search by username"`
	Active    string `query:"active" description:"Filter by active status (true/false)"`
	Superuser string `query:"superuser" description:"Filter by superuser status (true/false)"`
	Limit     int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset    int    `query:"offset" description:"Results to skip"`
}

// GrantPermissionRequest is the body for granting a permission to a user.
type GrantPermissionRequest struct {
	PermissionID string `json:"permission_id" description:"Permission ID to grant"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// CreatePermissionRequest is the body for creating a permission.
type CreatePermissionRequest struct {
	Name        string `json:"name" description:"Permission name (e.g. shop.view_item)"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
}

// GetPermissionRequest is the path parameter for getting a permission.
type GetPermissionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Namespace string `query:"namespace" description:"Filter by namespace"`
	Action    string `query:"action" description:"Filter by action (view, add, change, delete)"`
	Search    string `query:"search" description:"Search by name"`
	Limit     int    `query:"limit" description:"Maximum results"`
	Offset    int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Group requests
// ──────────────────────────────────────────────────

// CreateGroupRequest is the body for creating a group.
type CreateGroupRequest struct {
	Name        string `json:"name" description:"Group name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
}

// GetGroupRequest is the path parameter for getting a group.
type GetGroupRequest struct {
	GroupID string `path:"groupId" description:"Group ID"`
}

// ListGroupsRequest holds query parameters for listing groups.
type ListGroupsRequest struct {
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// AttachPermissionRequest is the body for attaching a permission to a group.
type AttachPermissionRequest struct {
	PermissionID string `json:"permission_id" description:"Permission ID to attach"`
}

// AddMemberRequest is the body for adding a user to a group.
type AddMemberRequest struct {
	UserID string `json:"user_id" description:"User ID to add"`
}

// ──────────────────────────────────────────────────
// Auth log requests
// ──────────────────────────────────────────────────

// ListAuthLogsRequest holds query parameters for the auth log.
type ListAuthLogsRequest struct {
	Username string `query:"username" description:"Filter by username"`
	UserID   string `query:"user_id" description:"Filter by user ID"`
	Outcome  string `query:"outcome" description:"Filter by outcome"`
	After    string `query:"after" description:"Entries after (RFC3339)"`
	Before   string `query:"before" description:"Entries before (RFC3339)"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Check and connection requests
// ──────────────────────────────────────────────────

// CheckRequest asks whether a user would pass a set of requirements.
type CheckRequest struct {
	UserID        string   `json:"user_id,omitempty" description:"User ID; empty checks Anonymous"`
	LoginRequired bool     `json:"login_required,omitempty" description:"Require an active, authenticated identity"`
	Permissions   []string `json:"permissions,omitempty" description:"Permissions that must all be held"`
}

// GetConnectionRequest is the path parameter for a live connection.
type GetConnectionRequest struct {
	ConnID string `path:"connId" description:"Connection ID"`
}
