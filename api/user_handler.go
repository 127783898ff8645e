package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/user"
)

func (a *API) registerUserRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("users"))

	if err := g.POST("/users", a.createUser,
		forge.WithSummary("Create user"),
		forge.WithDescription("Creates an active user with a hashed password."),
		forge.WithOperationID("createUser"),
		forge.WithRequestSchema(CreateUserRequest{}),
		forge.WithCreatedResponse(&user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId", a.getUser,
		forge.WithSummary("Get user"),
		forge.WithOperationID("getUser"),
		forge.WithResponseSchema(http.StatusOK, "User details", &user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/users/:userId", a.updateUser,
		forge.WithSummary("Update user"),
		forge.WithDescription("Updates flags or password. Live connections are re-resolved."),
		forge.WithOperationID("updateUser"),
		forge.WithRequestSchema(UpdateUserRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated user", &user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/users/:userId", a.deleteUser,
		forge.WithSummary("Delete user"),
		forge.WithDescription("Deletes a user with its grants, memberships and sessions."),
		forge.WithOperationID("deleteUser"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users", a.listUsers,
		forge.WithSummary("List users"),
		forge.WithOperationID("listUsers"),
		forge.WithRequestSchema(ListUsersRequest{}),
		forge.WithResponseSchema(http.StatusOK, "User list", []*user.User{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/permissions", a.listUserPermissions,
		forge.WithSummary("List effective permissions"),
		forge.WithDescription("Returns the union of direct grants and group permissions."),
		forge.WithOperationID("listUserPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Permission names", []permission.Name{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/users/:userId/permissions", a.grantUserPermission,
		forge.WithSummary("Grant permission"),
		forge.WithOperationID("grantUserPermission"),
		forge.WithRequestSchema(GrantPermissionRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/users/:userId/permissions/:permissionId", a.revokeUserPermission,
		forge.WithSummary("Revoke permission"),
		forge.WithOperationID("revokeUserPermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/users/:userId/sessions", a.revokeUserSessions,
		forge.WithSummary("Revoke sessions"),
		forge.WithDescription("Deletes every session of the user; live connections fall back to Anonymous."),
		forge.WithOperationID("revokeUserSessions"),
		forge.WithResponseSchema(http.StatusOK, "Revoked count", &RevokeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createUser(ctx forge.Context, req *CreateUserRequest) (*user.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, forge.BadRequest("username and password are required")
	}

	u, err := a.backend.CreateUser(ctx.Context(), req.Username, req.Password, req.IsSuperuser)
	if err != nil {
		return nil, mapError(err)
	}

	return u, ctx.JSON(http.StatusCreated, u)
}

func (a *API) getUser(ctx forge.Context, _ *GetUserRequest) (*user.User, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}

	u, err := a.store().GetUser(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(err)
	}

	return u, ctx.JSON(http.StatusOK, u)
}

func (a *API) updateUser(ctx forge.Context, req *UpdateUserRequest) (*user.User, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}

	if req.Password != "" {
		if err := a.backend.SetPassword(ctx.Context(), userID, req.Password); err != nil {
			return nil, mapError(err)
		}
	}

	u, err := a.store().GetUser(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(err)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		u.IsSuperuser = *req.IsSuperuser
	}
	if req.IsActive != nil || req.IsSuperuser != nil {
		if err := a.store().UpdateUser(ctx.Context(), u); err != nil {
			return nil, mapError(err)
		}
		a.invalidateUser(ctx.Context(), userID)
	}

	return u, ctx.JSON(http.StatusOK, u)
}

func (a *API) deleteUser(ctx forge.Context, _ *GetUserRequest) (*struct{}, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}

	if err := a.store().DeleteUser(ctx.Context(), userID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateUser(ctx.Context(), userID)

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listUsers(ctx forge.Context, req *ListUsersRequest) ([]*user.User, error) {
	active, err := parseBool(req.Active, "active")
	if err != nil {
		return nil, err
	}
	superuser, err := parseBool(req.Superuser, "superuser")
	if err != nil {
		return nil, err
	}

	users, err := a.store().ListUsers(ctx.Context(), &user.ListFilter{
		IsActive:    active,
		IsSuperuser: superuser,
		Search:      req.Search,
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return users, ctx.JSON(http.StatusOK, users)
}

func (a *API) listUserPermissions(ctx forge.Context, _ *GetUserRequest) ([]permission.Name, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}

	who, err := a.backend.IdentityOf(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(err)
	}
	perms := who.Permissions()

	return perms, ctx.JSON(http.StatusOK, perms)
}

func (a *API) grantUserPermission(ctx forge.Context, req *GrantPermissionRequest) (*struct{}, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}
	permID, err := parsePermissionID(req.PermissionID)
	if err != nil {
		return nil, err
	}

	if err := a.store().GrantUserPermission(ctx.Context(), userID, permID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateUser(ctx.Context(), userID)

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) revokeUserPermission(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}
	permID, err := parsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return nil, err
	}

	if err := a.store().RevokeUserPermission(ctx.Context(), userID, permID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateUser(ctx.Context(), userID)

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) revokeUserSessions(ctx forge.Context, _ *GetUserRequest) (*RevokeResponse, error) {
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}

	n, err := a.backend.RevokeUserSessions(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(err)
	}
	a.invalidateUser(ctx.Context(), userID)

	resp := &RevokeResponse{Revoked: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}
