package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.POST("/permissions", a.createPermission,
		forge.WithSummary("Create permission"),
		forge.WithDescription("Creates a new permission named <namespace>.<codename>."),
		forge.WithOperationID("createPermission"),
		forge.WithRequestSchema(CreatePermissionRequest{}),
		forge.WithCreatedResponse(&permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permissions/:permissionId", a.getPermission,
		forge.WithSummary("Get permission"),
		forge.WithOperationID("getPermission"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/permissions/:permissionId", a.deletePermission,
		forge.WithSummary("Delete permission"),
		forge.WithDescription("Deletes a permission and every grant of it."),
		forge.WithOperationID("deletePermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/permissions", a.listPermissions,
		forge.WithSummary("List permissions"),
		forge.WithOperationID("listPermissions"),
		forge.WithRequestSchema(ListPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission list", []*permission.Permission{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createPermission(ctx forge.Context, req *CreatePermissionRequest) (*permission.Permission, error) {
	name, err := permission.Parse(req.Name)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid permission name: %v", err))
	}

	now := time.Now()
	p := &permission.Permission{
		ID:          id.NewPermissionID(),
		Name:        name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.store().CreatePermission(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}
	// Superusers hold every permission, including new ones.
	a.invalidateAll(ctx.Context())

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) getPermission(ctx forge.Context, _ *GetPermissionRequest) (*permission.Permission, error) {
	permID, err := parsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return nil, err
	}

	p, err := a.store().GetPermission(ctx.Context(), permID)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) deletePermission(ctx forge.Context, _ *GetPermissionRequest) (*struct{}, error) {
	permID, err := parsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return nil, err
	}

	if err := a.store().DeletePermission(ctx.Context(), permID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateAll(ctx.Context())

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listPermissions(ctx forge.Context, req *ListPermissionsRequest) ([]*permission.Permission, error) {
	filter := &permission.ListFilter{
		Namespace: req.Namespace,
		Action:    permission.Action(req.Action),
		Search:    req.Search,
		Limit:     defaultLimit(req.Limit),
		Offset:    req.Offset,
	}

	perms, err := a.store().ListPermissions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return perms, ctx.JSON(http.StatusOK, perms)
}
