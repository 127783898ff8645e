package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
)

func (a *API) registerGroupRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("groups"))

	if err := g.POST("/groups", a.createGroup,
		forge.WithSummary("Create group"),
		forge.WithOperationID("createGroup"),
		forge.WithRequestSchema(CreateGroupRequest{}),
		forge.WithCreatedResponse(&group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/groups/:groupId", a.getGroup,
		forge.WithSummary("Get group"),
		forge.WithOperationID("getGroup"),
		forge.WithResponseSchema(http.StatusOK, "Group details", &group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/groups/:groupId", a.deleteGroup,
		forge.WithSummary("Delete group"),
		forge.WithDescription("Deletes a group with its permission links and memberships."),
		forge.WithOperationID("deleteGroup"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/groups", a.listGroups,
		forge.WithSummary("List groups"),
		forge.WithOperationID("listGroups"),
		forge.WithRequestSchema(ListGroupsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Group list", []*group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/groups/:groupId/permissions", a.listGroupPermissions,
		forge.WithSummary("List group permissions"),
		forge.WithOperationID("listGroupPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Permission IDs", []id.PermissionID{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/groups/:groupId/permissions", a.attachPermission,
		forge.WithSummary("Attach permission"),
		forge.WithOperationID("attachGroupPermission"),
		forge.WithRequestSchema(AttachPermissionRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/groups/:groupId/permissions/:permissionId", a.detachPermission,
		forge.WithSummary("Detach permission"),
		forge.WithOperationID("detachGroupPermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/groups/:groupId/members", a.addMember,
		forge.WithSummary("Add member"),
		forge.WithOperationID("addGroupMember"),
		forge.WithRequestSchema(AddMemberRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/groups/:groupId/members/:userId", a.removeMember,
		forge.WithSummary("Remove member"),
		forge.WithOperationID("removeGroupMember"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGroup(ctx forge.Context, req *CreateGroupRequest) (*group.Group, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	now := time.Now()
	g := &group.Group{
		ID:          id.NewGroupID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.store().CreateGroup(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) getGroup(ctx forge.Context, _ *GetGroupRequest) (*group.Group, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}

	g, err := a.store().GetGroup(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) deleteGroup(ctx forge.Context, _ *GetGroupRequest) (*struct{}, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}

	if err := a.store().DeleteGroup(ctx.Context(), groupID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateAll(ctx.Context())

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listGroups(ctx forge.Context, req *ListGroupsRequest) ([]*group.Group, error) {
	groups, err := a.store().ListGroups(ctx.Context(), &group.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return groups, ctx.JSON(http.StatusOK, groups)
}

func (a *API) listGroupPermissions(ctx forge.Context, _ *GetGroupRequest) ([]id.PermissionID, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}

	ids, err := a.store().ListGroupPermissions(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return ids, ctx.JSON(http.StatusOK, ids)
}

func (a *API) attachPermission(ctx forge.Context, req *AttachPermissionRequest) (*struct{}, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}
	permID, err := parsePermissionID(req.PermissionID)
	if err != nil {
		return nil, err
	}

	if err := a.store().AttachPermission(ctx.Context(), groupID, permID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateAll(ctx.Context())

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) detachPermission(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}
	permID, err := parsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return nil, err
	}

	if err := a.store().DetachPermission(ctx.Context(), groupID, permID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateAll(ctx.Context())

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) addMember(ctx forge.Context, req *AddMemberRequest) (*struct{}, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return nil, err
	}

	if err := a.store().AddMember(ctx.Context(), groupID, userID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateUser(ctx.Context(), userID)

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) removeMember(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	groupID, err := parseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, err
	}
	userID, err := parseUserID(ctx.Param("userId"))
	if err != nil {
		return nil, err
	}

	if err := a.store().RemoveMember(ctx.Context(), groupID, userID); err != nil {
		return nil, mapError(err)
	}
	a.invalidateUser(ctx.Context(), userID)

	return nil, ctx.NoContent(http.StatusNoContent)
}
