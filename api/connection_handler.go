package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/permission"
)

func (a *API) registerConnectionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("connections"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Check access"),
		forge.WithDescription("Evaluates access requirements for a user, as a method or topic would."),
		forge.WithOperationID("check"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", &CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/connections", a.listConnections,
		forge.WithSummary("List connections"),
		forge.WithOperationID("listConnections"),
		forge.WithResponseSchema(http.StatusOK, "Live connections", []*ConnectionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/connections/:connId/refresh", a.refreshConnection,
		forge.WithSummary("Refresh connection"),
		forge.WithDescription("Re-resolves the connection's identity and rebuilds its state."),
		forge.WithOperationID("refreshConnection"),
		forge.WithResponseSchema(http.StatusOK, "Connection state", &ConnectionResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	who := rampart.Anonymous()
	if req.UserID != "" {
		userID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		if who, err = a.backend.IdentityOf(ctx.Context(), userID); err != nil {
			return nil, mapError(err)
		}
	}

	var reqs []rampart.Requirement
	if req.LoginRequired {
		reqs = append(reqs, rampart.LoginRequired())
	}
	if len(req.Permissions) > 0 {
		perms := make([]permission.Name, 0, len(req.Permissions))
		for _, p := range req.Permissions {
			perms = append(perms, permission.Name(p))
		}
		reqs = append(reqs, rampart.PermissionsRequired(perms...))
	}
	meta := rampart.NewMetadata(reqs...)

	result := a.eng.Check(who, &meta)
	resp := &CheckResponse{
		Allowed:  result.Allowed,
		Decision: string(result.Decision),
		Reason:   result.Reason,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listConnections(ctx forge.Context, _ *struct{}) ([]*ConnectionResponse, error) {
	conns := a.eng.Conns()
	out := make([]*ConnectionResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, connectionResponse(c))
	}
	slices.SortFunc(out, func(x, y *ConnectionResponse) int { return strings.Compare(x.ID, y.ID) })

	return out, ctx.JSON(http.StatusOK, out)
}

func (a *API) refreshConnection(ctx forge.Context, _ *GetConnectionRequest) (*ConnectionResponse, error) {
	c, ok := a.eng.Conn(ctx.Param("connId"))
	if !ok {
		return nil, forge.NotFound("connection not found")
	}
	if err := c.Refresh(ctx.Context()); err != nil {
		return nil, mapError(err)
	}

	resp := connectionResponse(c)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func connectionResponse(c *rampart.Conn) *ConnectionResponse {
	st := c.State()
	return &ConnectionResponse{
		ID:            c.ID(),
		UserID:        st.Identity.UserID(),
		Username:      st.Identity.Username(),
		Methods:       st.MethodNames(),
		Topics:        st.TopicNames(),
		Subscriptions: st.SubscriptionNames(),
	}
}
