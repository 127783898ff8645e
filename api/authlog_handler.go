package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/authlog"
)

func (a *API) registerAuthLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("auth-logs"))

	return g.GET("/auth-logs", a.listAuthLogs,
		forge.WithSummary("Query auth logs"),
		forge.WithDescription("Returns login and logout events, newest first."),
		forge.WithOperationID("listAuthLogs"),
		forge.WithRequestSchema(ListAuthLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Auth log list", []*authlog.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAuthLogs(ctx forge.Context, req *ListAuthLogsRequest) ([]*authlog.Entry, error) {
	filter := &authlog.QueryFilter{
		Username: req.Username,
		UserID:   req.UserID,
		Outcome:  authlog.Outcome(req.Outcome),
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	var err error
	if filter.After, err = parseTime(req.After, "after"); err != nil {
		return nil, err
	}
	if filter.Before, err = parseTime(req.Before, "before"); err != nil {
		return nil, err
	}

	logs, err := a.store().ListAuthLogs(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return logs, ctx.JSON(http.StatusOK, logs)
}
