// Package api provides the admin HTTP API for rampart: users, permissions,
// groups, sessions, the auth log and live connections.
//
// Every change that can alter what a user may do re-resolves that user's
// live connections, so revocations take effect without a reconnect.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/identity"
	"github.com/xraph/rampart/store"
)

// API wires all rampart HTTP handlers together.
type API struct {
	eng     *rampart.Engine
	backend *identity.Backend
	router  forge.Router
}

// New creates an API from an Engine, the identity backend it was built
// with and a Forge router.
func New(eng *rampart.Engine, backend *identity.Backend, router forge.Router) *API {
	return &API{eng: eng, backend: backend, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("rampart: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerUserRoutes,
		a.registerPermissionRoutes,
		a.registerGroupRoutes,
		a.registerAuthLogRoutes,
		a.registerConnectionRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}

func (a *API) store() store.Store { return a.backend.Store() }

// invalidateUser refreshes the user's live connections. The change is
// already committed, so a failed refresh is only logged.
func (a *API) invalidateUser(ctx context.Context, userID id.UserID) {
	if err := a.eng.InvalidateUser(ctx, userID.String()); err != nil {
		a.eng.Logger().Warn("api: refresh user connections",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (a *API) invalidateAll(ctx context.Context) {
	if err := a.eng.InvalidateAll(ctx); err != nil {
		a.eng.Logger().Warn("api: refresh connections", slog.String("error", err.Error()))
	}
}
