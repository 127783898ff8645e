// Package extension provides a Forge extension entry point for rampart.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/api"
	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/datamodel"
	"github.com/xraph/rampart/identity"
	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/store"
	"github.com/xraph/rampart/transport/ws"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "rampart"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Per-connection authentication and authorization for JSON-RPC over WebSocket"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

var _ rampart.DataDispatcher = (*datamodel.Adapter)(nil)

// Extension adapts rampart as a Forge extension.
type Extension struct {
	config       Config
	store        store.Store
	registry     *rampart.Registry
	models       *datamodel.Registry
	eng          *rampart.Engine
	backend      *identity.Backend
	apiHandler   *api.API
	wsHandler    *ws.Handler
	logger       *slog.Logger
	engineOpts   []rampart.Option
	identityOpts []identity.Option
	plugins      []plugin.Plugin

	stopSweep context.CancelFunc
	sweepDone sync.WaitGroup
}

// New creates a rampart Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying rampart engine.
func (e *Extension) Engine() *rampart.Engine { return e.eng }

// Backend returns the identity backend.
func (e *Extension) Backend() *identity.Backend { return e.backend }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Hub returns the WebSocket hub used for topic publishing.
func (e *Extension) Hub() *ws.Hub {
	if e.wsHandler == nil {
		return nil
	}
	return e.wsHandler.Hub()
}

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if e.store == nil {
		if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
			e.store = s
		}
	}
	if err := e.init(fapp.Router()); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*rampart.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("rampart: register engine in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*identity.Backend, error) {
		return e.backend, nil
	}); err != nil {
		return fmt.Errorf("rampart: register identity backend in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*ws.Hub, error) {
		return e.wsHandler.Hub(), nil
	}); err != nil {
		return fmt.Errorf("rampart: register hub in container: %w", err)
	}

	return nil
}

func (e *Extension) init(router forge.Router) error {
	if e.store == nil {
		return errors.New("rampart: no store configured")
	}
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	identityOpts := make([]identity.Option, 0, len(e.identityOpts)+2)
	identityOpts = append(identityOpts, identity.WithLogger(logger))
	if e.config.SessionTTL > 0 {
		identityOpts = append(identityOpts, identity.WithSessionTTL(e.config.SessionTTL))
	}
	identityOpts = append(identityOpts, e.identityOpts...)
	e.backend = identity.NewBackend(e.store, identityOpts...)

	opts := make([]rampart.Option, 0, len(e.engineOpts)+len(e.plugins)+6)
	opts = append(opts,
		rampart.WithLogger(logger),
		rampart.WithIdentityStore(e.backend),
		rampart.WithConfig(rampart.Config{
			CookieName:   e.config.CookieName,
			CookieDomain: e.config.CookieDomain,
			CookieSecure: e.config.CookieSecure,
			Workers:      e.config.Workers,
		}),
	)
	if e.registry != nil {
		opts = append(opts, rampart.WithRegistry(e.registry))
	}
	if e.config.IdentityCacheTTL > 0 {
		opts = append(opts, rampart.WithCache(cache.NewMemory(cache.WithTTL(e.config.IdentityCacheTTL))))
	}
	if e.config.GenericData {
		if e.models == nil {
			return errors.New("rampart: generic data enabled without data models")
		}
		opts = append(opts, rampart.WithDataDispatcher(datamodel.NewAdapter(e.models, logger)))
	}
	opts = append(opts, e.engineOpts...)
	for _, x := range e.plugins {
		opts = append(opts, rampart.WithPlugin(x))
	}

	eng, err := rampart.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("rampart: create engine: %w", err)
	}
	e.eng = eng
	e.wsHandler = ws.NewHandler(eng, ws.WithLogger(logger))
	e.apiHandler = api.New(eng, e.backend, router)

	if !e.config.DisableRoutes && router != nil {
		if err := e.RegisterRoutes(router); err != nil {
			return fmt.Errorf("rampart: register routes: %w", err)
		}
	}

	return nil
}

// Start runs migrations if enabled and starts the expired-session sweep.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("rampart: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("rampart: migration failed: %w", err)
		}
	}

	if e.config.PurgeInterval > 0 {
		sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		e.stopSweep = cancel
		e.sweepDone.Add(1)
		go e.sweep(sweepCtx, e.config.PurgeInterval)
	}

	return e.eng.Start(ctx)
}

// Stop closes live sockets and shuts down the engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	if e.stopSweep != nil {
		e.stopSweep()
		e.sweepDone.Wait()
	}
	e.wsHandler.Hub().CloseAll()
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("rampart: extension not initialized")
	}
	return e.store.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RPCHandler returns the WebSocket endpoint.
func (e *Extension) RPCHandler() http.Handler {
	if e.wsHandler == nil {
		return http.NotFoundHandler()
	}
	return e.wsHandler
}

// RegisterRoutes registers the admin API under BasePath and the WebSocket
// endpoint at RPCPath.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler == nil {
		return nil
	}
	apiRouter := router
	if e.config.BasePath != "" {
		apiRouter = router.Group(e.config.BasePath)
	}
	if err := e.apiHandler.RegisterRoutes(apiRouter); err != nil {
		return err
	}

	rpcPath := e.config.RPCPath
	if rpcPath == "" {
		rpcPath = "/rpc"
	}
	return router.GET(rpcPath, func(ctx forge.Context) error {
		e.wsHandler.ServeHTTP(ctx.Response(), ctx.Request())
		return nil
	})
}

// sweep periodically deletes expired sessions.
func (e *Extension) sweep(ctx context.Context, every time.Duration) {
	defer e.sweepDone.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := e.backend.Sessions().PurgeExpiredSessions(ctx, now)
			if err != nil {
				e.eng.Logger().Warn("rampart: purge expired sessions", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				e.eng.Logger().Debug("rampart: purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}
