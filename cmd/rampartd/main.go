// Command rampartd serves a rampart engine over WebSocket with an admin API.
//
// Sessions, users and permissions live in memory unless RAMPART_REDIS_ADDR
// moves sessions to Redis; the generic data models live in memory unless
// RAMPART_MONGO_URI serves them from MongoDB.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/api"
	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/datamodel"
	"github.com/xraph/rampart/datamodel/memory"
	"github.com/xraph/rampart/datamodel/mongomodel"
	"github.com/xraph/rampart/identity"
	"github.com/xraph/rampart/middleware"
	"github.com/xraph/rampart/session/redisstore"
	memstore "github.com/xraph/rampart/store/memory"
	"github.com/xraph/rampart/transport/ws"
)

var _ rampart.DataDispatcher = (*datamodel.Adapter)(nil)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rampartd", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	store := memstore.New()

	identityOpts := []identity.Option{
		identity.WithLogger(logger),
		identity.WithSessionTTL(cfg.SessionTTL),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		identityOpts = append(identityOpts, identity.WithSessionStore(redisstore.New(client)))
	}
	backend := identity.NewBackend(store, identityOpts...)

	models := datamodel.NewRegistry()
	if cfg.MongoURI != "" {
		client, err := mongod.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("mongo disconnect", slog.Any("error", err))
			}
		}()
		models.MustRegister("shop", "item", mongomodel.New(client.Database(cfg.MongoDatabase).Collection("shop_items")))
	} else {
		models.MustRegister("shop", "item", memory.New("client_id", "number"))
	}

	if err := seed(ctx, backend, cfg, logger); err != nil {
		return err
	}

	reg := rampart.NewRegistry()
	registerMethods(reg, models)

	engineOpts := []rampart.Option{
		rampart.WithLogger(logger),
		rampart.WithIdentityStore(backend),
		rampart.WithRegistry(reg),
		rampart.WithDataDispatcher(datamodel.NewAdapter(models, logger)),
		rampart.WithConfig(rampart.Config{
			CookieName:   cfg.CookieName,
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
			Workers:      cfg.Workers,
		}),
	}
	if cfg.IdentityCacheTTL > 0 {
		engineOpts = append(engineOpts, rampart.WithCache(cache.NewMemory(cache.WithTTL(cfg.IdentityCacheTTL))))
	}
	eng, err := rampart.NewEngine(engineOpts...)
	if err != nil {
		return err
	}

	rpc := ws.NewHandler(eng, ws.WithLogger(logger))
	admin := api.New(eng, backend, nil).Handler()
	requireSuperuser := middleware.RequireHTTP(eng,
		rampart.LoginRequired(),
		rampart.PassesTest(func(i *rampart.Identity) bool { return i.IsSuperuser() }),
	)

	mux := http.NewServeMux()
	mux.Handle("/rpc", rpc)
	mux.Handle("/admin/", http.StripPrefix("/admin", requireSuperuser(admin)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}

	go tick(ctx, rpc.Hub(), cfg.TickInterval)
	go purgeSessions(ctx, backend, time.Hour, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	rpc.Hub().CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return eng.Stop(shutdownCtx)
}

// tick publishes the server time to the "ticks" topic.
func tick(ctx context.Context, hub *ws.Hub, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			hub.Publish(TopicTicks, map[string]string{"time": now.UTC().Format(time.RFC3339)})
		}
	}
}

func purgeSessions(ctx context.Context, backend *identity.Backend, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := backend.Sessions().PurgeExpiredSessions(ctx, now); err != nil {
				logger.Warn("purge expired sessions", slog.Any("error", err))
			}
		}
	}
}
