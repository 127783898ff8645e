package rampart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/plugin"
)

// IdentityStore authenticates users and maps session tokens to identities.
type IdentityStore interface {
	// Authenticate verifies credentials. It returns ErrInvalidCredentials
	// when they do not identify an active user.
	Authenticate(ctx context.Context, username, password string) (*Identity, error)

	// LookupSession returns the identity bound to a session token.
	LookupSession(ctx context.Context, token string) (*Identity, error)

	// CreateSession starts a session for an authenticated identity and
	// returns its token.
	CreateSession(ctx context.Context, identity *Identity) (string, error)

	// DeleteSession ends a session.
	DeleteSession(ctx context.Context, token string) error
}

// DataDispatcher serves the synthesized "db__<permission>" methods.
type DataDispatcher interface {
	Dispatch(ctx context.Context, perm permission.Name, params json.RawMessage) (any, error)
}

// Engine owns the registry, resolves identities and keeps track of live
// connections so their state can be rebuilt when sessions change.
type Engine struct {
	identities IdentityStore
	registry   *Registry
	evaluator  Evaluator
	resolver   *Resolver
	data       DataDispatcher
	cache      IdentityCache
	plugins    *plugin.Registry
	logger     *slog.Logger
	config     Config

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewEngine creates a new engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		evaluator: DefaultEvaluator(),
		logger:    slog.Default(),
		config:    DefaultConfig(),
		conns:     make(map[string]*Conn),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.identities == nil {
		return nil, errors.New("rampart: identity store is required")
	}
	if e.config.GenericData && e.data == nil {
		return nil, errors.New("rampart: generic data requires a data dispatcher")
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	e.registry.Seal()
	if e.plugins == nil {
		e.plugins = plugin.NewRegistry(e.logger)
	}
	e.resolver = NewResolver(e.identities, e.config.workers(), e.logger)
	e.resolver.cache = e.cache
	return e, nil
}

// Registry returns the sealed method and topic registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Identities returns the identity store.
func (e *Engine) Identities() IdentityStore { return e.identities }

// Resolver returns the identity resolver.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// CookieName returns the name of the session cookie.
func (e *Engine) CookieName() string { return e.config.cookieName() }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown and forgets every connection.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	conns := e.conns
	e.conns = make(map[string]*Conn)
	e.mu.Unlock()
	for _, c := range conns {
		c.markClosed()
	}
	e.plugins.EmitShutdown(ctx)
	return nil
}

// Check evaluates metadata for an identity and explains the decision.
func (e *Engine) Check(identity *Identity, meta *Metadata) *CheckResult {
	return e.evaluator.Evaluate(identity, meta)
}

// Authorize reports whether identity satisfies meta.
func (e *Engine) Authorize(identity *Identity, meta *Metadata) bool {
	return e.Check(identity, meta).Allowed
}

// Rebuild computes a connection state from scratch. Login is offered only
// to Anonymous, logout only to authenticated identities; generic data
// methods follow the identity's data permissions; registered methods and
// topics are kept when authorized; previous subscriptions survive only for
// topics still visible. Rebuild performs no I/O and is idempotent.
func (e *Engine) Rebuild(identity *Identity, previous map[string]struct{}) *ConnState {
	if identity == nil {
		identity = Anonymous()
	}
	st := &ConnState{
		Identity:      identity,
		Methods:       make(map[string]Handler),
		Topics:        make(map[string]struct{}),
		Subscriptions: make(map[string]struct{}),
	}

	if identity.IsAnonymous() {
		st.Methods[MethodLogin] = e.serveLogin
	} else {
		st.Methods[MethodLogout] = e.serveLogout
	}

	if e.config.GenericData && e.data != nil {
		for _, p := range identity.Permissions() {
			if p.IsData() {
				st.Methods[permission.MethodName(p)] = e.serveData(p)
			}
		}
	}

	for _, m := range e.registry.Methods() {
		if e.Authorize(identity, &m.Meta) {
			st.Methods[m.Name] = m.Handler
		}
	}

	for _, t := range e.registry.Topics() {
		if e.Authorize(identity, &t.Meta) {
			st.Topics[t.Name] = struct{}{}
		}
	}

	for topic := range previous {
		if _, ok := st.Topics[topic]; ok {
			st.Subscriptions[topic] = struct{}{}
		}
	}

	return st
}

// Connect registers a new connection and builds its first state from the
// transport's session cookie.
func (e *Engine) Connect(ctx context.Context, t Transport) (*Conn, error) {
	c := &Conn{
		id:        id.NewConnID().String(),
		engine:    e,
		transport: t,
		state:     e.Rebuild(Anonymous(), nil),
	}

	e.mu.Lock()
	e.conns[c.id] = c
	e.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		e.forget(c)
		return nil, err
	}
	e.plugins.EmitConnOpened(ctx, c.id)
	return c, nil
}

// Conn returns a live connection by ID.
func (e *Engine) Conn(connID string) (*Conn, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.conns[connID]
	return c, ok
}

// Conns returns a snapshot of every live connection.
func (e *Engine) Conns() []*Conn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Conn, 0, len(e.conns))
	for _, c := range e.conns {
		out = append(out, c)
	}
	return out
}

// InvalidateUser re-resolves every live connection of a user. Call it after
// changing the user's permissions, groups, flags or sessions.
func (e *Engine) InvalidateUser(ctx context.Context, userID string) error {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
	return e.refreshWhere(ctx, func(c *Conn) bool { return c.Identity().UserID() == userID })
}

// InvalidateAll re-resolves every authenticated connection. Call it after
// changes that may affect many users, such as editing a group.
func (e *Engine) InvalidateAll(ctx context.Context) error {
	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
	return e.refreshWhere(ctx, func(c *Conn) bool { return !c.Identity().IsAnonymous() })
}

// InvalidateSession re-resolves every live connection bound to a session
// token. Call it after deleting or expiring the session.
func (e *Engine) InvalidateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if e.cache != nil {
		e.cache.InvalidateToken(ctx, token)
	}
	return e.refreshWhere(ctx, func(c *Conn) bool { return c.sessionToken() == token })
}

func (e *Engine) refreshWhere(ctx context.Context, match func(*Conn) bool) error {
	var errs []error
	for _, c := range e.Conns() {
		if !match(c) {
			continue
		}
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrConnClosed) {
			errs = append(errs, fmt.Errorf("refresh %s: %w", c.id, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) forget(c *Conn) {
	e.mu.Lock()
	delete(e.conns, c.id)
	e.mu.Unlock()
}

func (e *Engine) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:   e.config.cookieName(),
		Value:  token,
		Path:   "/",
		Domain: e.config.CookieDomain,
		Secure: e.config.CookieSecure,
	}
}

func (e *Engine) expiredCookie() *http.Cookie {
	c := e.sessionCookie("")
	c.MaxAge = -1
	return c
}

func (e *Engine) serveData(p permission.Name) Handler {
	return func(ctx context.Context, call *Call) (any, error) {
		return e.data.Dispatch(ctx, p, call.Params)
	}
}
