package rampart

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"

	json "github.com/goccy/go-json"
)

// Transport is the per-connection surface a connection needs from the
// wire: reading the session cookie and issuing a new one.
type Transport interface {
	// Cookie returns the current value of a cookie.
	Cookie(name string) (string, bool)

	// SetCookie delivers a cookie to the client. Later Cookie calls
	// observe it; a negative MaxAge removes the cookie.
	SetCookie(c *http.Cookie) error
}

// ConnState is an immutable snapshot of what a connection may see.
type ConnState struct {
	Identity      *Identity
	Methods       map[string]Handler
	Topics        map[string]struct{}
	Subscriptions map[string]struct{}
}

// HasMethod reports whether the method is callable.
func (s *ConnState) HasMethod(name string) bool {
	_, ok := s.Methods[name]
	return ok
}

// HasTopic reports whether the topic is visible.
func (s *ConnState) HasTopic(name string) bool {
	_, ok := s.Topics[name]
	return ok
}

// Subscribed reports whether the connection receives the topic.
func (s *ConnState) Subscribed(name string) bool {
	_, ok := s.Subscriptions[name]
	return ok
}

// MethodNames returns the callable method names in sorted order.
func (s *ConnState) MethodNames() []string { return slices.Sorted(maps.Keys(s.Methods)) }

// TopicNames returns the visible topics in sorted order.
func (s *ConnState) TopicNames() []string { return slices.Sorted(maps.Keys(s.Topics)) }

// SubscriptionNames returns the subscribed topics in sorted order.
func (s *ConnState) SubscriptionNames() []string { return slices.Sorted(maps.Keys(s.Subscriptions)) }

// Conn is one live client connection. State changes are serialized per
// connection: a refresh, login or logout holds rebuildMu from identity
// lookup to publication, so a newer state is never overwritten by an
// older one.
type Conn struct {
	id        string
	engine    *Engine
	transport Transport

	rebuildMu sync.Mutex

	mu     sync.RWMutex
	state  *ConnState
	token  string
	closed bool
}

// ID returns the connection ID.
func (c *Conn) ID() string { return c.id }

// State returns the current snapshot.
func (c *Conn) State() *ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Identity returns the identity of the current snapshot.
func (c *Conn) Identity() *Identity { return c.State().Identity }

// Refresh re-resolves the identity from the session cookie and rebuilds the
// state. If ctx ends while the lookup is pending the state is left as is
// and ctx's error is returned.
func (c *Conn) Refresh(ctx context.Context) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	if c.isClosed() {
		return ErrConnClosed
	}

	token, _ := c.transport.Cookie(c.engine.config.cookieName())
	identity, err := c.engine.resolver.Resolve(ctx, token)
	if err != nil {
		return err
	}
	c.apply(ctx, identity, token)
	return nil
}

// Call dispatches a method against the current snapshot. Methods absent
// from the snapshot yield ErrMethodNotFound.
func (c *Conn) Call(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if c.isClosed() {
		return nil, ErrConnClosed
	}
	st := c.State()
	h, ok := st.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	ctx = WithIdentity(withConn(ctx, c), st.Identity)
	return h(ctx, &Call{Conn: c, State: st, Method: method, Params: params})
}

// Subscribe adds a visible topic to the subscriptions. It returns false
// when the topic is not visible.
func (c *Conn) Subscribe(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.HasTopic(topic) {
		return false
	}
	if c.state.Subscribed(topic) {
		return true
	}
	next := *c.state
	next.Subscriptions = maps.Clone(c.state.Subscriptions)
	next.Subscriptions[topic] = struct{}{}
	c.state = &next
	return true
}

// Unsubscribe removes a topic and reports whether it was subscribed.
func (c *Conn) Unsubscribe(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Subscribed(topic) {
		return false
	}
	next := *c.state
	next.Subscriptions = maps.Clone(c.state.Subscriptions)
	delete(next.Subscriptions, topic)
	c.state = &next
	return true
}

// Subscribed reports whether the connection currently receives the topic.
func (c *Conn) Subscribed(topic string) bool { return c.State().Subscribed(topic) }

// Close forgets the connection. Further calls fail with ErrConnClosed.
func (c *Conn) Close(ctx context.Context) {
	if c.markClosed() {
		c.engine.forget(c)
		c.engine.plugins.EmitConnClosed(ctx, c.id)
	}
}

// apply publishes a state rebuilt for identity. Callers hold rebuildMu.
func (c *Conn) apply(ctx context.Context, identity *Identity, token string) {
	c.mu.Lock()
	next := c.engine.Rebuild(identity, c.state.Subscriptions)
	c.state = next
	c.token = token
	c.mu.Unlock()

	c.engine.logger.Debug("connection state rebuilt",
		slog.String("conn_id", c.id),
		slog.String("identity", identity.String()),
		slog.Int("methods", len(next.Methods)),
		slog.Int("topics", len(next.Topics)),
	)
	c.engine.plugins.EmitStateRebuilt(ctx, c.id, next)
}

func (c *Conn) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Conn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conn) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}
