package rampart

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/xraph/rampart/permission"
)

type stubUser struct {
	password string
	attrs    Attributes
}

// stubStore is an in-process IdentityStore whose sessions re-read the user
// on every lookup, so tests can change a user between refreshes.
type stubStore struct {
	mu       sync.Mutex
	users    map[string]*stubUser
	sessions map[string]string // token -> username
	next     int

	authErr   error
	lookupErr error
	block     chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	lookups     atomic.Int32
	authCalls   []string
}

func newStubStore() *stubStore {
	return &stubStore{
		users:    make(map[string]*stubUser),
		sessions: make(map[string]string),
	}
}

func (s *stubStore) addUser(password string, attrs Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attrs.UserID == "" {
		attrs.UserID = "usr_" + attrs.Username
	}
	s.users[attrs.Username] = &stubUser{password: password, attrs: attrs}
}

func (s *stubStore) setPermissions(username string, perms ...permission.Name) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username].attrs.Permissions = perms
}

func (s *stubStore) openSession(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	token := "tok" + strconv.Itoa(s.next)
	s.sessions[token] = username
	return token
}

func (s *stubStore) Authenticate(_ context.Context, username, password string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authCalls = append(s.authCalls, username+":"+password)
	if s.authErr != nil {
		return nil, s.authErr
	}
	u, ok := s.users[username]
	if !ok || u.password != password || !u.attrs.IsActive {
		return nil, ErrInvalidCredentials
	}
	return Authenticated(u.attrs), nil
}

func (s *stubStore) LookupSession(ctx context.Context, token string) (*Identity, error) {
	s.lookups.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	username, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return Authenticated(u.attrs), nil
}

func (s *stubStore) CreateSession(_ context.Context, identity *Identity) (string, error) {
	return s.openSession(identity.Username()), nil
}

func (s *stubStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// stubTransport records issued cookies.
type stubTransport struct {
	mu      sync.Mutex
	cookies map[string]string
	issued  []*http.Cookie
	setErr  error
}

func newStubTransport(cookies map[string]string) *stubTransport {
	if cookies == nil {
		cookies = make(map[string]string)
	}
	return &stubTransport{cookies: cookies}
}

func (t *stubTransport) Cookie(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.cookies[name]
	return v, ok
}

func (t *stubTransport) SetCookie(c *http.Cookie) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.setErr != nil {
		return t.setErr
	}
	t.issued = append(t.issued, c)
	if c.MaxAge < 0 {
		delete(t.cookies, c.Name)
	} else {
		t.cookies[c.Name] = c.Value
	}
	return nil
}

func (t *stubTransport) lastCookie() *http.Cookie {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.issued) == 0 {
		return nil
	}
	return t.issued[len(t.issued)-1]
}

// stubDispatcher echoes the permission it was called for.
type stubDispatcher struct{}

func (stubDispatcher) Dispatch(_ context.Context, perm permission.Name, _ json.RawMessage) (any, error) {
	if perm.Action() == permission.ActionAdd {
		return nil, errors.Join(ErrInvalidParams, errors.New("constraint failed"))
	}
	return string(perm), nil
}

func echo(_ context.Context, call *Call) (any, error) { return call.Method, nil }

// testRegistry registers:
//
//	public          unrestricted
//	private         login required
//	shop.report     permission shop.view_report
//	staff.only      predicate username starts with "staff"
//	news            topic, unrestricted
//	orders          topic, permission shop.view_order
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.MustMethod("public", echo)
	r.MustMethod("private", echo, LoginRequired())
	r.MustMethod("shop.report", echo, PermissionsRequired("shop.view_report"))
	r.MustMethod("staff.only", echo, PassesTest(func(i *Identity) bool {
		return len(i.Username()) >= 5 && i.Username()[:5] == "staff"
	}))
	r.MustTopic("news")
	r.MustTopic("orders", PermissionsRequired("shop.view_order"))
	return r
}

func newTestEngine(t *testing.T, store *stubStore, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithIdentityStore(store), WithRegistry(testRegistry(t))}, opts...)
	eng, err := NewEngine(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func methodSet(st *ConnState) map[string]bool {
	out := make(map[string]bool, len(st.Methods))
	for name := range st.Methods {
		out[name] = true
	}
	return out
}

func assertMethods(t *testing.T, st *ConnState, want ...string) {
	t.Helper()
	got := st.MethodNames()
	if len(got) != len(want) {
		t.Fatalf("methods = %v, want %v", got, want)
	}
	set := methodSet(st)
	for _, w := range want {
		if !set[w] {
			t.Fatalf("methods = %v, want %v", got, want)
		}
	}
}
