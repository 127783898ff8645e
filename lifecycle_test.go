package rampart

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func loginParams(t *testing.T, username, password any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(map[string]any{"username": username, "password": password})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestLogin_WrongCredentials(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("secret", Attributes{Username: "alice", IsActive: true})
	eng := newTestEngine(t, store)
	tr := newStubTransport(nil)
	conn, err := eng.Connect(ctx, tr)
	if err != nil {
		t.Fatal(err)
	}
	before := conn.State()

	got, err := conn.Call(ctx, MethodLogin, loginParams(t, "alice", "wrong"))
	if err != nil {
		t.Fatal(err)
	}
	if got != false {
		t.Fatalf("login = %v, want false", got)
	}
	if tr.lastCookie() != nil {
		t.Fatal("no cookie may be issued on failure")
	}
	if conn.State() != before {
		t.Fatal("state must not be rebuilt on failure")
	}
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("secret", Attributes{Username: "alice", IsActive: true})
	eng := newTestEngine(t, store, WithConfig(Config{CookieName: "sessionid", CookieDomain: "example.com", CookieSecure: true}))
	tr := newStubTransport(nil)
	conn, err := eng.Connect(ctx, tr)
	if err != nil {
		t.Fatal(err)
	}
	conn.Subscribe("news")

	got, err := conn.Call(ctx, MethodLogin, loginParams(t, "alice", "secret"))
	if err != nil {
		t.Fatal(err)
	}
	if got != true {
		t.Fatalf("login = %v, want true", got)
	}

	c := tr.lastCookie()
	if c == nil {
		t.Fatal("expected a session cookie")
	}
	if c.Name != "sessionid" || c.Path != "/" || c.Domain != "example.com" || !c.Secure || c.MaxAge != 0 {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if c.Value == "" {
		t.Fatal("cookie must carry the session token")
	}

	st := conn.State()
	if st.HasMethod(MethodLogin) {
		t.Fatal("login must disappear after success")
	}
	if !st.HasMethod("private") || !st.HasMethod(MethodLogout) {
		t.Fatalf("methods after login = %v", st.MethodNames())
	}
	if !st.Subscribed("news") {
		t.Fatal("subscriptions must survive login")
	}

	// The issued cookie resolves to the same user on a later refresh.
	if err := conn.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if conn.Identity().Username() != "alice" {
		t.Fatalf("identity after refresh = %s", conn.Identity())
	}
}

func TestLogin_InvalidParams(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	eng := newTestEngine(t, store)
	conn, err := eng.Connect(ctx, newStubTransport(nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, params := range []string{``, `null`, `[1,2]`, `"alice"`, `{}`, `{"username":"alice"}`,
		`{"username":null,"password":"x"}`, `{"username":{"a":1},"password":"x"}`, `{"username":"a","password":[1]}`} {
		_, err := conn.Call(ctx, MethodLogin, json.RawMessage(params))
		if !errors.Is(err, ErrInvalidParams) {
			t.Errorf("params %q: expected ErrInvalidParams, got %v", params, err)
		}
	}
	if len(store.authCalls) != 0 {
		t.Fatalf("authenticate must not run for invalid params, got %v", store.authCalls)
	}
}

func TestLogin_CoercesScalars(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("true", Attributes{Username: "123", IsActive: true})
	eng := newTestEngine(t, store)
	conn, err := eng.Connect(ctx, newStubTransport(nil))
	if err != nil {
		t.Fatal(err)
	}

	got, err := conn.Call(ctx, MethodLogin, json.RawMessage(`{"username":123,"password":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if got != true {
		t.Fatalf("login = %v, want true", got)
	}
	if len(store.authCalls) != 1 || store.authCalls[0] != "123:true" {
		t.Fatalf("auth calls = %v", store.authCalls)
	}
}

func TestLogin_StoreFailureIsAnError(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.authErr = errors.New("connection refused")
	eng := newTestEngine(t, store)
	conn, err := eng.Connect(ctx, newStubTransport(nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Login(ctx, "alice", "x"); err == nil {
		t.Fatal("expected store failure to surface")
	}
	if !conn.State().HasMethod(MethodLogin) {
		t.Fatal("state must be untouched")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("secret", Attributes{Username: "alice", IsActive: true})
	eng := newTestEngine(t, store)

	tr := newStubTransport(nil)
	conn, err := eng.Connect(ctx, tr)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := conn.Login(ctx, "alice", "secret"); err != nil || !ok {
		t.Fatalf("login: %v %v", ok, err)
	}
	token := tr.lastCookie().Value

	// A second tab shares the session cookie.
	other, err := eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": token}))
	if err != nil {
		t.Fatal(err)
	}
	if other.Identity().IsAnonymous() {
		t.Fatal("second connection should be authenticated")
	}

	got, err := conn.Call(ctx, MethodLogout, nil)
	if err != nil || got != true {
		t.Fatalf("logout = %v, %v", got, err)
	}
	if !conn.Identity().IsAnonymous() {
		t.Fatal("expected anonymous after logout")
	}
	if c := tr.lastCookie(); c.MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", c)
	}
	if _, ok := tr.Cookie("sessionid"); ok {
		t.Fatal("cookie should be gone from the transport")
	}
	if !other.Identity().IsAnonymous() {
		t.Fatal("connections sharing the session must degrade too")
	}
	if _, err := conn.Call(ctx, MethodLogout, nil); !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("anonymous must not see logout, got %v", err)
	}
}
