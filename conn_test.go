package rampart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/rampart/permission"
)

func TestConnect_WithoutCookieIsAnonymous(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	eng := newTestEngine(t, store)

	conn, err := eng.Connect(ctx, newStubTransport(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !conn.Identity().IsAnonymous() {
		t.Fatal("expected anonymous identity")
	}
	if store.lookups.Load() != 0 {
		t.Fatal("no lookup should happen without a cookie")
	}

	if _, err := conn.Call(ctx, "private", nil); !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("expected ErrMethodNotFound, got %v", err)
	}
	if _, err := conn.Call(ctx, "does.not.exist", nil); !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("expected ErrMethodNotFound, got %v", err)
	}
	got, err := conn.Call(ctx, "public", nil)
	if err != nil || got != "public" {
		t.Fatalf("public call = %v, %v", got, err)
	}
}

func TestConnect_ResolvesSessionCookie(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("pw", Attributes{Username: "alice", IsActive: true})
	token := store.openSession("alice")
	eng := newTestEngine(t, store)

	conn, err := eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": token}))
	if err != nil {
		t.Fatal(err)
	}
	if conn.Identity().Username() != "alice" {
		t.Fatalf("identity = %s, want alice", conn.Identity())
	}
	if _, err := conn.Call(ctx, "private", nil); err != nil {
		t.Fatalf("private call: %v", err)
	}
	if _, ok := eng.Conn(conn.ID()); !ok {
		t.Fatal("connection should be registered")
	}
}

func TestConnect_BadCookiesDegradeToAnonymous(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("pw", Attributes{Username: "alice", IsActive: true})
	eng := newTestEngine(t, store)

	conn, err := eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": "garbage"}))
	if err != nil {
		t.Fatalf("unknown cookie must not fail the connection: %v", err)
	}
	if !conn.Identity().IsAnonymous() {
		t.Fatal("unknown cookie should resolve to anonymous")
	}

	token := store.openSession("alice")
	store.lookupErr = errors.New("database unavailable")
	conn, err = eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": token}))
	if err != nil {
		t.Fatalf("store failure must not fail the connection: %v", err)
	}
	if !conn.Identity().IsAnonymous() {
		t.Fatal("store failure should resolve to anonymous")
	}
}

func TestConn_SubscribeOnlyVisibleTopics(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, newStubStore())
	conn, err := eng.Connect(ctx, newStubTransport(nil))
	if err != nil {
		t.Fatal(err)
	}

	if conn.Subscribe("orders") {
		t.Fatal("anonymous must not subscribe to orders")
	}
	if !conn.Subscribe("news") {
		t.Fatal("subscribe to news failed")
	}
	before := conn.State()
	if !conn.Subscribe("news") {
		t.Fatal("subscribing twice should still report true")
	}
	if !conn.Subscribed("news") {
		t.Fatal("expected news subscription")
	}
	if !conn.Unsubscribe("news") || conn.Unsubscribe("news") {
		t.Fatal("unsubscribe should report whether the topic was subscribed")
	}
	if !before.Subscribed("news") {
		t.Fatal("published snapshots must not change")
	}
}

func TestInvalidateUser_DropsRevokedTopics(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("pw", Attributes{Username: "alice", IsActive: true, Permissions: []permission.Name{"shop.view_order"}})
	token := store.openSession("alice")
	eng := newTestEngine(t, store)

	conn, err := eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": token}))
	if err != nil {
		t.Fatal(err)
	}
	if !conn.Subscribe("orders") || !conn.Subscribe("news") {
		t.Fatal("subscriptions failed")
	}

	store.setPermissions("alice")
	if err := eng.InvalidateUser(ctx, conn.Identity().UserID()); err != nil {
		t.Fatal(err)
	}

	st := conn.State()
	if st.HasTopic("orders") || st.Subscribed("orders") {
		t.Fatal("orders should be gone after the permission was revoked")
	}
	if !st.Subscribed("news") {
		t.Fatal("news subscription should survive")
	}
}

func TestInvalidateSession_DegradesToAnonymous(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("pw", Attributes{Username: "alice", IsActive: true})
	token := store.openSession("alice")
	eng := newTestEngine(t, store)

	conn, err := eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": token}))
	if err != nil {
		t.Fatal(err)
	}
	_ = store.DeleteSession(ctx, token)
	if err := eng.InvalidateSession(ctx, token); err != nil {
		t.Fatal(err)
	}
	if !conn.Identity().IsAnonymous() {
		t.Fatal("expected anonymous after session invalidation")
	}
	if !conn.State().HasMethod(MethodLogin) {
		t.Fatal("login should be offered again")
	}
}

func TestRefresh_CancelledWhilePendingKeepsState(t *testing.T) {
	store := newStubStore()
	store.addUser("pw", Attributes{Username: "alice", IsActive: true})
	token := store.openSession("alice")
	eng := newTestEngine(t, store)

	tr := newStubTransport(map[string]string{"sessionid": token})
	conn, err := eng.Connect(context.Background(), tr)
	if err != nil {
		t.Fatal(err)
	}
	before := conn.State()

	store.block = make(chan struct{})
	defer close(store.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := conn.Refresh(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if conn.State() != before {
		t.Fatal("state must not change when the lookup is abandoned")
	}
}

func TestConn_CloseForgetsConnection(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, newStubStore())
	conn, err := eng.Connect(ctx, newStubTransport(nil))
	if err != nil {
		t.Fatal(err)
	}
	conn.Close(ctx)
	if _, ok := eng.Conn(conn.ID()); ok {
		t.Fatal("closed connection still registered")
	}
	if _, err := conn.Call(ctx, "public", nil); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
	if err := conn.Refresh(ctx); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
}

func TestCall_HandlerSeesIdentityInContext(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.addUser("pw", Attributes{Username: "alice", IsActive: true})
	token := store.openSession("alice")

	reg := NewRegistry()
	reg.MustMethod("whoami", func(ctx context.Context, call *Call) (any, error) {
		if IdentityFrom(ctx) != call.Identity() {
			return nil, errors.New("context identity mismatch")
		}
		if c, ok := ConnFrom(ctx); !ok || c != call.Conn {
			return nil, errors.New("context conn mismatch")
		}
		return call.Identity().Username(), nil
	}, LoginRequired())
	eng, err := NewEngine(WithIdentityStore(store), WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}

	conn, err := eng.Connect(ctx, newStubTransport(map[string]string{"sessionid": token}))
	if err != nil {
		t.Fatal(err)
	}
	got, err := conn.Call(ctx, "whoami", nil)
	if err != nil || got != "alice" {
		t.Fatalf("whoami = %v, %v", got, err)
	}
}
