package rampart

import (
	"errors"
	"testing"

	"github.com/xraph/rampart/permission"
)

func TestNewEngine_RequiresIdentityStore(t *testing.T) {
	if _, err := NewEngine(); err == nil {
		t.Fatal("expected error when identity store is nil")
	}
}

func TestNewEngine_GenericDataRequiresDispatcher(t *testing.T) {
	_, err := NewEngine(WithIdentityStore(newStubStore()), WithConfig(Config{GenericData: true}))
	if err == nil {
		t.Fatal("expected error when generic data has no dispatcher")
	}
}

func TestNewEngine_SealsRegistry(t *testing.T) {
	eng := newTestEngine(t, newStubStore())
	if !eng.Registry().Sealed() {
		t.Fatal("registry should be sealed")
	}
	err := eng.Registry().Method("late", echo)
	if !errors.Is(err, ErrRegistrySealed) {
		t.Fatalf("expected ErrRegistrySealed, got %v", err)
	}
}

func TestRebuild_Anonymous(t *testing.T) {
	eng := newTestEngine(t, newStubStore())
	st := eng.Rebuild(Anonymous(), nil)

	assertMethods(t, st, MethodLogin, "public")
	if got := st.TopicNames(); len(got) != 1 || got[0] != "news" {
		t.Fatalf("topics = %v, want [news]", got)
	}
	if len(st.Subscriptions) != 0 {
		t.Fatalf("subscriptions = %v, want none", st.SubscriptionNames())
	}
}

func TestRebuild_Authenticated(t *testing.T) {
	eng := newTestEngine(t, newStubStore())

	alice := Authenticated(Attributes{UserID: "usr_a", Username: "alice", IsActive: true,
		Permissions: []permission.Name{"shop.view_report"}})
	assertMethods(t, eng.Rebuild(alice, nil), MethodLogout, "public", "private", "shop.report")

	staff := Authenticated(Attributes{UserID: "usr_s", Username: "staffer", IsActive: true})
	assertMethods(t, eng.Rebuild(staff, nil), MethodLogout, "public", "private", "staff.only")

	root := Authenticated(Attributes{UserID: "usr_r", Username: "root", IsActive: true, IsSuperuser: true})
	st := eng.Rebuild(root, nil)
	assertMethods(t, st, MethodLogout, "public", "private", "shop.report", "staff.only")
	if !st.HasTopic("orders") {
		t.Fatal("superuser should see every topic")
	}

	// An inactive superuser still fails login-required methods.
	ghost := Authenticated(Attributes{UserID: "usr_g", Username: "ghost", IsSuperuser: true})
	assertMethods(t, eng.Rebuild(ghost, nil), MethodLogout, "public", "shop.report", "staff.only")
}

func TestRebuild_Idempotent(t *testing.T) {
	eng := newTestEngine(t, newStubStore())
	alice := Authenticated(Attributes{UserID: "usr_a", Username: "alice", IsActive: true,
		Permissions: []permission.Name{"shop.view_order"}})
	prev := map[string]struct{}{"news": {}, "orders": {}}

	a := eng.Rebuild(alice, prev)
	b := eng.Rebuild(alice, a.Subscriptions)

	if len(a.MethodNames()) != len(b.MethodNames()) {
		t.Fatalf("methods differ: %v vs %v", a.MethodNames(), b.MethodNames())
	}
	for i, name := range a.MethodNames() {
		if b.MethodNames()[i] != name {
			t.Fatalf("methods differ: %v vs %v", a.MethodNames(), b.MethodNames())
		}
	}
	if len(a.Subscriptions) != 2 || len(b.Subscriptions) != 2 {
		t.Fatalf("subscriptions differ: %v vs %v", a.SubscriptionNames(), b.SubscriptionNames())
	}
}

func TestRebuild_SubscriptionsNarrowToTopics(t *testing.T) {
	eng := newTestEngine(t, newStubStore())
	prev := map[string]struct{}{"news": {}, "orders": {}, "unknown": {}}

	st := eng.Rebuild(Anonymous(), prev)
	if got := st.SubscriptionNames(); len(got) != 1 || got[0] != "news" {
		t.Fatalf("subscriptions = %v, want [news]", got)
	}
	for topic := range st.Subscriptions {
		if !st.HasTopic(topic) {
			t.Fatalf("subscription %q is not a visible topic", topic)
		}
	}
	if _, ok := prev["orders"]; !ok {
		t.Fatal("previous subscriptions must not be mutated")
	}
}

func TestRebuild_GenericDataMethods(t *testing.T) {
	eng := newTestEngine(t, newStubStore(), WithDataDispatcher(stubDispatcher{}))
	alice := Authenticated(Attributes{UserID: "usr_a", Username: "alice", IsActive: true,
		Permissions: []permission.Name{"shop.view_item", "shop.change_item", "shop.export_item", "shop.admin"}})

	st := eng.Rebuild(alice, nil)
	assertMethods(t, st, MethodLogout, "public", "private", "db__shop.view_item", "db__shop.change_item")

	if st.HasMethod("db__shop.view_item") && eng.Rebuild(Anonymous(), nil).HasMethod("db__shop.view_item") {
		t.Fatal("anonymous must not receive data methods")
	}
}

func TestRebuild_GenericDataDisabled(t *testing.T) {
	eng := newTestEngine(t, newStubStore())
	alice := Authenticated(Attributes{UserID: "usr_a", Username: "alice", IsActive: true,
		Permissions: []permission.Name{"shop.view_item"}})
	if eng.Rebuild(alice, nil).HasMethod("db__shop.view_item") {
		t.Fatal("data methods must not appear when generic data is disabled")
	}
}

func TestAuthorizeMatchesCheck(t *testing.T) {
	eng := newTestEngine(t, newStubStore())
	meta := NewMetadata(LoginRequired())
	if eng.Authorize(Anonymous(), &meta) {
		t.Fatal("anonymous must not pass login")
	}
	res := eng.Check(Anonymous(), &meta)
	if res.Decision != DecisionDenyLogin {
		t.Fatalf("decision = %s", res.Decision)
	}
}
