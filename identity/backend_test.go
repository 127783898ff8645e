package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/store/memory"
	"github.com/xraph/rampart/user"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBackend(t *testing.T) (*Backend, *memory.Store, *clock) {
	t.Helper()
	s := memory.New()
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBackend(s, WithBcryptCost(bcrypt.MinCost), WithSessionTTL(time.Hour), WithClock(c.now))
	return b, s, c
}

func grant(t *testing.T, s *memory.Store, u *user.User, name permission.Name) {
	t.Helper()
	ctx := context.Background()
	p := &permission.Permission{ID: id.NewPermissionID(), Name: name}
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.GrantUserPermission(ctx, u.ID, p.ID); err != nil {
		t.Fatal(err)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	b, s, _ := newTestBackend(t)
	u, err := b.CreateUser(ctx, "alice", "secret", false)
	if err != nil {
		t.Fatal(err)
	}
	grant(t, s, u, "shop.view_item")

	got, err := b.Authenticate(ctx, "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID() != u.ID.String() || !got.HasPerm("shop.view_item") || !got.IsActive() {
		t.Fatalf("unexpected identity: %s %v", got, got.Permissions())
	}

	stored, _ := s.GetUser(ctx, u.ID)
	if stored.LastLoginAt == nil {
		t.Fatal("last login not recorded")
	}

	if _, err := b.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, rampart.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := b.Authenticate(ctx, "nobody", "secret"); !errors.Is(err, rampart.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	stored.IsActive = false
	_ = s.UpdateUser(ctx, stored)
	if _, err := b.Authenticate(ctx, "alice", "secret"); !errors.Is(err, rampart.ErrInvalidCredentials) {
		t.Fatalf("inactive user: expected ErrInvalidCredentials, got %v", err)
	}

	logs, _ := s.ListAuthLogs(ctx, nil)
	outcomes := make([]authlog.Outcome, 0, len(logs))
	for _, e := range logs {
		outcomes = append(outcomes, e.Outcome)
	}
	want := []authlog.Outcome{authlog.OutcomeInactive, authlog.OutcomeUnknownUser, authlog.OutcomeBadPassword, authlog.OutcomeSuccess}
	if len(outcomes) != len(want) {
		t.Fatalf("auth log = %v, want %v", outcomes, want)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Fatalf("auth log = %v, want %v", outcomes, want)
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, _, c := newTestBackend(t)
	if _, err := b.CreateUser(ctx, "alice", "secret", false); err != nil {
		t.Fatal(err)
	}
	ident, err := b.Authenticate(ctx, "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}

	token, err := b.CreateSession(ctx, ident)
	if err != nil {
		t.Fatal(err)
	}
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64", len(token))
	}

	got, err := b.LookupSession(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username() != "alice" {
		t.Fatalf("lookup = %s", got)
	}

	if _, err := b.LookupSession(ctx, "unknown"); !errors.Is(err, rampart.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, err := b.LookupSession(ctx, token); !errors.Is(err, rampart.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := b.LookupSession(ctx, token); !errors.Is(err, rampart.ErrSessionNotFound) {
		t.Fatalf("expired session should be deleted, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	b, s, _ := newTestBackend(t)
	if _, err := b.CreateUser(ctx, "alice", "secret", false); err != nil {
		t.Fatal(err)
	}
	ident, _ := b.Authenticate(ctx, "alice", "secret")
	token, _ := b.CreateSession(ctx, ident)

	if err := b.DeleteSession(ctx, token); err != nil {
		t.Fatal(err)
	}
	if _, err := b.LookupSession(ctx, token); !errors.Is(err, rampart.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := b.DeleteSession(ctx, token); err != nil {
		t.Fatalf("deleting twice should succeed: %v", err)
	}
	logs, _ := s.ListAuthLogs(ctx, &authlog.QueryFilter{Outcome: authlog.OutcomeLogout})
	if len(logs) != 1 {
		t.Fatalf("expected 1 logout entry, got %d", len(logs))
	}
}

func TestIdentityPermissions(t *testing.T) {
	ctx := context.Background()
	b, s, _ := newTestBackend(t)

	alice, _ := b.CreateUser(ctx, "alice", "pw", false)
	if _, err := b.CreateUser(ctx, "root", "pw", true); err != nil {
		t.Fatal(err)
	}
	grant(t, s, alice, "shop.view_item")

	g := &group.Group{ID: id.NewGroupID(), Name: "editors"}
	_ = s.CreateGroup(ctx, g)
	p := &permission.Permission{ID: id.NewPermissionID(), Name: "shop.change_item"}
	_ = s.CreatePermission(ctx, p)
	_ = s.AttachPermission(ctx, g.ID, p.ID)
	_ = s.AddMember(ctx, g.ID, alice.ID)

	ident, err := b.Authenticate(ctx, "alice", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if !ident.HasPerms("shop.view_item", "shop.change_item") {
		t.Fatalf("alice permissions = %v", ident.Permissions())
	}

	rootIdent, err := b.Authenticate(ctx, "root", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if !rootIdent.IsSuperuser() || len(rootIdent.Permissions()) != 2 {
		t.Fatalf("superuser should hold every permission, got %v", rootIdent.Permissions())
	}

	// A deactivated user keeps its session but loses its permissions.
	token, _ := b.CreateSession(ctx, ident)
	alice.IsActive = false
	_ = s.UpdateUser(ctx, alice)
	got, err := b.LookupSession(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive() || len(got.Permissions()) != 0 {
		t.Fatalf("inactive identity = active %v perms %v", got.IsActive(), got.Permissions())
	}
}

func TestRevokeUserSessions(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newTestBackend(t)
	u, _ := b.CreateUser(ctx, "alice", "pw", false)
	ident, _ := b.Authenticate(ctx, "alice", "pw")
	for range 3 {
		if _, err := b.CreateSession(ctx, ident); err != nil {
			t.Fatal(err)
		}
	}
	n, err := b.RevokeUserSessions(ctx, u.ID)
	if err != nil || n != 3 {
		t.Fatalf("revoked %d sessions (err %v), want 3", n, err)
	}
}

func TestCachedIdentityEndsWithSession(t *testing.T) {
	ctx := context.Background()
	b, _, c := newTestBackend(t)
	if _, err := b.CreateUser(ctx, "alice", "pw", false); err != nil {
		t.Fatal(err)
	}
	ident, err := b.Authenticate(ctx, "alice", "pw")
	if err != nil {
		t.Fatal(err)
	}
	token, err := b.CreateSession(ctx, ident)
	if err != nil {
		t.Fatal(err)
	}

	eng, err := rampart.NewEngine(
		rampart.WithIdentityStore(b),
		rampart.WithCache(cache.NewMemory(cache.WithTTL(30*time.Second), cache.WithClock(c.now))),
	)
	if err != nil {
		t.Fatal(err)
	}

	start := c.t
	c.t = start.Add(59*time.Minute + 50*time.Second)
	got, err := eng.Resolver().Resolve(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsAnonymous() || got.Username() != "alice" {
		t.Fatalf("expected alice before expiry, got %s", got)
	}

	c.t = start.Add(time.Hour + 5*time.Second)
	got, err = eng.Resolver().Resolve(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsAnonymous() {
		t.Fatalf("expired session resolved as %s", got)
	}
}
