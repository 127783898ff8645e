package sqlite

import (
	"testing"
	"time"

	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
)

func TestSessionModelExpiry(t *testing.T) {
	uid := id.NewUserID()
	m := sessionToModel(&session.Session{Token: "tok", UserID: uid})
	if m.ExpiresAt != nil {
		t.Fatal("a session without expiry should store NULL")
	}
	if got := sessionFromModel(m); !got.ExpiresAt.IsZero() || got.UserID != uid {
		t.Fatalf("unexpected session %+v", got)
	}

	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m = sessionToModel(&session.Session{Token: "tok", UserID: uid, ExpiresAt: exp})
	if m.ExpiresAt == nil || !m.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry not stored: %v", m.ExpiresAt)
	}
}

func TestPermissionModelColumns(t *testing.T) {
	m := permissionToModel(&permission.Permission{ID: id.NewPermissionID(), Name: "shop.change_order_line"})
	if m.Namespace != "shop" || m.Action != "change" {
		t.Fatalf("unexpected derived columns %q %q", m.Namespace, m.Action)
	}
}

func TestAuthLogModelAnonymous(t *testing.T) {
	m := authLogToModel(&authlog.Entry{ID: id.NewAuthLogID(), Username: "ghost", Outcome: authlog.OutcomeUnknownUser})
	if m.UserID != "" {
		t.Fatalf("unknown users should store an empty user id, got %q", m.UserID)
	}
	if e := authLogFromModel(m); !e.UserID.IsNil() {
		t.Fatalf("expected nil user id, got %s", e.UserID)
	}
}
