package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	userID := id.NewUserID()
	now := time.Now().UTC().Truncate(time.Second)

	sess := &session.Session{Token: "tok", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("rampart:session:tok") {
		t.Fatal("session key not written")
	}
	if ttl := mr.TTL("rampart:session:tok"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	got, err := s.GetSession(ctx, "tok")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != userID || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := s.DeleteSession(ctx, "tok"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(ctx, "tok"); !errors.Is(err, rampart.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := s.DeleteSession(ctx, "tok"); err != nil {
		t.Fatalf("deleting an unknown token should not fail: %v", err)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	userID := id.NewUserID()
	now := time.Now()

	if err := s.CreateSession(ctx, &session.Session{Token: "short", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSession(ctx, &session.Session{Token: "long", UserID: userID, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSession(ctx, &session.Session{Token: "stale", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("rampart:session:stale") {
		t.Fatal("expired session should not be written")
	}

	mr.FastForward(2 * time.Minute)
	if _, err := s.GetSession(ctx, "short"); !errors.Is(err, rampart.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := s.GetSession(ctx, "long"); err != nil {
		t.Fatalf("session without expiry should survive: %v", err)
	}

	n, err := s.PurgeExpiredSessions(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged index entry, got %d", n)
	}
	members, _ := mr.Members("rampart:user:" + userID.String())
	if len(members) != 1 || members[0] != "long" {
		t.Fatalf("unexpected index members %v", members)
	}
}

func TestDeleteUserSessions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	alice, bob := id.NewUserID(), id.NewUserID()
	now := time.Now()

	for _, sess := range []*session.Session{
		{Token: "a1", UserID: alice, CreatedAt: now},
		{Token: "a2", UserID: alice, CreatedAt: now},
		{Token: "b1", UserID: bob, CreatedAt: now},
	} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.DeleteUserSessions(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted sessions, got %d", n)
	}
	if _, err := s.GetSession(ctx, "b1"); err != nil {
		t.Fatalf("other users' sessions must survive: %v", err)
	}
	if n, _ := s.DeleteUserSessions(ctx, alice); n != 0 {
		t.Fatalf("expected 0 on second delete, got %d", n)
	}
}

func TestPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := New(client, WithPrefix("app:"))

	if err := s.CreateSession(context.Background(), &session.Session{Token: "tok", UserID: id.NewUserID()}); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("app:session:tok") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
}
