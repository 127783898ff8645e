package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/datamodel"
	"github.com/xraph/rampart/datamodel/memory"
	"github.com/xraph/rampart/identity"
	memstore "github.com/xraph/rampart/store/memory"
)

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := identity.NewBackend(memstore.New(), identity.WithBcryptCost(bcrypt.MinCost))
	cfg := &Config{AdminUsername: "admin", AdminPassword: "secret"}

	for range 2 {
		if err := seed(ctx, backend, cfg, logger); err != nil {
			t.Fatal(err)
		}
	}

	admin, err := backend.Authenticate(ctx, "admin", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if !admin.IsSuperuser() || len(admin.Permissions()) != 4 {
		t.Fatalf("unexpected admin identity: %s %v", admin, admin.Permissions())
	}

	clerks, err := backend.Store().GetGroupByName(ctx, "clerks")
	if err != nil {
		t.Fatal(err)
	}
	ids, _ := backend.Store().ListGroupPermissions(ctx, clerks.ID)
	if len(ids) != 2 {
		t.Fatalf("expected 2 clerk permissions, got %d", len(ids))
	}
}

func TestMethods(t *testing.T) {
	ctx := context.Background()
	models := datamodel.NewRegistry()
	items := memory.New("client_id", "number")
	models.MustRegister("shop", "item", items)
	if _, err := items.Create(ctx, map[string]any{"client_id": int64(1), "number": int64(7)}); err != nil {
		t.Fatal(err)
	}

	reg := rampart.NewRegistry()
	registerMethods(reg, models)

	m, ok := reg.LookupMethod("shop.count_items")
	if !ok {
		t.Fatal("shop.count_items not registered")
	}
	got, err := m.Handler(ctx, &rampart.Call{})
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("expected 1 item, got %v", got)
	}

	if _, ok := reg.LookupTopic(TopicTicks); !ok {
		t.Fatal("ticks topic not registered")
	}
}
