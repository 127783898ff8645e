package extension

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/rampart/datamodel"
	"github.com/xraph/rampart/datamodel/memory"
	memstore "github.com/xraph/rampart/store/memory"
)

func TestInitAndLifecycle(t *testing.T) {
	ctx := context.Background()
	models := datamodel.NewRegistry()
	models.MustRegister("shop", "item", memory.New("name"))

	cfg := DefaultConfig()
	cfg.GenericData = true
	cfg.PurgeInterval = 10 * time.Millisecond
	e := New(WithStore(memstore.New()), WithConfig(cfg), WithDataModels(models))
	if err := e.init(nil); err != nil {
		t.Fatal(err)
	}
	if e.Engine() == nil || e.Backend() == nil || e.Hub() == nil {
		t.Fatal("expected engine, backend and hub to be built")
	}
	if !e.Engine().Config().GenericData {
		t.Fatal("expected generic data to be enabled")
	}
	if e.Engine().CookieName() != "sessionid" {
		t.Fatalf("unexpected cookie name %q", e.Engine().CookieName())
	}

	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Health(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestInitRequiresModelsForGenericData(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GenericData = true
	e := New(WithStore(memstore.New()), WithConfig(cfg))
	if err := e.init(nil); err == nil {
		t.Fatal("expected an error without data models")
	}
}

func TestInitRequiresStore(t *testing.T) {
	if err := New().init(nil); err == nil {
		t.Fatal("expected an error without a store")
	}
}
