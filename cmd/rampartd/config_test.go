package main

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("RAMPART_ADDR", ":9090")
	t.Setenv("RAMPART_SESSION_TTL", "1h")
	t.Setenv("RAMPART_COOKIE_SECURE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9090" || cfg.SessionTTL != time.Hour || !cfg.CookieSecure {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CookieName != "sessionid" || cfg.Workers != 4 || cfg.MongoDatabase != "rampart" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	t.Setenv("RAMPART_WORKERS", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for zero workers")
	}
}
