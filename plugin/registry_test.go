package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// testPlugin implements Plugin + LoginSucceeded + StateRebuilt.
type testPlugin struct {
	loginUser    string
	rebuiltConns []string
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnLoginSucceeded(_ context.Context, _, username, _ string) error {
	t.loginUser = username
	return nil
}

func (t *testPlugin) OnStateRebuilt(_ context.Context, connID string, _ any) error {
	t.rebuiltConns = append(t.rebuiltConns, connID)
	return nil
}

// failingPlugin returns an error from every hook it implements.
type failingPlugin struct{}

func (failingPlugin) Name() string { return "failing" }

func (failingPlugin) OnLoginFailed(_ context.Context, _, _ string) error {
	return errors.New("boom")
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})
	reg.Register(failingPlugin{})

	if len(reg.Plugins()) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(reg.Plugins()))
	}

	reg.EmitLoginSucceeded(ctx, "conn_1", "alice", "usr_1")
	if tp.loginUser != "alice" {
		t.Fatalf("OnLoginSucceeded not called, got %q", tp.loginUser)
	}

	reg.EmitStateRebuilt(ctx, "conn_1", nil)
	reg.EmitStateRebuilt(ctx, "conn_2", nil)
	if len(tp.rebuiltConns) != 2 || tp.rebuiltConns[1] != "conn_2" {
		t.Fatalf("unexpected rebuild notifications: %v", tp.rebuiltConns)
	}

	// Hook errors are logged, never propagated; hooks with no listeners are no-ops.
	reg.EmitLoginFailed(ctx, "conn_1", "mallory")
	reg.EmitConnOpened(ctx, "conn_1")
	reg.EmitConnClosed(ctx, "conn_1")
	reg.EmitLoggedOut(ctx, "conn_1", "usr_1")
	reg.EmitShutdown(ctx)
}
