package permission

import (
	"errors"
	"testing"
)

func TestNameParts(t *testing.T) {
	tests := []struct {
		in        Name
		namespace string
		action    Action
		resource  string
		data      bool
	}{
		{"shop.view_item", "shop", ActionView, "item", true},
		{"shop.add_item", "shop", ActionAdd, "item", true},
		{"shop.change_order_line", "shop", ActionChange, "order_line", true},
		{"shop.delete_item", "shop", ActionDelete, "item", true},
		{"shop.export_item", "shop", "export", "item", false},
		{"shop.admin", "shop", "", "", false},
		{"shop.view_", "shop", ActionView, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Namespace(); got != tt.namespace {
				t.Errorf("Namespace = %q, want %q", got, tt.namespace)
			}
			if got := tt.in.Action(); got != tt.action {
				t.Errorf("Action = %q, want %q", got, tt.action)
			}
			if got := tt.in.Resource(); got != tt.resource {
				t.Errorf("Resource = %q, want %q", got, tt.resource)
			}
			if got := tt.in.IsData(); got != tt.data {
				t.Errorf("IsData = %v, want %v", got, tt.data)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("shop.view_item"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, bad := range []string{"", "shop", ".view_item", "shop."} {
		if _, err := Parse(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Parse(%q): expected ErrInvalidName, got %v", bad, err)
		}
	}
}

func TestMethodNameRoundTrip(t *testing.T) {
	n := ForAction("shop", ActionChange, "item")
	if n != "shop.change_item" {
		t.Fatalf("ForAction = %q", n)
	}
	m := MethodName(n)
	if m != "db__shop.change_item" {
		t.Fatalf("MethodName = %q", m)
	}
	back, ok := ParseMethodName(m)
	if !ok || back != n {
		t.Fatalf("ParseMethodName(%q) = %q, %v", m, back, ok)
	}

	for _, bad := range []string{"shop.change_item", "db__shop.export_item", "db__nodot"} {
		if _, ok := ParseMethodName(bad); ok {
			t.Errorf("ParseMethodName(%q): expected failure", bad)
		}
	}
}
