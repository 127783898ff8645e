package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/rampart/id"
)

func TestConstructorsCarryPrefix(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"UserID", id.NewUserID, "usr_"},
		{"PermissionID", id.NewPermissionID, "perm_"},
		{"GroupID", id.NewGroupID, "grp_"},
		{"AuthLogID", id.NewAuthLogID, "alog_"},
		{"ConnID", id.NewConnID, "conn_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.newFn().String(); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestTypedParsers(t *testing.T) {
	u := id.NewUserID()
	parsed, err := id.ParseUserID(u.String())
	if err != nil {
		t.Fatalf("ParseUserID: %v", err)
	}
	if parsed.String() != u.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), u.String())
	}

	if _, err := id.ParseGroupID(u.String()); err == nil {
		t.Error("expected ParseGroupID to reject a usr_ id")
	}
	if _, err := id.ParsePermissionID(id.NewGroupID().String()); err == nil {
		t.Error("expected ParsePermissionID to reject a grp_ id")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "not-an-id", "usr_"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("expected empty rendering, got %q / %q", i.String(), i.Prefix())
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewUserID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil || !empty.IsNil() {
		t.Fatalf("expected empty text to decode to Nil, got %v (err %v)", empty, err)
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewPermissionID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	val, err = id.Nil.Value()
	if err != nil || val != nil {
		t.Fatalf("expected NULL for Nil, got %v (err %v)", val, err)
	}
	if err := scanned.Scan(nil); err != nil || !scanned.IsNil() {
		t.Fatalf("expected Scan(nil) to yield Nil, got %v (err %v)", scanned, err)
	}
	if err := scanned.Scan(42); err == nil {
		t.Fatal("expected error scanning an int")
	}
}

func TestUniqueness(t *testing.T) {
	if a, b := id.NewUserID(), id.NewUserID(); a.String() == b.String() {
		t.Errorf("two NewUserID calls returned the same ID: %q", a.String())
	}
}
