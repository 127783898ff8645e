package datamodel

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func TestParseLookups(t *testing.T) {
	lookups, err := ParseLookups(map[string]any{"number__gt": int64(3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(lookups) != 1 || lookups[0].Field != "number" || lookups[0].Op != OpGt {
		t.Fatalf("unexpected lookups %+v", lookups)
	}

	lookups, _ = ParseLookups(map[string]any{"client_id": int64(3)})
	if lookups[0].Field != "client_id" || lookups[0].Op != OpExact {
		t.Fatalf("plain keys are exact lookups, got %+v", lookups[0])
	}

	if _, err := ParseLookups(map[string]any{"number__near": 1}); !errors.Is(err, ErrUnsupportedLookup) {
		t.Fatalf("expected ErrUnsupportedLookup, got %v", err)
	}
	if _, err := ParseLookups(map[string]any{"number__in": 1}); !errors.Is(err, ErrUnsupportedLookup) {
		t.Fatalf("__in requires a list, got %v", err)
	}
}

func TestLookupMatch(t *testing.T) {
	tests := []struct {
		lookup Lookup
		have   any
		want   bool
	}{
		{Lookup{Op: OpExact, Value: int64(3)}, 3.0, true},
		{Lookup{Op: OpExact, Value: "a"}, "a", true},
		{Lookup{Op: OpExact, Value: "3"}, int64(3), false},
		{Lookup{Op: OpExact, Value: nil}, nil, true},
		{Lookup{Op: OpGt, Value: int64(3)}, int64(4), true},
		{Lookup{Op: OpGte, Value: int64(3)}, int64(3), true},
		{Lookup{Op: OpLt, Value: int64(3)}, int64(3), false},
		{Lookup{Op: OpLte, Value: "b"}, "a", true},
		{Lookup{Op: OpGt, Value: "a"}, int64(1), false},
		{Lookup{Op: OpIn, Value: []any{int64(1), "x"}}, "x", true},
		{Lookup{Op: OpIn, Value: []any{int64(1)}}, int64(2), false},
		{Lookup{Op: OpContains, Value: "ell"}, "hello", true},
		{Lookup{Op: OpContains, Value: "ell"}, int64(1), false},
	}
	for i, tt := range tests {
		if got := tt.lookup.Match(tt.have); got != tt.want {
			t.Errorf("case %d: Match(%v) = %v, want %v", i, tt.have, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(map[string]any{
		"i": json.Number("7"),
		"f": json.Number("1.5"),
		"l": []any{json.Number("2")},
	}).(map[string]any)
	if got["i"] != int64(7) || got["f"] != 1.5 || got["l"].([]any)[0] != int64(2) {
		t.Fatalf("unexpected normalization %v", got)
	}
}

func TestToInt64(t *testing.T) {
	if n, ok := ToInt64(2.0); !ok || n != 2 {
		t.Fatal("integral floats convert")
	}
	if _, ok := ToInt64(2.5); ok {
		t.Fatal("fractional floats do not convert")
	}
	if _, ok := ToInt64("2"); ok {
		t.Fatal("strings do not convert")
	}
}
