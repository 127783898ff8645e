package datamodel

import (
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"
)

// Op is a comparison operator in a criteria key.
type Op string

const (
	OpExact    Op = "exact"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpContains Op = "contains"
)

// Operators lists every supported operator.
var Operators = []Op{OpExact, OpGt, OpGte, OpLt, OpLte, OpIn, OpContains}

// Lookup is one parsed criteria entry.
type Lookup struct {
	Field string
	Op    Op
	Value any
}

// ParseLookups splits criteria keys of the form "field__op" into lookups.
func ParseLookups(criteria map[string]any) ([]Lookup, error) {
	lookups := make([]Lookup, 0, len(criteria))
	for key, value := range criteria {
		field, op := key, OpExact
		if i := strings.LastIndex(key, "__"); i > 0 {
			field, op = key[:i], Op(key[i+2:])
		}
		if !op.valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLookup, key)
		}
		if op == OpIn {
			if _, ok := value.([]any); !ok {
				return nil, fmt.Errorf("%w: %q expects a list", ErrUnsupportedLookup, key)
			}
		}
		lookups = append(lookups, Lookup{Field: field, Op: op, Value: value})
	}
	return lookups, nil
}

func (o Op) valid() bool {
	for _, op := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Match reports whether have satisfies the lookup.
func (l Lookup) Match(have any) bool {
	switch l.Op {
	case OpExact:
		return Equal(have, l.Value)
	case OpIn:
		for _, v := range l.Value.([]any) {
			if Equal(have, v) {
				return true
			}
		}
		return false
	case OpContains:
		hs, ok1 := have.(string)
		ws, ok2 := l.Value.(string)
		return ok1 && ok2 && strings.Contains(hs, ws)
	}
	c, ok := compare(have, l.Value)
	if !ok {
		return false
	}
	switch l.Op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	default:
		return c <= 0
	}
}

// Normalize converts decoded JSON numbers to int64 when integral and
// float64 otherwise, recursing into lists and objects.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

// Equal compares two field values. Numbers compare by value regardless of
// their Go type.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	as, ok1 := a.(string)
	bs, ok2 := b.(string)
	if !ok1 || !ok2 {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToInt64 converts a primary key value to int64.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
