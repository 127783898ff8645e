// Package memory provides an in-memory datamodel.Model with a fixed field
// set and auto-incrementing integer primary keys.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/xraph/rampart/datamodel"
)

var _ datamodel.Model = (*Model)(nil)

// Model stores rows in a map keyed by primary key.
type Model struct {
	mu     sync.RWMutex
	fields []string
	rows   map[int64]map[string]any
	nextPK int64
}

// New creates a model whose records carry exactly the given fields. Every
// field is required on create.
func New(fields ...string) *Model {
	return &Model{fields: fields, rows: make(map[int64]map[string]any)}
}

// Len returns the number of stored records.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Model) Filter(_ context.Context, criteria map[string]any) ([]datamodel.Record, error) {
	lookups, err := m.lookups(criteria)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []datamodel.Record
	for _, pk := range m.sortedPKs() {
		row := m.rows[pk]
		if matches(pk, row, lookups) {
			out = append(out, &record{model: m, pk: pk, fields: maps.Clone(row)})
		}
	}
	return out, nil
}

func (m *Model) Create(_ context.Context, fields map[string]any) (datamodel.Record, error) {
	if err := m.checkFields(fields); err != nil {
		return nil, err
	}
	for _, f := range m.fields {
		if _, ok := fields[f]; !ok {
			return nil, fmt.Errorf("%w: %s", datamodel.ErrMissingField, f)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPK++
	pk := m.nextPK
	m.rows[pk] = maps.Clone(fields)
	return &record{model: m, pk: pk, fields: maps.Clone(fields)}, nil
}

func (m *Model) DeleteMatching(_ context.Context, criteria map[string]any) (int64, error) {
	lookups, err := m.lookups(criteria)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for pk, row := range m.rows {
		if matches(pk, row, lookups) {
			delete(m.rows, pk)
			n++
		}
	}
	return n, nil
}

func (m *Model) Get(_ context.Context, pk any) (datamodel.Record, error) {
	key, ok := datamodel.ToInt64(pk)
	if !ok {
		return nil, fmt.Errorf("%w: pk %v", datamodel.ErrNotFound, pk)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[key]
	if !ok {
		return nil, fmt.Errorf("%w: pk %d", datamodel.ErrNotFound, key)
	}
	return &record{model: m, pk: key, fields: maps.Clone(row)}, nil
}

func (m *Model) lookups(criteria map[string]any) ([]datamodel.Lookup, error) {
	lookups, err := datamodel.ParseLookups(criteria)
	if err != nil {
		return nil, err
	}
	for _, l := range lookups {
		if l.Field != datamodel.PKField && !slices.Contains(m.fields, l.Field) {
			return nil, fmt.Errorf("%w: %s", datamodel.ErrUnknownField, l.Field)
		}
	}
	return lookups, nil
}

func (m *Model) checkFields(fields map[string]any) error {
	for f := range fields {
		if !slices.Contains(m.fields, f) {
			return fmt.Errorf("%w: %s", datamodel.ErrUnknownField, f)
		}
	}
	return nil
}

func (m *Model) sortedPKs() []int64 {
	return slices.Sorted(maps.Keys(m.rows))
}

func matches(pk int64, row map[string]any, lookups []datamodel.Lookup) bool {
	for _, l := range lookups {
		var have any = pk
		if l.Field != datamodel.PKField {
			have = row[l.Field]
		}
		if !l.Match(have) {
			return false
		}
	}
	return true
}

type record struct {
	model  *Model
	pk     int64
	fields map[string]any
}

func (r *record) PK() any { return r.pk }

func (r *record) Fields() map[string]any { return maps.Clone(r.fields) }

func (r *record) Update(_ context.Context, fields map[string]any) error {
	if err := r.model.checkFields(fields); err != nil {
		return err
	}
	r.model.mu.Lock()
	defer r.model.mu.Unlock()
	row, ok := r.model.rows[r.pk]
	if !ok {
		return fmt.Errorf("%w: pk %d", datamodel.ErrNotFound, r.pk)
	}
	for k, v := range fields {
		row[k] = v
		r.fields[k] = v
	}
	return nil
}
