// Package datamodel exposes named data models through the generic
// "db__<namespace>.<action>_<resource>" methods.
//
// A model is registered under "<namespace>.<resource>". The permission
// "shop.view_item" then reads from the model registered as "shop.item".
package datamodel

import (
	"context"
	"errors"
)

// PKField is the key holding a record's primary key in criteria and in
// dumped records.
const PKField = "pk"

var (
	// ErrNotFound is returned when no record has the requested primary key.
	ErrNotFound = errors.New("datamodel: record not found")

	// ErrUnknownField is returned for fields the model does not define.
	ErrUnknownField = errors.New("datamodel: unknown field")

	// ErrMissingField is returned by Create when a required field is absent.
	ErrMissingField = errors.New("datamodel: missing field")

	// ErrUnsupportedLookup is returned for lookup suffixes a model cannot
	// evaluate.
	ErrUnsupportedLookup = errors.New("datamodel: unsupported lookup")

	// ErrDuplicateModel is returned when a name is registered twice.
	ErrDuplicateModel = errors.New("datamodel: duplicate model")
)

// Record is one stored row.
type Record interface {
	// PK returns the primary key.
	PK() any

	// Fields returns a copy of the record's field values.
	Fields() map[string]any

	// Update sets the given fields and persists the record.
	Update(ctx context.Context, fields map[string]any) error
}

// Model is a queryable collection of records.
//
// Criteria map field lookups to values. A lookup is a field name, optionally
// followed by "__" and an operator from Operators; the key "pk" addresses
// the primary key.
type Model interface {
	// Filter returns every record matching criteria, ordered by primary key.
	Filter(ctx context.Context, criteria map[string]any) ([]Record, error)

	// Create stores a new record built from fields.
	Create(ctx context.Context, fields map[string]any) (Record, error)

	// DeleteMatching removes every record matching criteria.
	DeleteMatching(ctx context.Context, criteria map[string]any) (int64, error)

	// Get returns the record with the given primary key.
	Get(ctx context.Context, pk any) (Record, error)
}

// Dump renders a record as its fields plus its primary key under "pk".
func Dump(r Record) map[string]any {
	out := r.Fields()
	if out == nil {
		out = make(map[string]any, 1)
	}
	out[PKField] = r.PK()
	return out
}
