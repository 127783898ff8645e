package datamodel

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/rpc"
)

// Adapter serves the generic data methods. Every failure of the underlying
// model is reported to the caller as invalid params.
type Adapter struct {
	models *Registry
	logger *slog.Logger
}

// NewAdapter creates an adapter over models.
func NewAdapter(models *Registry, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{models: models, logger: logger}
}

// Dispatch runs the action named by perm with the given params.
//
//	view    params are criteria; returns the matching records
//	add     params are the new record's fields; returns the record
//	change  params are fields plus "pk"; returns true
//	delete  params are criteria; returns true
func (a *Adapter) Dispatch(ctx context.Context, perm permission.Name, params json.RawMessage) (any, error) {
	m, ok := a.models.Lookup(perm)
	if !ok {
		a.logger.Warn("datamodel: no model for permission", slog.String("permission", perm.String()))
		return nil, fmt.Errorf("%w: no model for %s", rpc.ErrInvalidParams, perm)
	}

	obj, err := decodeObject(params)
	if err != nil {
		return nil, err
	}

	switch perm.Action() {
	case permission.ActionView:
		records, err := m.Filter(ctx, obj)
		if err != nil {
			return nil, a.fail(perm, err)
		}
		out := make([]map[string]any, len(records))
		for i, r := range records {
			out[i] = Dump(r)
		}
		return out, nil

	case permission.ActionAdd:
		if len(obj) == 0 {
			return nil, fmt.Errorf("%w: no fields given", rpc.ErrInvalidParams)
		}
		r, err := m.Create(ctx, obj)
		if err != nil {
			return nil, a.fail(perm, err)
		}
		return Dump(r), nil

	case permission.ActionChange:
		pk, ok := obj[PKField]
		if !ok {
			return nil, fmt.Errorf("%w: %q is required", rpc.ErrInvalidParams, PKField)
		}
		delete(obj, PKField)
		r, err := m.Get(ctx, pk)
		if err != nil {
			return nil, a.fail(perm, err)
		}
		if err := r.Update(ctx, obj); err != nil {
			return nil, a.fail(perm, err)
		}
		return true, nil

	case permission.ActionDelete:
		if _, err := m.DeleteMatching(ctx, obj); err != nil {
			return nil, a.fail(perm, err)
		}
		return true, nil
	}
	return nil, fmt.Errorf("%w: unsupported action %q", rpc.ErrInvalidParams, perm.Action())
}

func (a *Adapter) fail(perm permission.Name, err error) error {
	a.logger.Warn("datamodel: operation failed",
		slog.String("permission", perm.String()),
		slog.String("error", err.Error()),
	)
	return rpc.ErrInvalidParams
}

// decodeObject decodes params into a field map. Falsy params (absent, null,
// false, 0, "", [] and {}) yield an empty map; anything else that is not an
// object is rejected.
func decodeObject(params json.RawMessage) (map[string]any, error) {
	params = bytes.TrimSpace(params)
	if len(params) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", rpc.ErrInvalidParams, err)
	}
	if falsy(v) {
		return map[string]any{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object", rpc.ErrInvalidParams)
	}
	return Normalize(obj).(map[string]any), nil
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
