package authlog

import (
	"context"
	"time"
)

// Store defines persistence operations for authentication logs.
type Store interface {
	// CreateAuthLog persists a new entry.
	CreateAuthLog(ctx context.Context, e *Entry) error

	// ListAuthLogs returns entries matching the filter, newest first.
	ListAuthLogs(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// PurgeAuthLogs removes entries older than the given time.
	PurgeAuthLogs(ctx context.Context, before time.Time) (int64, error)
}
