// Package permission defines permission names, the Permission entity and
// its store interface.
package permission

import (
	"time"

	"github.com/xraph/rampart/id"
)

// Permission is a named capability that can be granted to users directly or
// through groups.
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Name        Name            `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	Namespace string `json:"namespace,omitempty"`
	Action    Action `json:"action,omitempty"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Matches reports whether p passes the non-paging parts of the filter.
func (f *ListFilter) Matches(p *Permission) bool {
	if f == nil {
		return true
	}
	if f.Namespace != "" && p.Name.Namespace() != f.Namespace {
		return false
	}
	if f.Action != "" && p.Name.Action() != f.Action {
		return false
	}
	return true
}
