// Package group defines permission groups. A user holds every permission of
// every group it belongs to.
package group

import (
	"time"

	"github.com/xraph/rampart/id"
)

// Group is a named bundle of permissions.
type Group struct {
	ID          id.GroupID `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing groups.
type ListFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
