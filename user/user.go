// Package user defines the User account entity and its store interface.
package user

import (
	"time"

	"github.com/xraph/rampart/id"
)

// User is an account that can log in over a connection.
type User struct {
	ID           id.UserID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing users.
type ListFilter struct {
	IsActive    *bool  `json:"is_active,omitempty"`
	IsSuperuser *bool  `json:"is_superuser,omitempty"`
	Search      string `json:"search,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}
