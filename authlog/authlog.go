// Package authlog defines the authentication audit log.
package authlog

import (
	"time"

	"github.com/xraph/rampart/id"
)

// Outcome is the result of an authentication attempt.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeBadPassword Outcome = "bad_password"
	OutcomeUnknownUser Outcome = "unknown_user"
	OutcomeInactive    Outcome = "inactive"
	OutcomeLogout      Outcome = "logout"
)

// Entry is one authentication event.
type Entry struct {
	ID        id.AuthLogID `json:"id" db:"id"`
	Username  string       `json:"username" db:"username"`
	UserID    id.UserID    `json:"user_id,omitempty" db:"user_id"`
	Outcome   Outcome      `json:"outcome" db:"outcome"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying the log.
type QueryFilter struct {
	Username string     `json:"username,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	Outcome  Outcome    `json:"outcome,omitempty"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
