package rampart

import (
	"sort"
	"time"

	"github.com/xraph/rampart/permission"
)

// Identity is the principal behind a connection. It is immutable; a nil
// *Identity behaves as Anonymous.
type Identity struct {
	authenticated bool
	userID        string
	username      string
	superuser     bool
	active        bool
	perms         map[permission.Name]struct{}
	sessionExpiry time.Time
}

// Attributes describe an authenticated identity.
type Attributes struct {
	UserID      string
	Username    string
	IsSuperuser bool
	IsActive    bool
	Permissions []permission.Name

	// SessionExpiresAt is when the session this identity was resolved
	// from stops being valid. Zero means no known deadline.
	SessionExpiresAt time.Time
}

var anonymous = &Identity{}

// Anonymous returns the unauthenticated identity: inactive, not a
// superuser, no permissions.
func Anonymous() *Identity { return anonymous }

// Authenticated builds an identity for a known user.
func Authenticated(a Attributes) *Identity {
	perms := make(map[permission.Name]struct{}, len(a.Permissions))
	for _, p := range a.Permissions {
		perms[p] = struct{}{}
	}
	return &Identity{
		authenticated: true,
		userID:        a.UserID,
		username:      a.Username,
		superuser:     a.IsSuperuser,
		active:        a.IsActive,
		perms:         perms,
		sessionExpiry: a.SessionExpiresAt,
	}
}

// IsAnonymous reports whether i is the unauthenticated identity.
func (i *Identity) IsAnonymous() bool { return i == nil || !i.authenticated }

// UserID returns the user's ID, or "" for Anonymous.
func (i *Identity) UserID() string {
	if i == nil {
		return ""
	}
	return i.userID
}

// Username returns the user's login name, or "" for Anonymous.
func (i *Identity) Username() string {
	if i == nil {
		return ""
	}
	return i.username
}

// IsActive reports whether the account may use login-required methods.
func (i *Identity) IsActive() bool { return i != nil && i.authenticated && i.active }

// IsSuperuser reports whether permission checks and predicates are
// bypassed for i.
func (i *Identity) IsSuperuser() bool { return i != nil && i.authenticated && i.superuser }

// SessionExpiresAt returns the deadline of the session i was resolved
// from, or the zero time when none is known.
func (i *Identity) SessionExpiresAt() time.Time {
	if i == nil {
		return time.Time{}
	}
	return i.sessionExpiry
}

// HasPerm reports whether i holds the permission.
func (i *Identity) HasPerm(p permission.Name) bool {
	if i == nil {
		return false
	}
	_, ok := i.perms[p]
	return ok
}

// HasPerms reports whether i holds every listed permission.
func (i *Identity) HasPerms(perms ...permission.Name) bool {
	for _, p := range perms {
		if !i.HasPerm(p) {
			return false
		}
	}
	return true
}

// Permissions returns the identity's permissions in sorted order.
func (i *Identity) Permissions() []permission.Name {
	if i == nil {
		return nil
	}
	out := make([]permission.Name, 0, len(i.perms))
	for p := range i.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

func (i *Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	return i.username
}
