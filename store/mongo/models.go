package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/user"
)

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type userModel struct {
	grove.BaseModel `grove:"table:rampart_users"`
	ID              string     `grove:"id,pk"         bson:"_id"`
	Username        string     `grove:"username"      bson:"username"`
	PasswordHash    string     `grove:"password_hash" bson:"password_hash"`
	IsActive        bool       `grove:"is_active"     bson:"is_active"`
	IsSuperuser     bool       `grove:"is_superuser"  bson:"is_superuser"`
	LastLoginAt     *time.Time `grove:"last_login_at" bson:"last_login_at,omitempty"`
	CreatedAt       time.Time  `grove:"created_at"    bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"    bson:"updated_at"`
}

func userToModel(u *user.User) *userModel {
	return &userModel{
		ID:           u.ID.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsSuperuser:  u.IsSuperuser,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m *userModel) *user.User {
	uid, _ := id.ParseUserID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &user.User{
		ID:           uid,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		IsSuperuser:  m.IsSuperuser,
		LastLoginAt:  m.LastLoginAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission models
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:rampart_permissions"`
	ID              string    `grove:"id,pk"       bson:"_id"`
	Name            string    `grove:"name"        bson:"name"`
	Namespace       string    `grove:"namespace"   bson:"namespace"`
	Action          string    `grove:"action"      bson:"action"`
	Description     string    `grove:"description" bson:"description"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"  bson:"updated_at"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Name:        p.Name.String(),
		Namespace:   p.Name.Namespace(),
		Action:      string(p.Name.Action()),
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Name:        permission.Name(m.Name),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Link documents carry a synthetic key so the compound unique index
// rejects duplicates.
type userPermissionModel struct {
	grove.BaseModel `grove:"table:rampart_user_permissions"`
	ID              string `grove:"id,pk"         bson:"_id"`
	UserID          string `grove:"user_id"       bson:"user_id"`
	PermissionID    string `grove:"permission_id" bson:"permission_id"`
}

// ──────────────────────────────────────────────────
// Group models
// ──────────────────────────────────────────────────

type groupModel struct {
	grove.BaseModel `grove:"table:rampart_groups"`
	ID              string    `grove:"id,pk"       bson:"_id"`
	Name            string    `grove:"name"        bson:"name"`
	Description     string    `grove:"description" bson:"description"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"  bson:"updated_at"`
}

func groupToModel(g *group.Group) *groupModel {
	return &groupModel{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func groupFromModel(m *groupModel) *group.Group {
	gid, _ := id.ParseGroupID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &group.Group{
		ID:          gid,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type groupPermissionModel struct {
	grove.BaseModel `grove:"table:rampart_group_permissions"`
	ID              string `grove:"id,pk"         bson:"_id"`
	GroupID         string `grove:"group_id"      bson:"group_id"`
	PermissionID    string `grove:"permission_id" bson:"permission_id"`
}

type groupMemberModel struct {
	grove.BaseModel `grove:"table:rampart_group_members"`
	ID              string `grove:"id,pk"    bson:"_id"`
	GroupID         string `grove:"group_id" bson:"group_id"`
	UserID          string `grove:"user_id"  bson:"user_id"`
}

// linkID derives the key of a link document from its two ends.
func linkID(a, b string) string { return a + ":" + b }

// ──────────────────────────────────────────────────
// Session model
// ──────────────────────────────────────────────────

type sessionModel struct {
	grove.BaseModel `grove:"table:rampart_sessions"`
	Token           string     `grove:"token,pk"   bson:"_id"`
	UserID          string     `grove:"user_id"    bson:"user_id"`
	CreatedAt       time.Time  `grove:"created_at" bson:"created_at"`
	ExpiresAt       *time.Time `grove:"expires_at" bson:"expires_at,omitempty"`
}

func sessionToModel(s *session.Session) *sessionModel {
	m := &sessionModel{
		Token:     s.Token,
		UserID:    s.UserID.String(),
		CreatedAt: s.CreatedAt,
	}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		m.ExpiresAt = &t
	}
	return m
}

func sessionFromModel(m *sessionModel) *session.Session {
	uid, _ := id.ParseUserID(m.UserID) //nolint:errcheck // stored IDs are always valid
	s := &session.Session{
		Token:     m.Token,
		UserID:    uid,
		CreatedAt: m.CreatedAt,
	}
	if m.ExpiresAt != nil {
		s.ExpiresAt = *m.ExpiresAt
	}
	return s
}

// ──────────────────────────────────────────────────
// Auth log model
// ──────────────────────────────────────────────────

type authLogModel struct {
	grove.BaseModel `grove:"table:rampart_auth_logs"`
	ID              string    `grove:"id,pk"      bson:"_id"`
	Username        string    `grove:"username"   bson:"username"`
	UserID          string    `grove:"user_id"    bson:"user_id,omitempty"`
	Outcome         string    `grove:"outcome"    bson:"outcome"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
}

func authLogToModel(e *authlog.Entry) *authLogModel {
	return &authLogModel{
		ID:        e.ID.String(),
		Username:  e.Username,
		UserID:    e.UserID.String(),
		Outcome:   string(e.Outcome),
		CreatedAt: e.CreatedAt,
	}
}

func authLogFromModel(m *authLogModel) *authlog.Entry {
	alid, _ := id.ParseAuthLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	e := &authlog.Entry{
		ID:        alid,
		Username:  m.Username,
		Outcome:   authlog.Outcome(m.Outcome),
		CreatedAt: m.CreatedAt,
	}
	if m.UserID != "" {
		e.UserID, _ = id.ParseUserID(m.UserID) //nolint:errcheck // stored IDs are always valid
	}
	return e
}
