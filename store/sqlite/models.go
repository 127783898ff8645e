package sqlite

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
	ID              string     `grove:"id,pk"`
	Username        string     `grove:"username,notnull"`
	PasswordHash    string     `grove:"password_hash,notnull"`
	IsActive        bool       `grove:"is_active,notnull"`
	IsSuperuser     bool       `grove:"is_superuser,notnull"`
	LastLoginAt     *time.Time `grove:"last_login_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	UpdatedAt       time.Time  `grove:"updated_at,notnull"`
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
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Namespace       string    `grove:"namespace,notnull"`
	Action          string    `grove:"action,notnull"`
	Description     string    `grove:"description"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
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

type userPermissionModel struct {
	grove.BaseModel `grove:"table:rampart_user_permissions"`
	UserID          string `grove:"user_id,pk"`
	PermissionID    string `grove:"permission_id,pk"`
}

// ──────────────────────────────────────────────────
// Group models
// ──────────────────────────────────────────────────

type groupModel struct {
	grove.BaseModel `grove:"table:rampart_groups"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
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
	GroupID         string `grove:"group_id,pk"`
	PermissionID    string `grove:"permission_id,pk"`
}

type groupMemberModel struct {
	grove.BaseModel `grove:"table:rampart_group_members"`
	GroupID         string `grove:"group_id,pk"`
	UserID          string `grove:"user_id,pk"`
}

// ──────────────────────────────────────────────────
// Session model
// ──────────────────────────────────────────────────

type sessionModel struct {
	grove.BaseModel `grove:"table:rampart_sessions"`
	Token           string     `grove:"token,pk"`
	UserID          string     `grove:"user_id,notnull"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	ExpiresAt       *time.Time `grove:"expires_at"`
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
	ID              string    `grove:"id,pk"`
	Username        string    `grove:"username,notnull"`
	UserID          string    `grove:"user_id"`
	Outcome         string    `grove:"outcome,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
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
