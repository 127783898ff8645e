package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the rampart store (SQLite).
var Migrations = migrate.NewGroup("rampart")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_users",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_users (
    id              TEXT PRIMARY KEY,
    username        TEXT NOT NULL UNIQUE,
    password_hash   TEXT NOT NULL DEFAULT '',
    is_active       INTEGER NOT NULL DEFAULT 1,
    is_superuser    INTEGER NOT NULL DEFAULT 0,
    last_login_at   TEXT,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_permissions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_permissions (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    namespace       TEXT NOT NULL,
    action          TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rampart_permissions_ns ON rampart_permissions (namespace, action);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_user_permissions",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_user_permissions (
    user_id         TEXT NOT NULL REFERENCES rampart_users(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES rampart_permissions(id) ON DELETE CASCADE,

    PRIMARY KEY (user_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_rampart_user_perms_perm ON rampart_user_permissions (permission_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_user_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_groups",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_groups (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_groups`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_group_permissions",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_group_permissions (
    group_id        TEXT NOT NULL REFERENCES rampart_groups(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES rampart_permissions(id) ON DELETE CASCADE,

    PRIMARY KEY (group_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_rampart_group_perms_perm ON rampart_group_permissions (permission_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_group_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_group_members",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_group_members (
    group_id        TEXT NOT NULL REFERENCES rampart_groups(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL REFERENCES rampart_users(id) ON DELETE CASCADE,

    PRIMARY KEY (group_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_rampart_group_members_user ON rampart_group_members (user_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_group_members`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sessions",
			Version: "20240101000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_sessions (
    token           TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES rampart_users(id) ON DELETE CASCADE,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    expires_at      TEXT
);

CREATE INDEX IF NOT EXISTS idx_rampart_sessions_user ON rampart_sessions (user_id);
CREATE INDEX IF NOT EXISTS idx_rampart_sessions_expires ON rampart_sessions (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_sessions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_auth_logs",
			Version: "20240101000008",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_auth_logs (
    id              TEXT PRIMARY KEY,
    username        TEXT NOT NULL DEFAULT '',
    user_id         TEXT NOT NULL DEFAULT '',
    outcome         TEXT NOT NULL,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rampart_auth_logs_username ON rampart_auth_logs (username);
CREATE INDEX IF NOT EXISTS idx_rampart_auth_logs_user ON rampart_auth_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_rampart_auth_logs_created ON rampart_auth_logs (created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_auth_logs`)
				return err
			},
		},
	)
}
