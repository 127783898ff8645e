// Package postgres provides a PostgreSQL implementation of the rampart
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/store"
	"github.com/xraph/rampart/user"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite rampart store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("rampart/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("rampart/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	n, err := s.pgdb.NewSelect((*userModel)(nil)).Where("username = ?", u.Username).Count(ctx)
	if err != nil {
		return fmt.Errorf("rampart: create user: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("user %q: %w", u.Username, rampart.ErrDuplicateUsername)
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if _, err := s.pgdb.NewInsert(userToModel(u)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	m := new(userModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", userID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", userID, rampart.ErrUserNotFound)
		}
		return nil, fmt.Errorf("rampart: get user: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	m := new(userModel)
	err := s.pgdb.NewSelect(m).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %q: %w", username, rampart.ErrUserNotFound)
		}
		return nil, fmt.Errorf("rampart: get user by username: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	n, err := s.pgdb.NewSelect((*userModel)(nil)).
		Where("username = ?", u.Username).
		Where("id <> ?", u.ID.String()).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("rampart: update user: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("user %q: %w", u.Username, rampart.ErrDuplicateUsername)
	}
	u.UpdatedAt = time.Now().UTC()
	res, err := s.pgdb.NewUpdate(userToModel(u)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: update user: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("user %s: %w", u.ID, rampart.ErrUserNotFound)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("rampart: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	uid := userID.String()
	if _, err := tx.NewDelete((*userPermissionModel)(nil)).Where("user_id = ?", uid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user permissions: %w", err)
	}
	if _, err := tx.NewDelete((*groupMemberModel)(nil)).Where("user_id = ?", uid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user memberships: %w", err)
	}
	if _, err := tx.NewDelete((*sessionModel)(nil)).Where("user_id = ?", uid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user sessions: %w", err)
	}
	if _, err := tx.NewDelete((*userModel)(nil)).Where("id = ?", uid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	var models []userModel
	q := s.pgdb.NewSelect(&models).OrderExpr("username ASC")
	if filter != nil {
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.IsSuperuser != nil {
			q = q.Where("is_superuser = ?", *filter.IsSuperuser)
		}
		if filter.Search != "" {
			q = q.Where("username ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list users: %w", err)
	}
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = userFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	n, err := s.pgdb.NewSelect((*permissionModel)(nil)).Where("name = ?", p.Name.String()).Count(ctx)
	if err != nil {
		return fmt.Errorf("rampart: create permission: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("permission %q: %w", p.Name, rampart.ErrDuplicatePermission)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.pgdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", permID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, rampart.ErrPermissionNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) GetPermissionByName(ctx context.Context, name permission.Name) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.pgdb.NewSelect(m).Where("name = ?", name.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %q: %w", name, rampart.ErrPermissionNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission by name: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("rampart: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	pid := permID.String()
	if _, err := tx.NewDelete((*userPermissionModel)(nil)).Where("permission_id = ?", pid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete permission grants: %w", err)
	}
	if _, err := tx.NewDelete((*groupPermissionModel)(nil)).Where("permission_id = ?", pid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete permission grants: %w", err)
	}
	if _, err := tx.NewDelete((*permissionModel)(nil)).Where("id = ?", pid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete permission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.pgdb.NewSelect(&models).OrderExpr("name ASC")
	if filter != nil {
		if filter.Namespace != "" {
			q = q.Where("namespace = ?", filter.Namespace)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", string(filter.Action))
		}
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) GrantUserPermission(ctx context.Context, userID id.UserID, permID id.PermissionID) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.GetPermission(ctx, permID); err != nil {
		return err
	}
	m := &userPermissionModel{
		UserID:       userID.String(),
		PermissionID: permID.String(),
	}
	_, err := s.pgdb.NewInsert(m).
		OnConflict("(user_id, permission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: grant permission: %w", err)
	}
	return nil
}

func (s *Store) RevokeUserPermission(ctx context.Context, userID id.UserID, permID id.PermissionID) error {
	_, err := s.pgdb.NewDelete((*userPermissionModel)(nil)).
		Where("user_id = ?", userID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: revoke permission: %w", err)
	}
	return nil
}

func (s *Store) ListUserPermissions(ctx context.Context, userID id.UserID) ([]*permission.Permission, error) {
	var models []permissionModel
	err := s.pgdb.NewSelect(&models).
		Join("JOIN", "rampart_user_permissions AS up", "up.permission_id = rampart_permissions.id").
		Where("up.user_id = ?", userID.String()).
		OrderExpr("rampart_permissions.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: list user permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) ListEffectivePermissions(ctx context.Context, userID id.UserID) ([]permission.Name, error) {
	// Direct grants plus grants through every group the user belongs to.
	uid := userID.String()
	var models []permissionModel
	err := s.pgdb.NewSelect(&models).
		Where(`rampart_permissions.id IN (
    SELECT up.permission_id FROM rampart_user_permissions AS up WHERE up.user_id = ?
    UNION
    SELECT gp.permission_id FROM rampart_group_permissions AS gp
    JOIN rampart_group_members AS gm ON gm.group_id = gp.group_id
    WHERE gm.user_id = ?
)`, uid, uid).
		OrderExpr("rampart_permissions.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: list effective permissions: %w", err)
	}
	names := make([]permission.Name, len(models))
	for i := range models {
		names[i] = permission.Name(models[i].Name)
	}
	return names, nil
}

func permissionsFromModels(models []permissionModel) []*permission.Permission {
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result
}

// ──────────────────────────────────────────────────
// Group operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	n, err := s.pgdb.NewSelect((*groupModel)(nil)).Where("name = ?", g.Name).Count(ctx)
	if err != nil {
		return fmt.Errorf("rampart: create group: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("group %q: %w", g.Name, rampart.ErrDuplicateGroup)
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.pgdb.NewInsert(groupToModel(g)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	m := new(groupModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", groupID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("group %s: %w", groupID, rampart.ErrGroupNotFound)
		}
		return nil, fmt.Errorf("rampart: get group: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) GetGroupByName(ctx context.Context, name string) (*group.Group, error) {
	m := new(groupModel)
	err := s.pgdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("group %q: %w", name, rampart.ErrGroupNotFound)
		}
		return nil, fmt.Errorf("rampart: get group by name: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("rampart: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	gid := groupID.String()
	if _, err := tx.NewDelete((*groupPermissionModel)(nil)).Where("group_id = ?", gid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete group permissions: %w", err)
	}
	if _, err := tx.NewDelete((*groupMemberModel)(nil)).Where("group_id = ?", gid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete group members: %w", err)
	}
	if _, err := tx.NewDelete((*groupModel)(nil)).Where("id = ?", gid).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	var models []groupModel
	q := s.pgdb.NewSelect(&models).OrderExpr("name ASC")
	if filter != nil {
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list groups: %w", err)
	}
	result := make([]*group.Group, len(models))
	for i := range models {
		result[i] = groupFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) AttachPermission(ctx context.Context, groupID id.GroupID, permID id.PermissionID) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.GetPermission(ctx, permID); err != nil {
		return err
	}
	m := &groupPermissionModel{
		GroupID:      groupID.String(),
		PermissionID: permID.String(),
	}
	_, err := s.pgdb.NewInsert(m).
		OnConflict("(group_id, permission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, groupID id.GroupID, permID id.PermissionID) error {
	_, err := s.pgdb.NewDelete((*groupPermissionModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: detach permission: %w", err)
	}
	return nil
}

func (s *Store) ListGroupPermissions(ctx context.Context, groupID id.GroupID) ([]id.PermissionID, error) {
	var models []groupPermissionModel
	err := s.pgdb.NewSelect(&models).
		Where("group_id = ?", groupID.String()).
		OrderExpr("permission_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: list group permissions: %w", err)
	}
	result := make([]id.PermissionID, 0, len(models))
	for _, m := range models {
		pid, err := id.ParsePermissionID(m.PermissionID)
		if err == nil {
			result = append(result, pid)
		}
	}
	return result, nil
}

func (s *Store) AddMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	m := &groupMemberModel{
		GroupID: groupID.String(),
		UserID:  userID.String(),
	}
	_, err := s.pgdb.NewInsert(m).
		OnConflict("(group_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: add member: %w", err)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	_, err := s.pgdb.NewDelete((*groupMemberModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Where("user_id = ?", userID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: remove member: %w", err)
	}
	return nil
}

func (s *Store) ListUserGroups(ctx context.Context, userID id.UserID) ([]id.GroupID, error) {
	var models []groupMemberModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID.String()).
		OrderExpr("group_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: list user groups: %w", err)
	}
	result := make([]id.GroupID, 0, len(models))
	for _, m := range models {
		gid, err := id.ParseGroupID(m.GroupID)
		if err == nil {
			result = append(result, gid)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Session operations
// ──────────────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	if _, err := s.pgdb.NewInsert(sessionToModel(sess)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (*session.Session, error) {
	m := new(sessionModel)
	err := s.pgdb.NewSelect(m).Where("token = ?", token).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rampart.ErrSessionNotFound
		}
		return nil, fmt.Errorf("rampart: get session: %w", err)
	}
	return sessionFromModel(m), nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.pgdb.NewDelete((*sessionModel)(nil)).
		Where("token = ?", token).Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID id.UserID) (int64, error) {
	res, err := s.pgdb.NewDelete((*sessionModel)(nil)).
		Where("user_id = ?", userID.String()).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: delete user sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rampart: delete user sessions rows: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*sessionModel)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rampart: purge sessions rows: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Auth log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuthLog(ctx context.Context, e *authlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.pgdb.NewInsert(authLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create auth log: %w", err)
	}
	return nil
}

func (s *Store) ListAuthLogs(ctx context.Context, filter *authlog.QueryFilter) ([]*authlog.Entry, error) {
	var models []authLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.Username != "" {
			q = q.Where("username = ?", filter.Username)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", string(filter.Outcome))
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list auth logs: %w", err)
	}
	result := make([]*authlog.Entry, len(models))
	for i := range models {
		result[i] = authLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) PurgeAuthLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*authLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: purge auth logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rampart: purge auth logs rows: %w", err)
	}
	return n, nil
}
