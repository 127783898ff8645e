// Package mongo provides a MongoDB implementation of the rampart composite
// store using grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/store"
	"github.com/xraph/rampart/user"
)

// Collection name constants.
const (
	colUsers            = "rampart_users"
	colPermissions      = "rampart_permissions"
	colUserPermissions  = "rampart_user_permissions"
	colGroups           = "rampart_groups"
	colGroupPermissions = "rampart_group_permissions"
	colGroupMembers     = "rampart_group_members"
	colSessions         = "rampart_sessions"
	colAuthLogs         = "rampart_auth_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite rampart store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all rampart collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("rampart/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all rampart collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colPermissions: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "namespace", Value: 1}, {Key: "action", Value: 1}}},
		},
		colUserPermissions: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "permission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colGroups: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colGroupPermissions: {
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "permission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colGroupMembers: {
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colSessions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			// TTL index: documents are removed once expires_at has passed.
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		colAuthLogs: {
			{Keys: bson.D{{Key: "username", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	t := now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = t
	}
	u.UpdatedAt = t
	if _, err := s.mdb.NewInsert(userToModel(u)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %q: %w", u.Username, rampart.ErrDuplicateUsername)
		}
		return fmt.Errorf("rampart: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %s: %w", userID, rampart.ErrUserNotFound)
		}
		return nil, fmt.Errorf("rampart: get user: %w", err)
	}
	return userFromModel(&m), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"username": username}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %q: %w", username, rampart.ErrUserNotFound)
		}
		return nil, fmt.Errorf("rampart: get user by username: %w", err)
	}
	return userFromModel(&m), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = now()
	m := userToModel(u)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %q: %w", u.Username, rampart.ErrDuplicateUsername)
		}
		return fmt.Errorf("rampart: update user: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, rampart.ErrUserNotFound)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	uid := userID.String()
	if _, err := s.mdb.NewDelete((*userPermissionModel)(nil)).Many().Filter(bson.M{"user_id": uid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user permissions: %w", err)
	}
	if _, err := s.mdb.NewDelete((*groupMemberModel)(nil)).Many().Filter(bson.M{"user_id": uid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user memberships: %w", err)
	}
	if _, err := s.mdb.NewDelete((*sessionModel)(nil)).Many().Filter(bson.M{"user_id": uid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user sessions: %w", err)
	}
	if _, err := s.mdb.NewDelete((*userModel)(nil)).Filter(bson.M{"_id": uid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	var models []userModel
	f := bson.M{}
	if filter != nil {
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
		if filter.IsSuperuser != nil {
			f["is_superuser"] = *filter.IsSuperuser
		}
		if filter.Search != "" {
			f["username"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "username", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	if _, err := s.mdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("permission %q: %w", p.Name, rampart.ErrDuplicatePermission)
		}
		return fmt.Errorf("rampart: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": permID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, rampart.ErrPermissionNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissionByName(ctx context.Context, name permission.Name) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %q: %w", name, rampart.ErrPermissionNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission by name: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	pid := permID.String()
	if _, err := s.mdb.NewDelete((*userPermissionModel)(nil)).Many().Filter(bson.M{"permission_id": pid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete permission grants: %w", err)
	}
	if _, err := s.mdb.NewDelete((*groupPermissionModel)(nil)).Many().Filter(bson.M{"permission_id": pid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete permission grants: %w", err)
	}
	if _, err := s.mdb.NewDelete((*permissionModel)(nil)).Filter(bson.M{"_id": pid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete permission: %w", err)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	f := bson.M{}
	if filter != nil {
		if filter.Namespace != "" {
			f["namespace"] = filter.Namespace
		}
		if filter.Action != "" {
			f["action"] = string(filter.Action)
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
		ID:           linkID(userID.String(), permID.String()),
		UserID:       userID.String(),
		PermissionID: permID.String(),
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already granted
		}
		return fmt.Errorf("rampart: grant permission: %w", err)
	}
	return nil
}

func (s *Store) RevokeUserPermission(ctx context.Context, userID id.UserID, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*userPermissionModel)(nil)).
		Filter(bson.M{"user_id": userID.String(), "permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: revoke permission: %w", err)
	}
	return nil
}

func (s *Store) ListUserPermissions(ctx context.Context, userID id.UserID) ([]*permission.Permission, error) {
	permIDs, err := s.userPermissionIDs(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	return s.permissionsByID(ctx, permIDs)
}

func (s *Store) ListEffectivePermissions(ctx context.Context, userID id.UserID) ([]permission.Name, error) {
	uid := userID.String()
	permIDs, err := s.userPermissionIDs(ctx, uid)
	if err != nil {
		return nil, err
	}

	var members []groupMemberModel
	if err := s.mdb.NewFind(&members).Filter(bson.M{"user_id": uid}).Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list effective permissions: %w", err)
	}
	if len(members) > 0 {
		groupIDs := make([]string, len(members))
		for i, m := range members {
			groupIDs[i] = m.GroupID
		}
		var grants []groupPermissionModel
		if err := s.mdb.NewFind(&grants).
			Filter(bson.M{"group_id": bson.M{"$in": groupIDs}}).
			Scan(ctx); err != nil {
			return nil, fmt.Errorf("rampart: list effective permissions: %w", err)
		}
		for _, g := range grants {
			permIDs = append(permIDs, g.PermissionID)
		}
	}

	perms, err := s.permissionsByID(ctx, permIDs)
	if err != nil {
		return nil, err
	}
	names := make([]permission.Name, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}
	return names, nil
}

func (s *Store) userPermissionIDs(ctx context.Context, uid string) ([]string, error) {
	var grants []userPermissionModel
	if err := s.mdb.NewFind(&grants).Filter(bson.M{"user_id": uid}).Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list user permissions: %w", err)
	}
	ids := make([]string, len(grants))
	for i, g := range grants {
		ids[i] = g.PermissionID
	}
	return ids, nil
}

// permissionsByID loads the distinct permissions among permIDs, ordered by
// name.
func (s *Store) permissionsByID(ctx context.Context, permIDs []string) ([]*permission.Permission, error) {
	slices.Sort(permIDs)
	permIDs = slices.Compact(permIDs)
	if len(permIDs) == 0 {
		return []*permission.Permission{}, nil
	}
	var models []permissionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": permIDs}}).
		Sort(bson.D{{Key: "name", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: load permissions: %w", err)
	}
	return permissionsFromModels(models), nil
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
	t := now()
	g.CreatedAt = t
	g.UpdatedAt = t
	if _, err := s.mdb.NewInsert(groupToModel(g)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("group %q: %w", g.Name, rampart.ErrDuplicateGroup)
		}
		return fmt.Errorf("rampart: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	var m groupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": groupID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("group %s: %w", groupID, rampart.ErrGroupNotFound)
		}
		return nil, fmt.Errorf("rampart: get group: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) GetGroupByName(ctx context.Context, name string) (*group.Group, error) {
	var m groupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("group %q: %w", name, rampart.ErrGroupNotFound)
		}
		return nil, fmt.Errorf("rampart: get group by name: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	gid := groupID.String()
	if _, err := s.mdb.NewDelete((*groupPermissionModel)(nil)).Many().Filter(bson.M{"group_id": gid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete group permissions: %w", err)
	}
	if _, err := s.mdb.NewDelete((*groupMemberModel)(nil)).Many().Filter(bson.M{"group_id": gid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete group members: %w", err)
	}
	if _, err := s.mdb.NewDelete((*groupModel)(nil)).Filter(bson.M{"_id": gid}).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete group: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	var models []groupModel
	f := bson.M{}
	if filter != nil && filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
		ID:           linkID(groupID.String(), permID.String()),
		GroupID:      groupID.String(),
		PermissionID: permID.String(),
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already attached
		}
		return fmt.Errorf("rampart: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, groupID id.GroupID, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*groupPermissionModel)(nil)).
		Filter(bson.M{"group_id": groupID.String(), "permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: detach permission: %w", err)
	}
	return nil
}

func (s *Store) ListGroupPermissions(ctx context.Context, groupID id.GroupID) ([]id.PermissionID, error) {
	var models []groupPermissionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"group_id": groupID.String()}).
		Sort(bson.D{{Key: "permission_id", Value: 1}}).
		Scan(ctx); err != nil {
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
		ID:      linkID(groupID.String(), userID.String()),
		GroupID: groupID.String(),
		UserID:  userID.String(),
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already a member
		}
		return fmt.Errorf("rampart: add member: %w", err)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID id.GroupID, userID id.UserID) error {
	_, err := s.mdb.NewDelete((*groupMemberModel)(nil)).
		Filter(bson.M{"group_id": groupID.String(), "user_id": userID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: remove member: %w", err)
	}
	return nil
}

func (s *Store) ListUserGroups(ctx context.Context, userID id.UserID) ([]id.GroupID, error) {
	var models []groupMemberModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID.String()}).
		Sort(bson.D{{Key: "group_id", Value: 1}}).
		Scan(ctx); err != nil {
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
	if _, err := s.mdb.NewInsert(sessionToModel(sess)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (*session.Session, error) {
	var m sessionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": token}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rampart.ErrSessionNotFound
		}
		return nil, fmt.Errorf("rampart: get session: %w", err)
	}
	return sessionFromModel(&m), nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.mdb.NewDelete((*sessionModel)(nil)).
		Filter(bson.M{"_id": token}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID id.UserID) (int64, error) {
	res, err := s.mdb.NewDelete((*sessionModel)(nil)).
		Many().
		Filter(bson.M{"user_id": userID.String()}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: delete user sessions: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*sessionModel)(nil)).
		Many().
		Filter(bson.M{"expires_at": bson.M{"$lte": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: purge sessions: %w", err)
	}
	return res.DeletedCount(), nil
}

// ──────────────────────────────────────────────────
// Auth log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuthLog(ctx context.Context, e *authlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	if _, err := s.mdb.NewInsert(authLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: create auth log: %w", err)
	}
	return nil
}

func (s *Store) ListAuthLogs(ctx context.Context, filter *authlog.QueryFilter) ([]*authlog.Entry, error) {
	var models []authLogModel
	f := bson.M{}
	if filter != nil {
		if filter.Username != "" {
			f["username"] = filter.Username
		}
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.Outcome != "" {
			f["outcome"] = string(filter.Outcome)
		}
		created := bson.M{}
		if filter.After != nil {
			created["$gt"] = *filter.After
		}
		if filter.Before != nil {
			created["$lt"] = *filter.Before
		}
		if len(created) > 0 {
			f["created_at"] = created
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	res, err := s.mdb.NewDelete((*authLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: purge auth logs: %w", err)
	}
	return res.DeletedCount(), nil
}
