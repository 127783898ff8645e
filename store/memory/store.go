// Package memory provides an in-memory implementation of the rampart
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/store"
	"github.com/xraph/rampart/user"
)

// Compile-time interface checks.
var (
	_ user.Store       = (*Store)(nil)
	_ permission.Store = (*Store)(nil)
	_ group.Store      = (*Store)(nil)
	_ session.Store    = (*Store)(nil)
	_ authlog.Store    = (*Store)(nil)
	_ store.Store      = (*Store)(nil)
)

type set = map[string]struct{}

// Store is a thread-safe in-memory store for all rampart entities.
type Store struct {
	mu sync.RWMutex

	users            map[string]*user.User
	permissions      map[string]*permission.Permission
	userPermissions  map[string]set // userID -> permIDs
	groups           map[string]*group.Group
	groupPermissions map[string]set // groupID -> permIDs
	groupMembers     map[string]set // groupID -> userIDs
	sessions         map[string]*session.Session
	authLogs         []*authlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:            make(map[string]*user.User),
		permissions:      make(map[string]*permission.Permission),
		userPermissions:  make(map[string]set),
		groups:           make(map[string]*group.Group),
		groupPermissions: make(map[string]set),
		groupMembers:     make(map[string]set),
		sessions:         make(map[string]*session.Session),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// User Store
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("user %q: %w", u.Username, rampart.ErrDuplicateUsername)
		}
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, rampart.ErrUserNotFound)
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, rampart.ErrUserNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID.String()]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, rampart.ErrUserNotFound)
	}
	for key, existing := range s.users {
		if key != u.ID.String() && existing.Username == u.Username {
			return fmt.Errorf("user %q: %w", u.Username, rampart.ErrDuplicateUsername)
		}
	}
	s.users[u.ID.String()] = copyUser(u)
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID.String()
	delete(s.users, key)
	delete(s.userPermissions, key)
	for _, members := range s.groupMembers {
		delete(members, key)
	}
	for token, sess := range s.sessions {
		if sess.UserID.String() == key {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context, filter *user.ListFilter) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		if filter != nil {
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			if filter.IsSuperuser != nil && u.IsSuperuser != *filter.IsSuperuser {
				continue
			}
			if filter.Search != "" && !containsFold(u.Username, filter.Search) {
				continue
			}
		}
		result = append(result, copyUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Name == p.Name {
			return fmt.Errorf("permission %q: %w", p.Name, rampart.ErrDuplicatePermission)
		}
	}
	c := *p
	s.permissions[p.ID.String()] = &c
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permID.String()]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", permID, rampart.ErrPermissionNotFound)
	}
	c := *p
	return &c, nil
}

func (s *Store) GetPermissionByName(_ context.Context, name permission.Name) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Name == name {
			c := *p
			return &c, nil
		}
	}
	return nil, fmt.Errorf("permission %q: %w", name, rampart.ErrPermissionNotFound)
}

func (s *Store) DeletePermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := permID.String()
	delete(s.permissions, key)
	for _, perms := range s.userPermissions {
		delete(perms, key)
	}
	for _, perms := range s.groupPermissions {
		delete(perms, key)
	}
	return nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if !filter.Matches(p) {
			continue
		}
		if filter != nil && filter.Search != "" && !containsFold(string(p.Name), filter.Search) {
			continue
		}
		c := *p
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) GrantUserPermission(_ context.Context, userID id.UserID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID.String()]; !ok {
		return fmt.Errorf("user %s: %w", userID, rampart.ErrUserNotFound)
	}
	if _, ok := s.permissions[permID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", permID, rampart.ErrPermissionNotFound)
	}
	addTo(s.userPermissions, userID.String(), permID.String())
	return nil
}

func (s *Store) RevokeUserPermission(_ context.Context, userID id.UserID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userPermissions[userID.String()], permID.String())
	return nil
}

func (s *Store) ListUserPermissions(_ context.Context, userID id.UserID) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Permission, 0, len(s.userPermissions[userID.String()]))
	for pid := range s.userPermissions[userID.String()] {
		if p, ok := s.permissions[pid]; ok {
			c := *p
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) ListEffectivePermissions(_ context.Context, userID id.UserID) ([]permission.Name, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := userID.String()
	seen := make(map[permission.Name]struct{})
	collect := func(perms set) {
		for pid := range perms {
			if p, ok := s.permissions[pid]; ok {
				seen[p.Name] = struct{}{}
			}
		}
	}
	collect(s.userPermissions[key])
	for gid, members := range s.groupMembers {
		if _, ok := members[key]; ok {
			collect(s.groupPermissions[gid])
		}
	}
	result := make([]permission.Name, 0, len(seen))
	for n := range seen {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// ──────────────────────────────────────────────────
// Group Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGroup(_ context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.Name == g.Name {
			return fmt.Errorf("group %q: %w", g.Name, rampart.ErrDuplicateGroup)
		}
	}
	c := *g
	s.groups[g.ID.String()] = &c
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID id.GroupID) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID.String()]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, rampart.ErrGroupNotFound)
	}
	c := *g
	return &c, nil
}

func (s *Store) GetGroupByName(_ context.Context, name string) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Name == name {
			c := *g
			return &c, nil
		}
	}
	return nil, fmt.Errorf("group %q: %w", name, rampart.ErrGroupNotFound)
}

func (s *Store) DeleteGroup(_ context.Context, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := groupID.String()
	delete(s.groups, key)
	delete(s.groupPermissions, key)
	delete(s.groupMembers, key)
	return nil
}

func (s *Store) ListGroups(_ context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*group.Group, 0, len(s.groups))
	for _, g := range s.groups {
		if filter != nil && filter.Search != "" && !containsFold(g.Name, filter.Search) {
			continue
		}
		c := *g
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) AttachPermission(_ context.Context, groupID id.GroupID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID.String()]; !ok {
		return fmt.Errorf("group %s: %w", groupID, rampart.ErrGroupNotFound)
	}
	if _, ok := s.permissions[permID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", permID, rampart.ErrPermissionNotFound)
	}
	addTo(s.groupPermissions, groupID.String(), permID.String())
	return nil
}

func (s *Store) DetachPermission(_ context.Context, groupID id.GroupID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groupPermissions[groupID.String()], permID.String())
	return nil
}

func (s *Store) ListGroupPermissions(_ context.Context, groupID id.GroupID) ([]id.PermissionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parseIDs(s.groupPermissions[groupID.String()]), nil
}

func (s *Store) AddMember(_ context.Context, groupID id.GroupID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID.String()]; !ok {
		return fmt.Errorf("group %s: %w", groupID, rampart.ErrGroupNotFound)
	}
	if _, ok := s.users[userID.String()]; !ok {
		return fmt.Errorf("user %s: %w", userID, rampart.ErrUserNotFound)
	}
	addTo(s.groupMembers, groupID.String(), userID.String())
	return nil
}

func (s *Store) RemoveMember(_ context.Context, groupID id.GroupID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groupMembers[groupID.String()], userID.String())
	return nil
}

func (s *Store) ListUserGroups(_ context.Context, userID id.UserID) ([]id.GroupID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make(set)
	for gid, members := range s.groupMembers {
		if _, ok := members[userID.String()]; ok {
			groups[gid] = struct{}{}
		}
	}
	return parseIDs(groups), nil
}

// ──────────────────────────────────────────────────
// Session Store
// ──────────────────────────────────────────────────

func (s *Store) CreateSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sess
	s.sessions[sess.Token] = &c
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, rampart.ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID id.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.UserID.String() == userID.String() {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.Expired(before) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Auth log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAuthLog(_ context.Context, e *authlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.authLogs = append(s.authLogs, &c)
	return nil
}

func (s *Store) ListAuthLogs(_ context.Context, filter *authlog.QueryFilter) ([]*authlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*authlog.Entry, 0, len(s.authLogs))
	for i := len(s.authLogs) - 1; i >= 0; i-- {
		e := s.authLogs[i]
		if filter != nil {
			if filter.Username != "" && e.Username != filter.Username {
				continue
			}
			if filter.UserID != "" && e.UserID.String() != filter.UserID {
				continue
			}
			if filter.Outcome != "" && e.Outcome != filter.Outcome {
				continue
			}
			if filter.After != nil && !e.CreatedAt.After(*filter.After) {
				continue
			}
			if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
				continue
			}
		}
		c := *e
		result = append(result, &c)
	}
	if filter == nil {
		return result, nil
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *Store) PurgeAuthLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.authLogs[:0]
	var n int64
	for _, e := range s.authLogs {
		if e.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.authLogs = kept
	return n, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyUser(u *user.User) *user.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func addTo(m map[string]set, key, member string) {
	if m[key] == nil {
		m[key] = make(set)
	}
	m[key][member] = struct{}{}
}

func parseIDs(members set) []id.ID {
	result := make([]id.ID, 0, len(members))
	for k := range members {
		if parsed, err := id.Parse(k); err == nil {
			result = append(result, parsed)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].String() < result[j].String() })
	return result
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return []*T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
