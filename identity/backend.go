// Package identity implements rampart.IdentityStore over the composite
// store: bcrypt password checks, server-side sessions and an
// authentication log.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/authlog"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/session"
	"github.com/xraph/rampart/store"
	"github.com/xraph/rampart/user"
)

// DefaultSessionTTL is how long a session lives when no TTL is configured.
const DefaultSessionTTL = 14 * 24 * time.Hour

var _ rampart.IdentityStore = (*Backend)(nil)

// Backend authenticates users from the store and keeps their sessions.
type Backend struct {
	store    store.Store
	sessions session.Store
	ttl      time.Duration
	cost     int
	logger   *slog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// Option configures a Backend.
type Option func(*Backend)

// WithSessionStore keeps sessions somewhere other than the composite store,
// e.g. redis.
func WithSessionStore(s session.Store) Option { return func(b *Backend) { b.sessions = s } }

// WithSessionTTL sets the session lifetime. Zero means sessions never
// expire.
func WithSessionTTL(d time.Duration) Option { return func(b *Backend) { b.ttl = d } }

// WithBcryptCost sets the cost used by HashPassword.
func WithBcryptCost(cost int) Option { return func(b *Backend) { b.cost = cost } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(b *Backend) { b.logger = l } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(b *Backend) { b.now = now } }

// NewBackend creates a backend over s.
func NewBackend(s store.Store, opts ...Option) *Backend {
	b := &Backend{
		store:    s,
		sessions: s,
		ttl:      DefaultSessionTTL,
		cost:     bcrypt.DefaultCost,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the underlying store.
func (b *Backend) Store() store.Store { return b.store }

// Sessions returns the session store in use.
func (b *Backend) Sessions() session.Store { return b.sessions }

// IdentityOf builds the identity a session of the user would resolve to.
func (b *Backend) IdentityOf(ctx context.Context, userID id.UserID) (*rampart.Identity, error) {
	u, err := b.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.identityFor(ctx, u, time.Time{})
}

// Authenticate checks a username/password pair. Unknown users, wrong
// passwords and inactive accounts all yield rampart.ErrInvalidCredentials.
func (b *Backend) Authenticate(ctx context.Context, username, password string) (*rampart.Identity, error) {
	u, err := b.store.GetUserByUsername(ctx, username)
	if errors.Is(err, rampart.ErrUserNotFound) {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(b.dummy(), []byte(password))
		b.record(ctx, username, id.Nil, authlog.OutcomeUnknownUser)
		return nil, rampart.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("identity: get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		b.record(ctx, username, u.ID, authlog.OutcomeBadPassword)
		return nil, rampart.ErrInvalidCredentials
	}
	if !u.IsActive {
		b.record(ctx, username, u.ID, authlog.OutcomeInactive)
		return nil, rampart.ErrInvalidCredentials
	}

	now := b.now().UTC()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	if err := b.store.UpdateUser(ctx, u); err != nil {
		b.logger.Warn("identity: failed to record last login",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	b.record(ctx, username, u.ID, authlog.OutcomeSuccess)
	return b.identityFor(ctx, u, time.Time{})
}

// LookupSession resolves a session token. Expired sessions are deleted and
// reported as rampart.ErrSessionExpired.
func (b *Backend) LookupSession(ctx context.Context, token string) (*rampart.Identity, error) {
	sess, err := b.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Expired(b.now()) {
		if err := b.sessions.DeleteSession(ctx, token); err != nil {
			b.logger.Warn("identity: failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, rampart.ErrSessionExpired
	}
	u, err := b.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return b.identityFor(ctx, u, sess.ExpiresAt)
}

// CreateSession starts a session for an authenticated identity.
func (b *Backend) CreateSession(ctx context.Context, identity *rampart.Identity) (string, error) {
	userID, err := id.ParseUserID(identity.UserID())
	if err != nil {
		return "", fmt.Errorf("identity: session owner: %w", err)
	}
	token, err := session.NewToken()
	if err != nil {
		return "", err
	}
	now := b.now().UTC()
	sess := &session.Session{Token: token, UserID: userID, CreatedAt: now}
	if b.ttl > 0 {
		sess.ExpiresAt = now.Add(b.ttl)
	}
	if err := b.sessions.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("identity: create session: %w", err)
	}
	return token, nil
}

// DeleteSession ends a session and logs the logout.
func (b *Backend) DeleteSession(ctx context.Context, token string) error {
	sess, err := b.sessions.GetSession(ctx, token)
	if errors.Is(err, rampart.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := b.sessions.DeleteSession(ctx, token); err != nil {
		return err
	}
	b.record(ctx, "", sess.UserID, authlog.OutcomeLogout)
	return nil
}

// RevokeUserSessions deletes every session of a user.
func (b *Backend) RevokeUserSessions(ctx context.Context, userID id.UserID) (int64, error) {
	return b.sessions.DeleteUserSessions(ctx, userID)
}

// HashPassword hashes a password with the configured bcrypt cost.
func (b *Backend) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("identity: hash password: %w", err)
	}
	return string(h), nil
}

// CreateUser stores a new active user with a hashed password.
func (b *Backend) CreateUser(ctx context.Context, username, password string, superuser bool) (*user.User, error) {
	hash, err := b.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := b.now().UTC()
	u := &user.User{
		ID:           id.NewUserID(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := b.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces a user's password.
func (b *Backend) SetPassword(ctx context.Context, userID id.UserID, password string) error {
	u, err := b.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := b.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = b.now().UTC()
	return b.store.UpdateUser(ctx, u)
}

// identityFor builds the identity of u, bound to a session ending at
// expiresAt. Inactive users hold no permissions; superusers hold every
// registered permission.
func (b *Backend) identityFor(ctx context.Context, u *user.User, expiresAt time.Time) (*rampart.Identity, error) {
	var perms []permission.Name
	switch {
	case !u.IsActive:
	case u.IsSuperuser:
		all, err := b.store.ListPermissions(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("identity: list permissions: %w", err)
		}
		perms = make([]permission.Name, 0, len(all))
		for _, p := range all {
			perms = append(perms, p.Name)
		}
	default:
		var err error
		perms, err = b.store.ListEffectivePermissions(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("identity: effective permissions: %w", err)
		}
	}
	return rampart.Authenticated(rampart.Attributes{
		UserID:           u.ID.String(),
		Username:         u.Username,
		IsSuperuser:      u.IsSuperuser,
		IsActive:         u.IsActive,
		Permissions:      perms,
		SessionExpiresAt: expiresAt,
	}), nil
}

func (b *Backend) record(ctx context.Context, username string, userID id.UserID, outcome authlog.Outcome) {
	e := &authlog.Entry{
		ID:        id.NewAuthLogID(),
		Username:  username,
		UserID:    userID,
		Outcome:   outcome,
		CreatedAt: b.now().UTC(),
	}
	if err := b.store.CreateAuthLog(ctx, e); err != nil {
		b.logger.Warn("identity: failed to write auth log",
			slog.String("outcome", string(outcome)),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Backend) dummy() []byte {
	b.dummyOnce.Do(func() {
		b.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rampart-dummy-password"), b.cost)
	})
	return b.dummyHash
}
