// Package redisstore keeps sessions in Redis. Each session lives under its
// own key with a TTL matching its expiry, and a per-user set indexes the
// tokens of every user.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/session"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "rampart:"

var _ session.Store = (*Store)(nil)

// Store implements session.Store on a Redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option { return func(s *Store) { s.prefix = prefix } }

// WithClock overrides the time source used to compute key TTLs.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New creates a store on client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type payload struct {
	UserID    id.UserID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession stores sess. A session that has already expired is not
// written.
func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
	}
	data, err := json.Marshal(payload{UserID: sess.UserID, CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("redisstore: encode session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(sess.Token), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.Token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: create session: %w", err)
	}
	return nil
}

// GetSession loads a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, rampart.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get session: %w", err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("redisstore: decode session: %w", err)
	}
	return &session.Session{Token: token, UserID: p.UserID, CreatedAt: p.CreatedAt, ExpiresAt: p.ExpiresAt}, nil
}

// DeleteSession removes a session and its index entry.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	sess, err := s.GetSession(ctx, token)
	if errors.Is(err, rampart.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(token))
		pipe.SRem(ctx, s.userKey(sess.UserID), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes every live session of a user.
func (s *Store) DeleteUserSessions(ctx context.Context, userID id.UserID) (int64, error) {
	key := s.userKey(userID)
	tokens, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstore: list user sessions: %w", err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = s.sessionKey(t)
	}
	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redisstore: delete user sessions: %w", err)
	}
	return del.Val(), nil
}

// PurgeExpiredSessions drops index entries whose session key Redis has
// already expired. The before argument is ignored: key TTLs decide expiry.
func (s *Store) PurgeExpiredSessions(ctx context.Context, _ time.Time) (int64, error) {
	var purged int64
	iter := s.client.Scan(ctx, 0, s.prefix+"user:*", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		tokens, err := s.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return purged, fmt.Errorf("redisstore: purge: %w", err)
		}
		for _, t := range tokens {
			n, err := s.client.Exists(ctx, s.sessionKey(t)).Result()
			if err != nil {
				return purged, fmt.Errorf("redisstore: purge: %w", err)
			}
			if n > 0 {
				continue
			}
			if err := s.client.SRem(ctx, setKey, t).Err(); err != nil {
				return purged, fmt.Errorf("redisstore: purge: %w", err)
			}
			purged++
		}
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("redisstore: purge: %w", err)
	}
	return purged, nil
}

func (s *Store) sessionKey(token string) string { return s.prefix + "session:" + token }

func (s *Store) userKey(userID id.UserID) string { return s.prefix + "user:" + userID.String() }
