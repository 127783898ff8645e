package rampart

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Resolver turns session cookies into identities. Lookups run on a
// bounded pool so a slow identity store cannot be flooded by reconnects.
type Resolver struct {
	store  IdentityStore
	cache  IdentityCache
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewResolver creates a resolver allowing at most workers concurrent
// lookups.
func NewResolver(store IdentityStore, workers int, logger *slog.Logger) *Resolver {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  store,
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}
}

type lookupResult struct {
	identity *Identity
	err      error
}

// Resolve returns the identity bound to token. An empty, unknown, expired
// or undecodable token, or any store failure, yields Anonymous with a nil
// error. The only error returned is ctx's, when the caller stops waiting.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return Anonymous(), nil
	}
	if r.cache != nil {
		if identity, ok := r.cache.Get(ctx, token); ok {
			return identity, nil
		}
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	done := make(chan lookupResult, 1)
	go func() {
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				done <- lookupResult{err: fmt.Errorf("rampart: identity lookup panicked: %v", p)}
			}
		}()
		identity, err := r.store.LookupSession(ctx, token)
		done <- lookupResult{identity: identity, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			r.logger.Debug("session lookup failed, resolving as anonymous",
				slog.String("error", res.err.Error()),
			)
			return Anonymous(), nil
		}
		if res.identity == nil || res.identity.IsAnonymous() {
			return Anonymous(), nil
		}
		if r.cache != nil {
			r.cache.Set(ctx, token, res.identity)
		}
		return res.identity, nil
	}
}
