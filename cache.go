package rampart

import "context"

// IdentityCache remembers resolved identities by session token, sparing
// the identity store repeated lookups when clients reconnect. The engine
// drops entries whenever it invalidates a session, a user or everything.
type IdentityCache interface {
	// Get returns the cached identity for a token, if available.
	Get(ctx context.Context, token string) (*Identity, bool)

	// Set stores the identity resolved for a token.
	Set(ctx context.Context, token string, identity *Identity)

	// InvalidateToken removes the entry for a token.
	InvalidateToken(ctx context.Context, token string)

	// InvalidateUser removes every entry resolving to the user.
	InvalidateUser(ctx context.Context, userID string)

	// InvalidateAll empties the cache.
	InvalidateAll(ctx context.Context)
}
