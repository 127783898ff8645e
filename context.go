package rampart

import "context"

type contextKey int

const (
	ctxKeyIdentity contextKey = iota
	ctxKeyConn
)

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, identity)
}

// IdentityFrom returns the identity stored in ctx, or Anonymous.
func IdentityFrom(ctx context.Context) *Identity {
	if v, ok := ctx.Value(ctxKeyIdentity).(*Identity); ok && v != nil {
		return v
	}
	return Anonymous()
}

// ConnFrom returns the connection a call is being served on.
func ConnFrom(ctx context.Context) (*Conn, bool) {
	c, ok := ctx.Value(ctxKeyConn).(*Conn)
	return c, ok
}

func withConn(ctx context.Context, c *Conn) context.Context {
	return context.WithValue(ctx, ctxKeyConn, c)
}
