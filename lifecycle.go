package rampart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	json "github.com/goccy/go-json"
)

// Login authenticates the credentials and, on success, starts a session,
// issues the session cookie and rebuilds the connection state for the new
// identity. Rejected credentials return false and leave everything as is.
func (c *Conn) Login(ctx context.Context, username, password string) (bool, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	if c.isClosed() {
		return false, ErrConnClosed
	}

	e := c.engine
	identity, err := e.identities.Authenticate(ctx, username, password)
	if errors.Is(err, ErrInvalidCredentials) || (err == nil && identity.IsAnonymous()) {
		e.logger.Info("login rejected",
			slog.String("conn_id", c.id),
			slog.String("username", username),
		)
		e.plugins.EmitLoginFailed(ctx, c.id, username)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rampart: authenticate: %w", err)
	}

	token, err := e.identities.CreateSession(ctx, identity)
	if err != nil {
		return false, fmt.Errorf("rampart: create session: %w", err)
	}
	if err := c.transport.SetCookie(e.sessionCookie(token)); err != nil {
		return false, fmt.Errorf("rampart: set session cookie: %w", err)
	}

	c.apply(ctx, identity, token)
	e.logger.Info("login succeeded",
		slog.String("conn_id", c.id),
		slog.String("user_id", identity.UserID()),
	)
	e.plugins.EmitLoginSucceeded(ctx, c.id, identity.Username(), identity.UserID())
	return true, nil
}

// Logout ends the connection's session, expires the cookie and rebuilds
// the state as Anonymous. Other connections sharing the session are
// refreshed afterwards.
func (c *Conn) Logout(ctx context.Context) error {
	token, userID, err := c.logout(ctx)
	if err != nil {
		return err
	}
	c.engine.plugins.EmitLoggedOut(ctx, c.id, userID)
	return c.engine.InvalidateSession(ctx, token)
}

func (c *Conn) logout(ctx context.Context) (string, string, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	if c.isClosed() {
		return "", "", ErrConnClosed
	}

	e := c.engine
	token := c.sessionToken()
	userID := c.Identity().UserID()
	if token != "" {
		if err := e.identities.DeleteSession(ctx, token); err != nil {
			return "", "", fmt.Errorf("rampart: delete session: %w", err)
		}
	}
	if err := c.transport.SetCookie(e.expiredCookie()); err != nil {
		return "", "", fmt.Errorf("rampart: expire session cookie: %w", err)
	}
	c.apply(ctx, Anonymous(), "")
	return token, userID, nil
}

func (e *Engine) serveLogin(ctx context.Context, call *Call) (any, error) {
	username, password, err := parseCredentials(call.Params)
	if err != nil {
		return nil, err
	}
	return call.Conn.Login(ctx, username, password)
}

func (e *Engine) serveLogout(ctx context.Context, call *Call) (any, error) {
	if err := call.Conn.Logout(ctx); err != nil {
		return nil, err
	}
	return true, nil
}

// parseCredentials reads {"username": ..., "password": ...}. Scalars are
// coerced to strings; anything else is ErrInvalidParams.
func parseCredentials(params json.RawMessage) (string, string, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return "", "", fmt.Errorf("%w: expected an object with username and password", ErrInvalidParams)
	}
	username, err := credentialString(fields, "username")
	if err != nil {
		return "", "", err
	}
	password, err := credentialString(fields, "password")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func credentialString(fields map[string]any, key string) (string, error) {
	switch v := fields[key].(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidParams, key)
	}
}
