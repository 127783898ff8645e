package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xraph/rampart"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

// NotifySetCookie is the notification method carrying a new cookie.
const NotifySetCookie = "set_cookie"

// Handler upgrades HTTP requests and serves one rampart connection per
// socket.
type Handler struct {
	engine   *rampart.Engine
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithHub sets the hub used for topic publishing. By default each handler
// owns a private hub, available through Hub.
func WithHub(hub *Hub) Option { return func(h *Handler) { h.hub = hub } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(h *Handler) { h.logger = l } }

// WithCheckOrigin sets the upgrader's origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// NewHandler creates a handler serving engine.
func NewHandler(engine *rampart.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.hub == nil {
		h.hub = NewHub(h.logger)
	}
	return h
}

// Hub returns the hub connections register with.
func (h *Handler) Hub() *Hub { return h.hub }

// ServeHTTP upgrades the request and blocks until the socket closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newClient(h, wsConn, r.Cookies())
	conn, err := h.engine.Connect(ctx, c)
	if err != nil {
		h.logger.Warn("ws: connect failed", slog.String("error", err.Error()))
		_ = wsConn.Close()
		return
	}
	c.conn = conn

	h.hub.register(c)
	defer func() {
		h.hub.unregister(c)
		conn.Close(context.WithoutCancel(ctx))
		c.close()
	}()

	go c.writePump()
	c.readPump(ctx)
}
