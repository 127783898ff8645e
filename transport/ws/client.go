package ws

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/rpc"
)

// client is one socket. It is the rampart.Transport of its connection.
type client struct {
	h    *Handler
	ws   *websocket.Conn
	conn *rampart.Conn
	send chan any
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	cookies map[string]string
}

var _ rampart.Transport = (*client)(nil)

func newClient(h *Handler, wsConn *websocket.Conn, cookies []*http.Cookie) *client {
	c := &client{
		h:       h,
		ws:      wsConn,
		send:    make(chan any, sendBuffer),
		done:    make(chan struct{}),
		cookies: make(map[string]string, len(cookies)),
	}
	for _, ck := range cookies {
		c.cookies[ck.Name] = ck.Value
	}
	return c
}

func (c *client) Cookie(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cookies[name]
	return v, ok
}

func (c *client) SetCookie(ck *http.Cookie) error {
	if err := ck.Valid(); err != nil {
		return err
	}
	c.mu.Lock()
	if ck.MaxAge < 0 {
		delete(c.cookies, ck.Name)
	} else {
		c.cookies[ck.Name] = ck.Value
	}
	c.mu.Unlock()

	if !c.enqueue(rpc.NewNotification(NotifySetCookie, map[string]string{"cookie": ck.String()})) {
		return rampart.ErrConnClosed
	}
	return nil
}

// enqueue queues a frame, waiting for room. It reports false once the
// socket is closed.
func (c *client) enqueue(msg any) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}

// offer queues a frame without waiting.
func (c *client) offer(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) readPump(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.h.logger.Debug("ws: unexpected close", slog.String("conn_id", c.conn.ID()), slog.String("error", err.Error()))
			}
			return
		}
		if out := c.handleFrame(ctx, data); out != nil {
			if !c.enqueue(out) {
				return
			}
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				c.h.logger.Warn("ws: encode frame", slog.String("error", err.Error()))
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleFrame answers a single request or a batch. It returns nil when
// nothing is to be sent back.
func (c *client) handleFrame(ctx context.Context, data []byte) any {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if resp := c.handle(ctx, trimmed); resp != nil {
			return resp
		}
		return nil
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return rpc.NewError(nil, rpc.ErrParse)
	}
	if len(batch) == 0 {
		return rpc.NewError(nil, rpc.ErrInvalidRequest)
	}
	out := make([]*rpc.Response, 0, len(batch))
	for _, raw := range batch {
		resp := c.handle(ctx, raw)
		if resp == nil {
			continue
		}
		// Elements are valid JSON; one that is not a request object is
		// an invalid request rather than a parse error.
		if resp.Error != nil && resp.Error.Code == rpc.CodeParseError {
			resp = rpc.NewError(nil, rpc.ErrInvalidRequest)
		}
		out = append(out, resp)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *client) handle(ctx context.Context, raw []byte) *rpc.Response {
	req, err := rpc.DecodeRequest(raw)
	if err != nil {
		var reqID json.RawMessage
		if req != nil {
			reqID = req.ID
		}
		return rpc.NewError(reqID, err)
	}

	result, err := c.dispatch(ctx, req)
	if err != nil {
		if !errors.Is(err, rpc.ErrMethodNotFound) && !errors.Is(err, rpc.ErrInvalidParams) {
			c.h.logger.Warn("ws: call failed",
				slog.String("conn_id", c.conn.ID()),
				slog.String("method", req.Method),
				slog.String("error", err.Error()),
			)
		}
		if req.IsNotification() {
			return nil
		}
		return rpc.NewError(req.ID, err)
	}
	if req.IsNotification() {
		return nil
	}
	return rpc.NewResult(req.ID, result)
}
