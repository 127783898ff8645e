// Package rpc holds the JSON-RPC 2.0 envelopes and error taxonomy shared by
// the engine, the generic data adapter and the transports.
package rpc

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Version is the only protocol version accepted.
const Version = "2.0"

// Request is an incoming call. A request without an id is a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the caller expects no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || bytes.Equal(r.ID, []byte("null"))
}

// Response answers a Request. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification is a server-initiated message: topic publications and
// cookie updates.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// DecodeRequest parses one request frame.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if req.JSONRPC != Version || req.Method == "" {
		return &req, ErrInvalidRequest
	}
	return &req, nil
}

// NewResult builds a success response. A nil result is sent as JSON null.
func NewResult(id json.RawMessage, result any) *Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return &Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewError builds an error response. Details wrapped around a protocol
// error never reach the wire.
func NewError(id json.RawMessage, err error) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Error: ErrorFrom(err)}
}

// NewNotification builds a server-initiated notification.
func NewNotification(method string, params any) *Notification {
	return &Notification{JSONRPC: Version, Method: method, Params: params}
}

// Bind decodes params into v. A null or absent params value leaves v
// untouched. Any decode failure is reported as ErrInvalidParams.
func Bind(params json.RawMessage, v any) error {
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
