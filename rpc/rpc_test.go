package rpc

import (
	"errors"
	"fmt"
	"testing"

	json "github.com/goccy/go-json"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","id":7,"method":"login","params":{"username":"a"}}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Method != "login" || string(req.ID) != "7" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.IsNotification() {
		t.Fatal("request with id reported as notification")
	}

	if _, err := DecodeRequest([]byte(`{`)); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if _, err := DecodeRequest([]byte(`{"jsonrpc":"1.0","method":"x"}`)); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	note, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"ping"}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if !note.IsNotification() {
		t.Fatal("request without id should be a notification")
	}
}

func TestErrorFromHidesWrappedDetail(t *testing.T) {
	wrapped := fmt.Errorf("%w: duplicate key value violates unique constraint", ErrInvalidParams)
	got := ErrorFrom(wrapped)
	if got.Code != CodeInvalidParams {
		t.Fatalf("expected code %d, got %d", CodeInvalidParams, got.Code)
	}
	if got.Message != "invalid params" {
		t.Fatalf("detail leaked into message: %q", got.Message)
	}

	if got := ErrorFrom(errors.New("boom")); got.Code != CodeInternalError {
		t.Fatalf("expected internal error, got %d", got.Code)
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	cp := &Error{Code: CodeMethodNotFound, Message: "other text"}
	if !errors.Is(cp, ErrMethodNotFound) {
		t.Fatal("expected copies with equal codes to match")
	}
	if errors.Is(cp, ErrInvalidParams) {
		t.Fatal("different codes must not match")
	}
}

func TestBind(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := Bind(nil, &v); err != nil {
		t.Fatalf("Bind(nil): %v", err)
	}
	if err := Bind(json.RawMessage(`{"name":"x"}`), &v); err != nil || v.Name != "x" {
		t.Fatalf("Bind: %v (%+v)", err, v)
	}
	if err := Bind(json.RawMessage(`[1,2]`), &v); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestNewResultEncodesNull(t *testing.T) {
	data, err := json.Marshal(NewResult(nil, nil))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"jsonrpc":"2.0","id":null,"result":null}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
