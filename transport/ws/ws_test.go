package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/identity"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/rpc"
	"github.com/xraph/rampart/store/memory"
)

type frame struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *rpc.Error      `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	backend := identity.NewBackend(s, identity.WithBcryptCost(bcrypt.MinCost))

	u, err := backend.CreateUser(ctx, "alice", "secret", false)
	if err != nil {
		t.Fatal(err)
	}
	p := &permission.Permission{ID: id.NewPermissionID(), Name: "shop.view_order"}
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.GrantUserPermission(ctx, u.ID, p.ID); err != nil {
		t.Fatal(err)
	}

	reg := rampart.NewRegistry()
	reg.MustMethod("orders.list", func(context.Context, *rampart.Call) (any, error) {
		return []string{"o-1"}, nil
	}, rampart.LoginRequired())
	reg.MustTopic("orders.changed", rampart.PermissionsRequired("shop.view_order"))
	reg.MustTopic("news")

	eng, err := rampart.NewEngine(rampart.WithIdentityStore(backend), rampart.WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(eng)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server, cookie string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if cookie != "" {
		header.Set("Cookie", "sessionid="+cookie)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, msg string) {
	t.Helper()
	if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}
}

func readRaw(t *testing.T, c *websocket.Conn) []byte {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func read(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	var f frame
	if err := json.Unmarshal(readRaw(t, c), &f); err != nil {
		t.Fatal(err)
	}
	return f
}

func call(t *testing.T, c *websocket.Conn, method, params string) frame {
	t.Helper()
	msg := `{"jsonrpc":"2.0","id":7,"method":"` + method + `"`
	if params != "" {
		msg += `,"params":` + params
	}
	send(t, c, msg+"}")
	return read(t, c)
}

func stringList(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func TestAnonymousConnection(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv, "")

	f := call(t, c, rampart.MethodGetMethods, "")
	methods := stringList(t, f.Result)
	if !slices.Contains(methods, rampart.MethodLogin) || slices.Contains(methods, "orders.list") {
		t.Fatalf("unexpected methods: %v", methods)
	}
	if !slices.Contains(methods, rampart.MethodSubscribe) {
		t.Fatalf("expected built-ins in %v", methods)
	}

	f = call(t, c, "orders.list", "")
	if f.Error == nil || f.Error.Code != rpc.CodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", f)
	}
	if string(f.ID) != "7" {
		t.Fatalf("expected id 7, got %s", f.ID)
	}

	if topics := stringList(t, call(t, c, rampart.MethodGetTopics, "").Result); !slices.Equal(topics, []string{"news"}) {
		t.Fatalf("unexpected topics: %v", topics)
	}
	if f := call(t, c, rampart.MethodSubscribe, `"orders.changed"`); string(f.Result) != "false" {
		t.Fatalf("subscribing to a hidden topic should return false, got %s", f.Result)
	}
	if f := call(t, c, rampart.MethodSubscribe, `["news"]`); string(f.Result) != "true" {
		t.Fatalf("expected true, got %s", f.Result)
	}
	if subs := stringList(t, call(t, c, rampart.MethodGetSubscriptions, "").Result); !slices.Equal(subs, []string{"news"}) {
		t.Fatalf("unexpected subscriptions: %v", subs)
	}
	if f := call(t, c, rampart.MethodSubscribe, `42`); f.Error == nil || f.Error.Code != rpc.CodeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", f)
	}
}

func TestLoginOverSocket(t *testing.T) {
	srv, h := newTestServer(t)
	c := dial(t, srv, "")

	if f := call(t, c, rampart.MethodLogin, `{"username":"alice","password":"wrong"}`); string(f.Result) != "false" {
		t.Fatalf("expected false, got %s", f.Result)
	}

	send(t, c, `{"jsonrpc":"2.0","id":1,"method":"login","params":{"username":"alice","password":"secret"}}`)
	note := read(t, c)
	if note.Method != NotifySetCookie {
		t.Fatalf("expected set_cookie notification first, got %+v", note)
	}
	var params struct {
		Cookie string `json:"cookie"`
	}
	if err := json.Unmarshal(note.Params, &params); err != nil {
		t.Fatal(err)
	}
	ck, err := http.ParseSetCookie(params.Cookie)
	if err != nil {
		t.Fatal(err)
	}
	if ck.Name != "sessionid" || ck.Path != "/" || ck.Value == "" {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
	if f := read(t, c); string(f.Result) != "true" {
		t.Fatalf("expected login to return true, got %+v", f)
	}

	methods := stringList(t, call(t, c, rampart.MethodGetMethods, "").Result)
	if slices.Contains(methods, rampart.MethodLogin) || !slices.Contains(methods, "orders.list") {
		t.Fatalf("unexpected methods after login: %v", methods)
	}
	if f := call(t, c, rampart.MethodSubscribe, `{"topic":"orders.changed"}`); string(f.Result) != "true" {
		t.Fatalf("expected subscribe to succeed, got %s", f.Result)
	}

	if n := h.Hub().Publish("orders.changed", map[string]string{"id": "o-1"}); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}
	if pub := read(t, c); pub.Method != "orders.changed" || !strings.Contains(string(pub.Params), "o-1") {
		t.Fatalf("unexpected publication: %+v", pub)
	}

	// A new socket presenting the cookie is authenticated from the start.
	other := dial(t, srv, ck.Value)
	if f := call(t, other, "orders.list", ""); f.Error != nil || !strings.Contains(string(f.Result), "o-1") {
		t.Fatalf("expected orders.list to succeed, got %+v", f)
	}
}

func TestBatchAndMalformed(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv, "")

	send(t, c, `{"jsonrpc":"2.0","id":1,`)
	f := read(t, c)
	if f.Error == nil || f.Error.Code != rpc.CodeParseError || string(f.ID) != "null" {
		t.Fatalf("expected parse error, got %+v", f)
	}

	send(t, c, `{"jsonrpc":"1.0","id":2,"method":"get_topics"}`)
	if f := read(t, c); f.Error == nil || f.Error.Code != rpc.CodeInvalidRequest || string(f.ID) != "2" {
		t.Fatalf("expected invalid request, got %+v", f)
	}

	send(t, c, `[]`)
	if f := read(t, c); f.Error == nil || f.Error.Code != rpc.CodeInvalidRequest {
		t.Fatalf("expected invalid request for empty batch, got %+v", f)
	}

	send(t, c, `[{"jsonrpc":"2.0","id":1,"method":"get_topics"},{"jsonrpc":"2.0","method":"get_topics"},1]`)
	var batch []frame
	if err := json.Unmarshal(readRaw(t, c), &batch); err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(batch))
	}
	if batch[0].Error != nil || string(batch[0].ID) != "1" {
		t.Fatalf("unexpected first response: %+v", batch[0])
	}
	if batch[1].Error == nil || batch[1].Error.Code != rpc.CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", batch[1])
	}

	// Notifications get no answer; the next frame is the response to id 7.
	send(t, c, `{"jsonrpc":"2.0","method":"orders.list"}`)
	if f := call(t, c, rampart.MethodGetTopics, ""); string(f.ID) != "7" {
		t.Fatalf("expected the get_topics response, got %+v", f)
	}
}

func TestTopicParams(t *testing.T) {
	tests := []struct {
		params string
		want   []string
		ok     bool
	}{
		{`"a"`, []string{"a"}, true},
		{`["a","b"]`, []string{"a", "b"}, true},
		{`{"topic":"a"}`, []string{"a"}, true},
		{`""`, nil, false},
		{`[]`, nil, false},
		{`null`, nil, false},
		{`{}`, nil, false},
	}
	for _, tt := range tests {
		got, err := topicParams(json.RawMessage(tt.params))
		if (err == nil) != tt.ok {
			t.Fatalf("%s: unexpected error %v", tt.params, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.params, tt.want, got)
		}
	}
}

func TestWriterExitUnblocksSenders(t *testing.T) {
	upgraded := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgraded <- c
	}))
	t.Cleanup(srv.Close)
	dial(t, srv, "")

	var serverConn *websocket.Conn
	select {
	case serverConn = <-upgraded:
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade timed out")
	}

	c := newClient(&Handler{logger: slog.Default()}, serverConn, nil)
	c.send = make(chan any, 1)
	_ = serverConn.Close()

	exited := make(chan struct{})
	go func() {
		c.writePump()
		close(exited)
	}()
	c.send <- rpc.NewNotification("news", nil)
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not stop on a closed socket")
	}

	c.send <- rpc.NewNotification("news", nil)
	result := make(chan bool, 1)
	go func() { result <- c.enqueue(rpc.NewNotification("news", nil)) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatal("enqueue succeeded on a dead connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked after the writer stopped")
	}
}
