package rampart

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/rpc"
)

// Handler serves one method call.
type Handler func(ctx context.Context, call *Call) (any, error)

// Call is a single method invocation on a connection.
type Call struct {
	Conn   *Conn
	State  *ConnState
	Method string
	Params json.RawMessage
}

// Identity returns the identity the call was dispatched under.
func (c *Call) Identity() *Identity { return c.State.Identity }

// Bind decodes the call params into v; failures are ErrInvalidParams.
func (c *Call) Bind(v any) error { return rpc.Bind(c.Params, v) }

// Method is a registered RPC method and its access metadata.
type Method struct {
	Name    string
	Handler Handler
	Meta    Metadata
}

// Topic is a registered pub/sub topic and its access metadata.
type Topic struct {
	Name string
	Meta Metadata
}

var reserved = map[string]struct{}{
	MethodLogin:            {},
	MethodLogout:           {},
	MethodGetMethods:       {},
	MethodGetTopics:        {},
	MethodGetSubscriptions: {},
	MethodSubscribe:        {},
	MethodUnsubscribe:      {},
}

// Registry holds methods and topics with their access metadata. It is
// filled during startup and sealed when handed to NewEngine; once sealed
// it is read without locking.
type Registry struct {
	mu      sync.Mutex
	sealed  atomic.Bool
	methods map[string]*Method
	topics  map[string]*Topic

	methodList []*Method
	topicList  []*Topic
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]*Method),
		topics:  make(map[string]*Topic),
	}
}

// Method registers an RPC method.
func (r *Registry) Method(name string, h Handler, reqs ...Requirement) error {
	if name == "" || h == nil {
		return fmt.Errorf("rampart: register method %q: name and handler are required", name)
	}
	if _, ok := reserved[name]; ok || strings.HasPrefix(name, permission.MethodPrefix) {
		return fmt.Errorf("%w: %s", ErrReservedMethod, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return fmt.Errorf("%w: method %s", ErrRegistrySealed, name)
	}
	if _, ok := r.methods[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, name)
	}
	m := &Method{Name: name, Handler: h, Meta: NewMetadata(reqs...)}
	r.methods[name] = m
	r.methodList = insertSorted(r.methodList, m, func(m *Method) string { return m.Name })
	return nil
}

// MustMethod is like Method but panics on error.
func (r *Registry) MustMethod(name string, h Handler, reqs ...Requirement) {
	if err := r.Method(name, h, reqs...); err != nil {
		panic(err)
	}
}

// Topic registers a pub/sub topic.
func (r *Registry) Topic(name string, reqs ...Requirement) error {
	if name == "" {
		return fmt.Errorf("rampart: register topic: name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return fmt.Errorf("%w: topic %s", ErrRegistrySealed, name)
	}
	if _, ok := r.topics[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTopic, name)
	}
	t := &Topic{Name: name, Meta: NewMetadata(reqs...)}
	r.topics[name] = t
	r.topicList = insertSorted(r.topicList, t, func(t *Topic) string { return t.Name })
	return nil
}

// MustTopic is like Topic but panics on error.
func (r *Registry) MustTopic(name string, reqs ...Requirement) {
	if err := r.Topic(name, reqs...); err != nil {
		panic(err)
	}
}

// Seal freezes the registry. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

// Sealed reports whether the registry accepts further registrations.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// LookupMethod returns a registered method by name.
func (r *Registry) LookupMethod(name string) (*Method, bool) {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	m, ok := r.methods[name]
	return m, ok
}

// LookupTopic returns a registered topic by name.
func (r *Registry) LookupTopic(name string) (*Topic, bool) {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	t, ok := r.topics[name]
	return t, ok
}

// Methods returns every registered method ordered by name.
func (r *Registry) Methods() []*Method {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
		return append([]*Method(nil), r.methodList...)
	}
	return r.methodList
}

// Topics returns every registered topic ordered by name.
func (r *Registry) Topics() []*Topic {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
		return append([]*Topic(nil), r.topicList...)
	}
	return r.topicList
}

func insertSorted[T any](list []T, v T, key func(T) string) []T {
	i := sort.Search(len(list), func(i int) bool { return key(list[i]) >= key(v) })
	list = append(list, v)
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}
