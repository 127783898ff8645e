// Package rampart decides, for every live JSON-RPC connection, which methods
// and topics the connected identity may see.
//
// The identity behind a connection is resolved from its session cookie,
// checked against the access metadata of every registered method and
// topic, and folded into an immutable ConnState snapshot. Methods the
// identity may not call are absent from the snapshot, so callers cannot
// tell a forbidden method from one that does not exist.
//
//	reg := rampart.NewRegistry()
//	_ = reg.Method("orders.list", listOrders, rampart.LoginRequired())
//	_ = reg.Topic("orders.changed", rampart.PermissionsRequired("shop.view_order"))
//
//	eng, err := rampart.NewEngine(
//	    rampart.WithIdentityStore(identity.NewBackend(memStore)),
//	    rampart.WithRegistry(reg),
//	)
//	conn, err := eng.Connect(ctx, transport)
//	result, err := conn.Call(ctx, "orders.list", params)
package rampart

// Built-in method names. They cannot be registered.
const (
	MethodLogin            = "login"
	MethodLogout           = "logout"
	MethodGetMethods       = "get_methods"
	MethodGetTopics        = "get_topics"
	MethodGetSubscriptions = "get_subscriptions"
	MethodSubscribe        = "subscribe"
	MethodUnsubscribe      = "unsubscribe"
)

// CheckResult is the outcome of evaluating access metadata for an identity.
type CheckResult struct {
	Allowed  bool     `json:"allowed"`
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionAllow means every requirement passed.
	DecisionAllow Decision = "allow"

	// DecisionDenyLogin means login was required and the identity is
	// anonymous or inactive.
	DecisionDenyLogin Decision = "deny_login"

	// DecisionDenyPerms means a required permission is missing.
	DecisionDenyPerms Decision = "deny_perms"

	// DecisionDenyTest means a predicate returned false.
	DecisionDenyTest Decision = "deny_test"
)
