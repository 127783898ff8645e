package rampart

import "fmt"

// Evaluator decides whether an identity satisfies access metadata.
type Evaluator interface {
	Evaluate(identity *Identity, meta *Metadata) *CheckResult
}

// DefaultEvaluator returns the built-in evaluator. It checks, in order:
// login (anonymous or inactive identities fail, superusers included),
// permissions (all required, superusers pass), then predicates in
// registration order (superusers pass, the first false denies).
func DefaultEvaluator() Evaluator { return orderedEvaluator{} }

type orderedEvaluator struct{}

func allow() *CheckResult { return &CheckResult{Allowed: true, Decision: DecisionAllow} }

func (orderedEvaluator) Evaluate(identity *Identity, meta *Metadata) *CheckResult {
	if meta == nil {
		return allow()
	}

	if meta.LoginRequired {
		if identity.IsAnonymous() {
			return &CheckResult{Decision: DecisionDenyLogin, Reason: "login required"}
		}
		if !identity.IsActive() {
			return &CheckResult{Decision: DecisionDenyLogin, Reason: "account inactive"}
		}
	}

	if identity.IsSuperuser() {
		return allow()
	}

	for _, p := range meta.PermissionsRequired {
		if !identity.HasPerm(p) {
			return &CheckResult{Decision: DecisionDenyPerms, Reason: fmt.Sprintf("missing permission %s", p)}
		}
	}

	for i, test := range meta.Tests {
		if !passes(test, identity) {
			return &CheckResult{Decision: DecisionDenyTest, Reason: fmt.Sprintf("test %d failed", i)}
		}
	}

	return allow()
}

// passes runs a predicate, treating nil or panicking predicates as false.
func passes(test Predicate, identity *Identity) (ok bool) {
	if test == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return test(identity)
}
