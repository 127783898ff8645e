package rampart

import (
	"testing"

	"github.com/xraph/rampart/permission"
)

func TestEvaluatorDecisionOrder(t *testing.T) {
	active := Authenticated(Attributes{UserID: "usr_1", Username: "alice", IsActive: true, Permissions: []permission.Name{"shop.view_item"}})
	inactive := Authenticated(Attributes{UserID: "usr_2", Username: "bob", IsActive: false, Permissions: []permission.Name{"shop.view_item"}})
	super := Authenticated(Attributes{UserID: "usr_3", Username: "root", IsActive: true, IsSuperuser: true})
	inactiveSuper := Authenticated(Attributes{UserID: "usr_4", Username: "ghost", IsSuperuser: true})

	alwaysFalse := func(*Identity) bool { return false }

	tests := []struct {
		name     string
		identity *Identity
		meta     Metadata
		want     Decision
	}{
		{"unrestricted anonymous", Anonymous(), NewMetadata(), DecisionAllow},
		{"nil identity is anonymous", nil, NewMetadata(LoginRequired()), DecisionDenyLogin},
		{"login anonymous", Anonymous(), NewMetadata(LoginRequired()), DecisionDenyLogin},
		{"login inactive", inactive, NewMetadata(LoginRequired()), DecisionDenyLogin},
		{"login inactive superuser", inactiveSuper, NewMetadata(LoginRequired()), DecisionDenyLogin},
		{"login active", active, NewMetadata(LoginRequired()), DecisionAllow},
		{"perms held", active, NewMetadata(PermissionsRequired("shop.view_item")), DecisionAllow},
		{"perms partly held", active, NewMetadata(PermissionsRequired("shop.view_item", "shop.add_item")), DecisionDenyPerms},
		{"perms anonymous", Anonymous(), NewMetadata(PermissionsRequired("shop.view_item")), DecisionDenyPerms},
		{"perms inactive without login", inactive, NewMetadata(PermissionsRequired("shop.view_item")), DecisionAllow},
		{"perms superuser bypass", super, NewMetadata(PermissionsRequired("shop.delete_item")), DecisionAllow},
		{"perms inactive superuser bypass", inactiveSuper, NewMetadata(PermissionsRequired("shop.delete_item")), DecisionAllow},
		{"test fails", active, NewMetadata(PassesTest(alwaysFalse)), DecisionDenyTest},
		{"test superuser bypass", super, NewMetadata(PassesTest(alwaysFalse)), DecisionAllow},
		{"perms before tests", active, NewMetadata(PassesTest(alwaysFalse), PermissionsRequired("shop.add_item")), DecisionDenyPerms},
		{"nil test denies", active, Metadata{Tests: []Predicate{nil}}, DecisionDenyTest},
		{"panicking test denies", active, NewMetadata(PassesTest(func(*Identity) bool { panic("boom") })), DecisionDenyTest},
	}

	ev := DefaultEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Evaluate(tt.identity, &tt.meta)
			if got.Decision != tt.want {
				t.Fatalf("decision = %s (%s), want %s", got.Decision, got.Reason, tt.want)
			}
			if got.Allowed != (tt.want == DecisionAllow) {
				t.Fatalf("allowed = %v for decision %s", got.Allowed, got.Decision)
			}
		})
	}
}

func TestEvaluatorTestsRunInOrderAndStopAtFirstFailure(t *testing.T) {
	var calls []int
	record := func(n int, result bool) Predicate {
		return func(*Identity) bool {
			calls = append(calls, n)
			return result
		}
	}
	meta := NewMetadata(
		PassesTest(record(1, true)),
		PassesTest(record(2, false)),
		PassesTest(record(3, true)),
	)
	user := Authenticated(Attributes{UserID: "usr_1", Username: "alice", IsActive: true})

	if DefaultEvaluator().Evaluate(user, &meta).Allowed {
		t.Fatal("expected deny")
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("calls = %v, want [1 2]", calls)
	}
}

func TestEvaluatorNilMetadataAllows(t *testing.T) {
	if !DefaultEvaluator().Evaluate(Anonymous(), nil).Allowed {
		t.Fatal("nil metadata should allow")
	}
}
