package rampart

import "github.com/xraph/rampart/permission"

// Predicate is an arbitrary access test over an identity.
type Predicate func(*Identity) bool

// Metadata is the access requirement attached to a method or topic.
// The zero value means "unrestricted".
type Metadata struct {
	LoginRequired       bool
	PermissionsRequired []permission.Name
	Tests               []Predicate
}

// Requirement adds a constraint to Metadata at registration time.
type Requirement func(*Metadata)

// LoginRequired hides the method from anonymous and inactive identities.
// Superusers are not exempt.
func LoginRequired() Requirement {
	return func(m *Metadata) { m.LoginRequired = true }
}

// PermissionsRequired hides the method unless the identity holds every
// listed permission. Superusers are exempt.
func PermissionsRequired(perms ...permission.Name) Requirement {
	return func(m *Metadata) {
		m.PermissionsRequired = append(m.PermissionsRequired, perms...)
	}
}

// PassesTest hides the method unless p returns true. Tests run in
// registration order; superusers are exempt.
func PassesTest(p Predicate) Requirement {
	return func(m *Metadata) { m.Tests = append(m.Tests, p) }
}

// NewMetadata applies reqs to an unrestricted Metadata.
func NewMetadata(reqs ...Requirement) Metadata {
	var m Metadata
	for _, r := range reqs {
		r(&m)
	}
	return m
}

// Unrestricted reports whether m imposes no requirement.
func (m *Metadata) Unrestricted() bool {
	return !m.LoginRequired && len(m.PermissionsRequired) == 0 && len(m.Tests) == 0
}
