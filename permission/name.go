package permission

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is returned when a string is not of the form
// "<namespace>.<codename>".
var ErrInvalidName = errors.New("permission: invalid name")

// MethodPrefix marks synthesized generic data methods.
const MethodPrefix = "db__"

// Action is the verb encoded at the front of a codename.
type Action string

// Actions for which generic data methods are synthesized.
const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

// IsData reports whether a generic data method exists for the action.
func (a Action) IsData() bool {
	switch a {
	case ActionView, ActionAdd, ActionChange, ActionDelete:
		return true
	}
	return false
}

// Name is a permission string "<namespace>.<codename>", where the codename
// is usually "<action>_<resource>", e.g. "shop.view_item".
type Name string

// NewName joins a namespace and codename.
func NewName(namespace, codename string) Name {
	return Name(namespace + "." + codename)
}

// ForAction builds "<namespace>.<action>_<resource>".
func ForAction(namespace string, action Action, resource string) Name {
	return NewName(namespace, string(action)+"_"+resource)
}

// Parse validates s and returns it as a Name.
func Parse(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return n, nil
}

// Valid reports whether n has a non-empty namespace and codename.
func (n Name) Valid() bool {
	ns, code, ok := strings.Cut(string(n), ".")
	return ok && ns != "" && code != ""
}

// Namespace returns the part before the first dot.
func (n Name) Namespace() string {
	ns, _, _ := strings.Cut(string(n), ".")
	return ns
}

// Codename returns the part after the first dot.
func (n Name) Codename() string {
	_, code, _ := strings.Cut(string(n), ".")
	return code
}

// Action returns the codename's leading verb, or "" when the codename has no
// underscore.
func (n Name) Action() Action {
	act, _, ok := strings.Cut(n.Codename(), "_")
	if !ok {
		return ""
	}
	return Action(act)
}

// Resource returns everything after the action's underscore. Resources may
// themselves contain underscores ("view_order_line" → "order_line").
func (n Name) Resource() string {
	_, res, _ := strings.Cut(n.Codename(), "_")
	return res
}

// IsData reports whether n names a generic data action on a resource.
func (n Name) IsData() bool {
	return n.Valid() && n.Action().IsData() && n.Resource() != ""
}

func (n Name) String() string { return string(n) }

// MethodName returns the generic data method name for n: "db__" + n.
func MethodName(n Name) string {
	return MethodPrefix + string(n)
}

// ParseMethodName recovers the permission from a generic data method name.
func ParseMethodName(method string) (Name, bool) {
	rest, ok := strings.CutPrefix(method, MethodPrefix)
	if !ok {
		return "", false
	}
	n := Name(rest)
	if !n.IsData() {
		return "", false
	}
	return n, true
}
