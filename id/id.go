// Package id defines TypeID-based identifiers for rampart entities.
//
// All entities share one ID struct; the prefix tells them apart. IDs are
// K-sortable (UUIDv7-based) and render as "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all rampart entity types.
const (
	PrefixUser       Prefix = "usr"
	PrefixPermission Prefix = "perm"
	PrefixGroup      Prefix = "grp"
	PrefixAuthLog    Prefix = "alog"
	PrefixConn       Prefix = "conn"
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// generate makes a new ID with the given prefix. It panics on an invalid
// prefix, which is a programming error.
func generate(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "usr_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and rejects it unless its prefix is expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// UserID identifies a user account (prefix "usr").
type UserID = ID

// PermissionID identifies a permission (prefix "perm").
type PermissionID = ID

// GroupID identifies a permission group (prefix "grp").
type GroupID = ID

// AuthLogID identifies an authentication log entry (prefix "alog").
type AuthLogID = ID

// ConnID identifies a live connection (prefix "conn").
type ConnID = ID

func NewUserID() ID       { return generate(PrefixUser) }
func NewPermissionID() ID { return generate(PrefixPermission) }
func NewGroupID() ID      { return generate(PrefixGroup) }
func NewAuthLogID() ID    { return generate(PrefixAuthLog) }
func NewConnID() ID       { return generate(PrefixConn) }

func ParseUserID(s string) (ID, error)       { return ParseWithPrefix(s, PrefixUser) }
func ParsePermissionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPermission) }
func ParseGroupID(s string) (ID, error)      { return ParseWithPrefix(s, PrefixGroup) }
func ParseAuthLogID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixAuthLog) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}
	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
