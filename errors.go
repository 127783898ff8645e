package rampart

import (
	"errors"

	"github.com/xraph/rampart/rpc"
)

var (
	// ErrInvalidParams is returned to callers whose parameters are malformed
	// or whose data operation failed in the store.
	ErrInvalidParams = rpc.ErrInvalidParams

	// ErrMethodNotFound is returned for methods absent from a connection's
	// method table, whether unregistered or unauthorized.
	ErrMethodNotFound = rpc.ErrMethodNotFound

	// ErrInvalidCredentials is returned by IdentityStore.Authenticate when
	// the username/password pair does not identify an active user.
	ErrInvalidCredentials = errors.New("rampart: invalid credentials")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("rampart: user not found")

	// ErrPermissionNotFound is returned when a permission cannot be found.
	ErrPermissionNotFound = errors.New("rampart: permission not found")

	// ErrGroupNotFound is returned when a group cannot be found.
	ErrGroupNotFound = errors.New("rampart: group not found")

	// ErrSessionNotFound is returned when no session matches a token.
	ErrSessionNotFound = errors.New("rampart: session not found")

	// ErrSessionExpired is returned when a session exists but has expired.
	ErrSessionExpired = errors.New("rampart: session expired")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("rampart: username already exists")

	// ErrDuplicatePermission is returned when a permission name is already
	// registered.
	ErrDuplicatePermission = errors.New("rampart: permission already exists")

	// ErrDuplicateGroup is returned when a group name is already taken.
	ErrDuplicateGroup = errors.New("rampart: group already exists")

	// ErrDuplicateMethod is returned when a method name is registered twice.
	ErrDuplicateMethod = errors.New("rampart: method already registered")

	// ErrDuplicateTopic is returned when a topic name is registered twice.
	ErrDuplicateTopic = errors.New("rampart: topic already registered")

	// ErrReservedMethod is returned when registering a name owned by the
	// engine ("login", "logout" or the "db__" prefix).
	ErrReservedMethod = errors.New("rampart: method name is reserved")

	// ErrRegistrySealed is returned when registering after the registry has
	// been handed to an engine.
	ErrRegistrySealed = errors.New("rampart: registry is sealed")

	// ErrConnClosed is returned for operations on a closed connection.
	ErrConnClosed = errors.New("rampart: connection closed")
)
