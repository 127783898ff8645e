package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, rampart.ErrDuplicateUsername) ||
		errors.Is(err, rampart.ErrDuplicatePermission) ||
		errors.Is(err, rampart.ErrDuplicateGroup) {
		return forge.BadRequest(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, rampart.ErrUserNotFound) ||
		errors.Is(err, rampart.ErrPermissionNotFound) ||
		errors.Is(err, rampart.ErrGroupNotFound) ||
		errors.Is(err, rampart.ErrSessionNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func parseUserID(s string) (id.UserID, error) {
	uid, err := id.ParseUserID(s)
	if err != nil {
		return uid, forge.BadRequest(fmt.Sprintf("invalid user ID: %v", err))
	}
	return uid, nil
}

func parsePermissionID(s string) (id.PermissionID, error) {
	pid, err := id.ParsePermissionID(s)
	if err != nil {
		return pid, forge.BadRequest(fmt.Sprintf("invalid permission ID: %v", err))
	}
	return pid, nil
}

func parseGroupID(s string) (id.GroupID, error) {
	gid, err := id.ParseGroupID(s)
	if err != nil {
		return gid, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}
	return gid, nil
}

// parseBool reads an optional "true"/"false" query value.
func parseBool(s, name string) (*bool, error) {
	switch s {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, forge.BadRequest(fmt.Sprintf("invalid %s value %q", name, s))
}

func parseTime(s, name string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s timestamp", name))
	}
	return &t, nil
}
