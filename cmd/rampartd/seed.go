package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/group"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/identity"
	"github.com/xraph/rampart/permission"
)

// seed creates the shop permissions, a "clerks" group able to view and
// add items, and the admin superuser when a password is configured.
func seed(ctx context.Context, backend *identity.Backend, cfg *Config, logger *slog.Logger) error {
	s := backend.Store()
	now := time.Now().UTC()

	perms := make(map[permission.Name]id.PermissionID)
	for _, action := range []permission.Action{permission.ActionView, permission.ActionAdd, permission.ActionChange, permission.ActionDelete} {
		name := permission.ForAction("shop", action, "item")
		p, err := s.GetPermissionByName(ctx, name)
		if errors.Is(err, rampart.ErrPermissionNotFound) {
			p = &permission.Permission{ID: id.NewPermissionID(), Name: name, CreatedAt: now, UpdatedAt: now}
			err = s.CreatePermission(ctx, p)
		}
		if err != nil {
			return fmt.Errorf("seed permission %s: %w", name, err)
		}
		perms[name] = p.ID
	}

	clerks, err := s.GetGroupByName(ctx, "clerks")
	if errors.Is(err, rampart.ErrGroupNotFound) {
		clerks = &group.Group{ID: id.NewGroupID(), Name: "clerks", CreatedAt: now, UpdatedAt: now}
		err = s.CreateGroup(ctx, clerks)
	}
	if err != nil {
		return fmt.Errorf("seed group: %w", err)
	}
	for _, name := range []permission.Name{permViewItem, permAddItem} {
		if err := s.AttachPermission(ctx, clerks.ID, perms[name]); err != nil {
			return fmt.Errorf("seed group permission %s: %w", name, err)
		}
	}

	if cfg.AdminPassword == "" {
		logger.Info("no admin password configured, skipping admin user")
		return nil
	}
	if _, err := s.GetUserByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, rampart.ErrUserNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := backend.CreateUser(ctx, cfg.AdminUsername, cfg.AdminPassword, true); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("created admin user", slog.String("username", cfg.AdminUsername))
	return nil
}
