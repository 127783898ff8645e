package main

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/datamodel"
	"github.com/xraph/rampart/permission"
)

// Topics published by the daemon.
const (
	TopicTicks       = "ticks"
	TopicShopChanges = "shop.changes"
)

var (
	permViewItem = permission.ForAction("shop", permission.ActionView, "item")
	permAddItem  = permission.ForAction("shop", permission.ActionAdd, "item")
)

type whoami struct {
	UserID      string            `json:"user_id"`
	Username    string            `json:"username"`
	Superuser   bool              `json:"superuser"`
	Permissions []permission.Name `json:"permissions"`
}

func registerMethods(reg *rampart.Registry, models *datamodel.Registry) {
	reg.MustMethod("echo", func(_ context.Context, call *rampart.Call) (any, error) {
		if len(call.Params) == 0 {
			return nil, nil
		}
		return json.RawMessage(call.Params), nil
	})

	reg.MustMethod("whoami", func(_ context.Context, call *rampart.Call) (any, error) {
		who := call.Identity()
		return &whoami{
			UserID:      who.UserID(),
			Username:    who.Username(),
			Superuser:   who.IsSuperuser(),
			Permissions: who.Permissions(),
		}, nil
	}, rampart.LoginRequired())

	reg.MustMethod("shop.count_items", func(ctx context.Context, _ *rampart.Call) (any, error) {
		m, ok := models.Lookup(permViewItem)
		if !ok {
			return 0, nil
		}
		records, err := m.Filter(ctx, nil)
		if err != nil {
			return nil, rampart.ErrInvalidParams
		}
		return len(records), nil
	}, rampart.LoginRequired(), rampart.PermissionsRequired(permViewItem))

	reg.MustTopic(TopicTicks, rampart.LoginRequired())
	reg.MustTopic(TopicShopChanges, rampart.PermissionsRequired(permViewItem))
}
