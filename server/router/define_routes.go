// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/core/pagecache"
	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/admin"
	"codeberg.org/dapp32/dapp32/server/middleware"
	"codeberg.org/dapp32/dapp32/server/reactive"
	"codeberg.org/dapp32/dapp32/server/routes"
)

// Names of the top-level routes.
const (
	ReactiveRoute     = "reactpy"
	AdminRoute        = "admin"
	ViewContractRoute = "view_contract"
	MetamaskRoute     = "metamask"
)

// Handlers are the targets of the top-level routes.
type Handlers struct {
	Reactive     http.Handler
	Admin        http.Handler
	ViewContract http.Handler
	MetamaskTest http.Handler
}

// FullTable returns the complete route table.
//
// With strictAddress set, v/<network>/<address> only matches 0x-prefixed
// 40-hex-digit addresses; otherwise any segment is accepted.
func FullTable(h Handlers, strictAddress bool) *urlconf.Table {
	contract := "v/<str:network>/<str:address>"
	if strictAddress {
		contract = "v/<str:network>/<address:address>"
	}

	return urlconf.MustTable(
		urlconf.Include("reactpy/", h.Reactive, ReactiveRoute),
		urlconf.Include("admin/", h.Admin, AdminRoute),
		urlconf.Path(contract, h.ViewContract, ViewContractRoute),
		urlconf.Path("metamask/", h.MetamaskTest, MetamaskRoute),
	)
}

// MinimalTable returns the table holding only the two mounts.
func MinimalTable(h Handlers) *urlconf.Table {
	return urlconf.MustTable(
		urlconf.Include("reactpy/", h.Reactive, ReactiveRoute),
		urlconf.Include("admin/", h.Admin, AdminRoute),
	)
}

// DefineRoutes builds the handlers and the route table selected by
// config.Global and returns a *Router without middleware.
func DefineRoutes() (*Router, error) {
	var cache *pagecache.Cache

	if config.Global.Cache.Enabled {
		var err error

		cache, err = pagecache.New(config.Global.Cache.Size, config.Global.Cache.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create page cache: %w", err)
		}
	}

	console := admin.New(admin.Options{
		Username:     config.Global.Admin.Username,
		PasswordHash: config.Global.Admin.PasswordHash,
		SessionTTL:   config.Global.Admin.SessionTTL,
		Signer:       &config.SessionSigner,
		Cache:        cache,
	})

	h := Handlers{
		Reactive:     New(reactive.Table(reactive.DefaultRegistry())),
		Admin:        New(console.Table()),
		ViewContract: middleware.CatchError(routes.MustTemplateView(views.ViewContractTemplate, cache)),
		MetamaskTest: middleware.CatchError(routes.MustTemplateView(views.MetamaskTestTemplate, cache)),
	}

	var table *urlconf.Table

	switch config.Global.Routing.Table {
	case config.MinimalTable:
		table = MinimalTable(h)
	default:
		table = FullTable(h, config.Global.Routing.StrictAddress)
	}

	console.Inspect(table)

	for _, w := range table.Check() {
		log.Warn().
			Str("check", w.ID).
			Str("route", w.Route).
			Msg(w.Message)
	}

	return New(table), nil
}
