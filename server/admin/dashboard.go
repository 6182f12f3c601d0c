// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/request_context"
	"codeberg.org/dapp32/dapp32/server/routes"
)

// tabler is implemented by mounted handlers that dispatch through a route table.
type tabler interface {
	Table() *urlconf.Table
}

// Describe flattens table and the tables of its mounts into display rows.
//
// Patterns are prefixed with the patterns of their enclosing mounts.
func Describe(table *urlconf.Table) []views.RouteRow {
	return describe(table, "", 0, nil)
}

func describe(table *urlconf.Table, prefix string, depth int, rows []views.RouteRow) []views.RouteRow {
	if table == nil {
		return rows
	}

	for _, route := range table.Routes() {
		rows = append(rows, views.RouteRow{
			Name:    route.Name,
			Pattern: prefix + route.Pattern(),
			Kind:    route.Kind.String(),
			Depth:   depth,
		})

		if inner, ok := route.Handler.(tabler); ok && route.Kind == urlconf.Mount {
			rows = describe(inner.Table(), prefix+route.Pattern(), depth+1, rows)
		}
	}

	return rows
}

// routes returns the table shown on the dashboard.
func (c *Console) routes() *urlconf.Table {
	if root := c.root.Load(); root != nil {
		return root
	}

	return c.table
}

func (c *Console) index(w http.ResponseWriter, r *http.Request) error {
	username, ok := c.requireLogin(w, r)
	if !ok {
		return nil
	}

	rc := request_context.FromRequest(r)

	data := views.AdminIndexData{
		Username:     username,
		LogoutAction: rc.Link("logout/"),
		RoutesJSON:   rc.Link("routes.json"),
		PurgeAction:  rc.Link("cache/purge/"),
		Routes:       Describe(c.routes()),
	}

	if cache := c.opts.Cache; cache != nil {
		hits, misses := cache.Stats()
		data.Cache = &views.CacheStats{
			Entries: cache.Len(),
			Hits:    hits,
			Misses:  misses,
			Keys:    cache.Keys(),
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	return views.AdminIndex(data).Render(withNonce(r), w)
}

type routesResponse struct {
	Routes    []views.RouteRow `json:"routes"`
	Templates []string         `json:"templates"`
}

func (c *Console) routesJSON(w http.ResponseWriter, r *http.Request) error {
	if _, err := c.currentUser(r); err != nil {
		return routes.JSONError(w, routes.ErrorJSON{Error: "unauthorized"}, http.StatusUnauthorized)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	return json.NewEncoder(w).Encode(routesResponse{
		Routes:    Describe(c.routes()),
		Templates: views.Names(),
	})
}

func (c *Console) purgeCache(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}

	username, ok := c.requireLogin(w, r)
	if !ok {
		return nil
	}

	rc := request_context.FromRequest(r)

	// an empty key purges the whole cache
	var form purgeForm

	if err := binding.Form.Bind(r, &form); err != nil {
		return routes.JSONError(w, routes.ErrorJSON{Error: err.Error()}, http.StatusBadRequest)
	}

	if cache := c.opts.Cache; cache != nil {
		event := log.Info().
			Str("username", username).
			Str("request_id", rc.RequestID)

		if form.Key != "" {
			event.
				Str("key", form.Key).
				Bool("removed", cache.Remove(form.Key)).
				Msg("Page cache entry removed")
		} else {
			purged := cache.Len()
			cache.Purge()

			event.
				Int("purged", purged).
				Msg("Page cache purged")
		}
	}

	http.Redirect(w, r, rc.Link(""), http.StatusSeeOther)

	return nil
}

type purgeForm struct {
	Key string `form:"key"`
}

func withNonce(r *http.Request) context.Context {
	return templ.WithNonce(r.Context(), request_context.FromRequest(r).Nonce)
}
