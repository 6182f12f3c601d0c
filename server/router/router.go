// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"strings"

	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/middleware"
	"codeberg.org/dapp32/dapp32/server/request_context"
	"codeberg.org/dapp32/dapp32/server/routes"
)

// Router dispatches requests through a route table and provides middleware chaining functionality.
//
// Routes are tried in declaration order and the first match wins. Mounted
// handlers see the path with the mount prefix removed.
type Router struct {
	table       *urlconf.Table
	middlewares []middleware.Middleware
	notFound    http.Handler
}

// New creates a new Router instance for table.
func New(table *urlconf.Table) *Router {
	return &Router{
		table:    table,
		notFound: middleware.CatchError(routes.NotFound),
	}
}

// Table returns the router's route table.
func (router *Router) Table() *urlconf.Table {
	return router.table
}

// Use adds a middleware to the router's chain.
func (router *Router) Use(middleware middleware.Middleware) {
	router.middlewares = append(router.middlewares, middleware)
}

// Resolves reports whether path reaches an endpoint, following mounts that
// are routers themselves.
func (router *Router) Resolves(path string) bool {
	match, ok := router.table.Resolve(path)
	if !ok {
		return false
	}

	if inner, isRouter := match.Route.Handler.(*Router); isRouter && match.Route.Kind == urlconf.Mount {
		return inner.Resolves("/" + match.Remainder)
	}

	return true
}

// runs router.middlewares[i] and every thereafter
func (router *Router) serve(i int, w http.ResponseWriter, r *http.Request) {
	if i < len(router.middlewares) {
		router.middlewares[i](w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			router.serve(i+1, w, r)
		}))
	} else {
		router.dispatch(w, r)
	}
}

// runs all middleware
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.serve(0, w, r)
}

// dispatch hands r to the first matching route, or answers 404.
func (router *Router) dispatch(w http.ResponseWriter, r *http.Request) {
	ctx, ok := request_context.Lookup(r.Context())
	if !ok {
		r = r.WithContext(request_context.WithRequestContext(r.Context()))
		ctx = request_context.FromRequest(r)
	}

	if ctx.Reverse == nil {
		ctx.Reverse = router.table.Reverse
	}

	match, ok := router.table.Resolve(r.URL.Path)
	if !ok {
		router.notFound.ServeHTTP(w, r)

		return
	}

	name := match.Route.Name
	if ctx.MountPath != "" && ctx.RouteName != "" {
		// inside a mount, qualify with the mount's name
		name = ctx.RouteName + ":" + name
	}

	ctx.RouteName = name

	for key, value := range match.Captures {
		ctx.Captures[key] = value
		r.SetPathValue(key, value)
	}

	if match.Route.Kind == urlconf.Mount {
		if prefix := strings.TrimSuffix(match.Matched, "/"); prefix != "" {
			ctx.MountPath += "/" + prefix
		}

		r = stripPrefix(r, match.Matched)
	}

	match.Route.Handler.ServeHTTP(w, r)
}
