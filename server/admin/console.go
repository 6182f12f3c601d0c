// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package admin

import (
	"net/http"
	"sync/atomic"
	"time"

	"codeberg.org/dapp32/dapp32/core/pagecache"
	"codeberg.org/dapp32/dapp32/core/session"
	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/middleware"
	"codeberg.org/dapp32/dapp32/server/middleware/limiter"
)

// Route names within the mount.
const (
	IndexRoute      = "index"
	LoginRoute      = "login"
	LogoutRoute     = "logout"
	RoutesRoute     = "routes"
	CachePurgeRoute = "cache_purge"
)

// Options configures a Console.
type Options struct {
	Username string
	// PasswordHash is a bcrypt hash. Logins are refused while it is empty.
	PasswordHash string
	SessionTTL   time.Duration
	Signer       *session.Signer
	// Cache is the page cache to report on. May be nil.
	Cache *pagecache.Cache
}

// Console serves the administration pages.
type Console struct {
	opts  Options
	table *urlconf.Table
	root  atomic.Pointer[urlconf.Table]
}

// New returns a console for opts.
func New(opts Options) *Console {
	c := &Console{opts: opts}

	c.table = urlconf.MustTable(
		urlconf.Path("", middleware.CatchError(c.index), IndexRoute),
		urlconf.Path("login/", middleware.Wrap(limiter.Evaluate, middleware.CatchError(c.login)), LoginRoute),
		urlconf.Path("logout/", middleware.CatchError(c.logout), LogoutRoute),
		urlconf.Path("routes.json", middleware.CatchError(c.routesJSON), RoutesRoute),
		urlconf.Path("cache/purge/", middleware.CatchError(c.purgeCache), CachePurgeRoute),
	)

	return c
}

// Table returns the routes of the console.
func (c *Console) Table() *urlconf.Table {
	return c.table
}

// Inspect sets the table listed on the dashboard, normally the outermost one.
func (c *Console) Inspect(root *urlconf.Table) {
	c.root.Store(root)
}

// Enabled reports whether logins are possible.
func (c *Console) Enabled() bool {
	return c.opts.PasswordHash != ""
}

func methodNotAllowed(w http.ResponseWriter, allow string) error {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

	return nil
}
