// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// Resolver reports whether a path is routed.
type Resolver func(path string) bool

// NormalizeURL returns a middleware that redirects requests whose path is not
// routed to the same path with the trailing slash toggled, if that one is.
//
// Safe methods get 301 Moved Permanently. Other methods get 308 Permanent
// Redirect so the body and method survive. The query string is kept.
func NormalizeURL(resolves Resolver) Middleware {
	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		path := r.URL.Path
		if path == "/" || resolves(path) {
			next.ServeHTTP(w, r)

			return
		}

		toggled := toggleTrailingSlash(path)
		if strings.HasPrefix(toggled, "//") || !resolves(toggled) {
			next.ServeHTTP(w, r)

			return
		}

		target := *r.URL
		target.Path = toggled
		target.RawPath = ""

		status := http.StatusPermanentRedirect
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			status = http.StatusMovedPermanently
		}

		http.Redirect(w, r, target.RequestURI(), status)
	}
}

// toggleTrailingSlash adds a trailing slash to path, or removes it if present.
func toggleTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return strings.TrimSuffix(path, "/")
	}

	return path + "/"
}
