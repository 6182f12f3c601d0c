// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strings"
	"sync/atomic"

	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

var (
	// baseHeaders defines the default headers to be set in responses.
	//
	// Dapp32-Version and Dapp32-Revision are added dynamically in SetResponseHeaders.
	//
	// NOTE: we intentionally don't set CORP or HSTS headers.
	baseHeaders = http.Header{
		"Referrer-Policy":        {"no-referrer"},
		"X-Frame-Options":        {"SAMEORIGIN"},
		"X-Content-Type-Options": {"nosniff"},
		"Permissions-Policy":     {strings.Join(defaultPermissionsPolicy, ", ")},
	}

	// baseCSP defines static CSP directives that don't change.
	//
	// Component frames are served from the same origin, so framing is
	// limited to 'self' rather than forbidden.
	baseCSP = []string{
		"base-uri 'self'",
		"default-src 'self'",
		"font-src 'self'",
		"img-src 'self' data:",
		"frame-src 'self'",
		"frame-ancestors 'self'",
		"form-action 'self'",
	}

	// defaultPermissionsPolicy defines the default Permissions-Policy header.
	defaultPermissionsPolicy = []string{
		"accelerometer=()",
		"camera=()",
		"display-capture=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
		"xr-spatial-tracking=()",
	}
)

// SetResponseHeaders adds default headers to HTTP responses.
//
// It must run after the request context is attached, since the
// Content-Security-Policy carries the per-request nonce.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	if config.Global.Development.InDevelopment {
		invalidateCacheInDevelopment(headers)
	}

	headers.Set("Cache-Control", "private, no-cache")
	headers.Set("Dapp32-Version", config.BuildVersion)
	headers.Set("Dapp32-Revision", config.Global.Build.Revision())
	headers.Set("Content-Security-Policy", buildCSP(request_context.FromRequest(r).Nonce))

	next.ServeHTTP(w, r)
}

// for `invalidateCacheInDevelopment`
var firstDevResponse atomic.Bool

// clear cache in development
func invalidateCacheInDevelopment(headers http.Header) {
	if firstDevResponse.CompareAndSwap(false, true) {
		headers.Set("Clear-Site-Data", `"cache"`)
	}
}

func buildCSP(nonce string) string {
	const dynamicCSPDirectivesCount = 3

	directives := make([]string, len(baseCSP), len(baseCSP)+dynamicCSPDirectivesCount)
	copy(directives, baseCSP)

	scriptSrc := "script-src 'self'"
	styleSrc := "style-src 'self'"

	if nonce != "" {
		scriptSrc += " 'nonce-" + nonce + "'"
		styleSrc += " 'nonce-" + nonce + "'"
	}

	// wallets are reached through injected providers and public RPC endpoints
	connectSrc := "connect-src 'self' https: wss:"

	directives = append(directives, scriptSrc, styleSrc, connectSrc)

	return strings.Join(directives, "; ") + ";"
}
