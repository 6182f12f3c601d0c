// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import "regexp"

var addressRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// LooksLikeAddress reports whether s has the shape of an EVM account address.
func LooksLikeAddress(s string) bool {
	return addressRegexp.MatchString(s)
}

// ErrorData is the data used to render the error page.
type ErrorData struct {
	Title      string
	Error      error
	StatusCode int
	Path       string
}

// ViewContractData is the data used to render the contract page.
type ViewContractData struct {
	Network string
	Address string
	// WalletFrame is the URL of the wallet connection component.
	WalletFrame string
}

// RouteRow describes one route of a table for display.
type RouteRow struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Kind    string `json:"kind"`
	Depth   int    `json:"depth"`
}

// CacheStats summarizes the page cache for display.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
	// Keys lists the cached paths, least recently used first.
	Keys []string
}

// AdminIndexData is the data used to render the admin dashboard.
type AdminIndexData struct {
	Username     string
	LogoutAction string
	RoutesJSON   string
	Routes       []RouteRow
	// Cache is nil when the page cache is disabled.
	Cache *CacheStats
	// PurgeAction is the form action purging the page cache.
	PurgeAction string
}

// AdminLoginData is the data used to render the admin login form.
type AdminLoginData struct {
	Action   string
	Next     string
	Username string
	Notice   string
}

// ReactiveFrameData is the data used to render a component frame.
type ReactiveFrameData struct {
	// DottedPath names the component, e.g. "dapp32.components.hello_world".
	DottedPath string
	// ModuleURL is the JavaScript module implementing the component.
	ModuleURL string
	// Props is the JSON-encoded initial state handed to the module.
	Props string
}
