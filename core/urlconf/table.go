// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package urlconf

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNilHandler     = errors.New("route has no handler")
	ErrNoReverseMatch = errors.New("no reverse match")
)

// Kind tells endpoint routes apart from mount points.
type Kind int

const (
	// Endpoint routes match the whole path.
	Endpoint Kind = iota
	// Mount routes match a path prefix and delegate the rest.
	Mount
)

func (k Kind) String() string {
	if k == Mount {
		return "mount"
	}

	return "endpoint"
}

// Route binds a route string to a handler.
//
// Routes are created with [Path] or [Include]. Compile errors are held until
// the route is added to a table by [NewTable].
type Route struct {
	Name    string
	Handler http.Handler
	Kind    Kind

	pattern *Pattern
	route   string
	err     error
}

// Path declares an endpoint route.
func Path(route string, handler http.Handler, name string) Route {
	return newRoute(route, handler, name, Endpoint)
}

// Include declares a mount point. Paths under route are delegated to handler.
func Include(route string, handler http.Handler, name string) Route {
	return newRoute(route, handler, name, Mount)
}

func newRoute(route string, handler http.Handler, name string, kind Kind) Route {
	pattern, err := Compile(route, kind == Endpoint)

	return Route{
		Name:    name,
		Handler: handler,
		Kind:    kind,
		pattern: pattern,
		route:   route,
		err:     err,
	}
}

// Pattern returns the route string.
func (r Route) Pattern() string {
	return r.route
}

// Captures returns the names captured by the route, in order.
func (r Route) Captures() []string {
	if r.pattern == nil {
		return nil
	}

	return r.pattern.Names()
}

// Match is the result of a successful lookup.
type Match struct {
	Route    Route
	Captures map[string]string

	// Matched is the part of the path consumed by the route.
	Matched string
	// Remainder is the unconsumed part of the path. Always empty for endpoints.
	Remainder string
}

// Table is an ordered, immutable list of routes.
type Table struct {
	routes []Route
}

// NewTable validates routes and returns a table preserving their order.
func NewTable(routes ...Route) (*Table, error) {
	var errs []error

	for i, r := range routes {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("route %d (%q): %w", i, r.route, r.err))
		}

		if r.Handler == nil {
			errs = append(errs, fmt.Errorf("route %d (%q): %w", i, r.route, ErrNilHandler))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Table{routes: append([]Route(nil), routes...)}, nil
}

// MustTable is like NewTable but panics on error.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}

	return t
}

// Routes returns a copy of the table's routes in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Resolve returns the first route matching path.
//
// A single leading slash is ignored, so "/admin/" and "admin/" are the same.
func (t *Table) Resolve(path string) (Match, bool) {
	path = strings.TrimPrefix(path, "/")

	for _, r := range t.routes {
		captures, remainder, ok := r.pattern.Match(path)
		if !ok {
			continue
		}

		return Match{
			Route:     r,
			Captures:  captures,
			Matched:   path[:len(path)-len(remainder)],
			Remainder: remainder,
		}, true
	}

	return Match{}, false
}

// Reverse returns the slash-rooted path of the route called name.
//
// Routes are tried in order and the first one kwargs fit is used.
func (t *Table) Reverse(name string, kwargs map[string]string) (string, error) {
	var lastErr error

	for _, r := range t.routes {
		if r.Name != name {
			continue
		}

		path, err := r.pattern.build(kwargs)
		if err != nil {
			lastErr = err

			continue
		}

		return "/" + path, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("reverse %q: %w", name, lastErr)
	}

	return "", fmt.Errorf("%w: no route named %q", ErrNoReverseMatch, name)
}
