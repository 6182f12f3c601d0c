// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package requestcontext provides per-request state management for HTTP handlers.

This package is separate because Go disallows a cyclic import graph.
*/
package request_context

import (
	"context"
	"net/http"
	"strings"

	"codeberg.org/dapp32/dapp32/core/idgen"
)

// RequestContext carries request-scoped data through the middleware chain.
//
// This data survives the entire lifetime of a single HTTP request and is safe
// for concurrent access from multiple goroutines handling the same request.
type RequestContext struct {
	// RequestID is an identifier for tracing requests.
	RequestID string

	// Holds any critical error encountered during request processing.
	//
	// Automatically populated by middleware.CatchError when handlers return errors,
	// which interrupts normal response handling and renders an error page instead.
	RequestError error

	// HTTP status code to be sent in the response. Defaults to 200 OK.
	StatusCode int

	// RouteName is the name of the innermost route that resolved the request.
	RouteName string

	// Captures holds the values extracted from the request path, keyed by
	// capture name. Mounts add their own captures on top of the parent's.
	Captures map[string]string

	// MountPath is the prefix consumed by enclosing mounts, e.g. "/admin".
	MountPath string

	// Nonce is the Content-Security-Policy nonce for inline scripts.
	Nonce string

	// Reverse builds the path of a named route in the outermost table.
	// It is nil until a router has dispatched the request.
	Reverse func(name string, kwargs map[string]string) (string, error)
}

// requestContextKeyType defines a unique type for a RequestContext key.
type requestContextKeyType struct{}

// requestContextKey is a unique key used to access RequestContext
// values from a context.Context.
var requestContextKey = requestContextKeyType{}

// WithRequestContext initializes a new request context and attaches it to
// the parent context.
//
// This is called once per request, first in the middleware chain (see main.go).
func WithRequestContext(ctx context.Context) context.Context {
	rc := RequestContext{
		RequestID:  idgen.Make(),
		StatusCode: http.StatusOK,
		Captures:   map[string]string{},
		Nonce:      idgen.Nonce(),
	}

	return context.WithValue(ctx, requestContextKey, &rc)
}

// Lookup returns the RequestContext attached to ctx, if any.
func Lookup(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(*RequestContext)

	return rc, ok
}

// FromContext extracts the RequestContext from a context, always returning
// a valid pointer.
//
// If no context is found, returns a zero-value instance.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := Lookup(ctx); ok {
		return rc
	}

	return &RequestContext{Captures: map[string]string{}}
}

// FromRequest is a convenience wrapper for extracting RequestContext
// directly from HTTP requests.
//
// Prefer this in handlers that have access to the *http.Request object.
func FromRequest(r *http.Request) *RequestContext {
	return FromContext(r.Context())
}

// Capture returns the value captured under name, or "".
func (rc *RequestContext) Capture(name string) string {
	return rc.Captures[name]
}

// Link joins the mount path with a path relative to the current mount.
func (rc *RequestContext) Link(rel string) string {
	return rc.MountPath + "/" + strings.TrimPrefix(rel, "/")
}
