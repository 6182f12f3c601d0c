// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/a-h/templ"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/core/idgen"
	"codeberg.org/dapp32/dapp32/core/pagecache"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

// ErrUnknownTemplate is returned by TemplateView for names with no registered template.
var ErrUnknownTemplate = errors.New("unknown template")

// cachedNonce stands in for the CSP nonce in cached pages.
// It is swapped for the per-request nonce when a cached page is served, so it
// is random per process and cannot be smuggled in through a path capture.
var cachedNonce = "dapp32-nonce-" + idgen.Nonce()

// TemplateView returns a handler that renders the named template.
//
// Rendered pages are stored in cache when it is non-nil, keyed by the full
// request path. Only successful GET and HEAD responses are cached.
func TemplateView(name string, cache *pagecache.Cache) (func(w http.ResponseWriter, r *http.Request) error, error) {
	tmpl, ok := views.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := request_context.FromRequest(r)
		cacheable := cache != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead)
		key := ctx.MountPath + r.URL.Path

		if cacheable {
			if page, hit := cache.Get(key); hit {
				writeCachedPage(w, page, ctx.Nonce)

				return nil
			}
		}

		var (
			buf       bytes.Buffer
			renderCtx context.Context
		)

		if cacheable {
			renderCtx = templ.WithNonce(r.Context(), cachedNonce)
		} else {
			renderCtx = withNonce(r)
		}

		if err := tmpl(renderCtx).Render(renderCtx, &buf); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}

		header := pageHeaders()

		if cacheable {
			page := pagecache.Page{
				StatusCode: http.StatusOK,
				Header:     header,
				Body:       buf.Bytes(),
			}
			cache.Add(key, page)
			writeCachedPage(w, page, ctx.Nonce)

			return nil
		}

		maps.Copy(w.Header(), header)
		w.WriteHeader(http.StatusOK)
		_, err := buf.WriteTo(w)

		return err
	}, nil
}

// MustTemplateView is like TemplateView but panics on an unknown name.
func MustTemplateView(name string, cache *pagecache.Cache) func(w http.ResponseWriter, r *http.Request) error {
	h, err := TemplateView(name, cache)
	if err != nil {
		panic(err)
	}

	return h
}

func pageHeaders() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(config.Global.HTTPCache.MaxAge.Seconds()),
		int(config.Global.HTTPCache.StaleWhileRevalidate.Seconds())))

	return header
}

func writeCachedPage(w http.ResponseWriter, page pagecache.Page, nonce string) {
	maps.Copy(w.Header(), page.Header)

	w.WriteHeader(page.StatusCode)
	_, _ = w.Write(bytes.ReplaceAll(page.Body, []byte(cachedNonce), []byte(nonce)))
}

// withNonce returns the request context with the CSP nonce attached for templ.
func withNonce(r *http.Request) context.Context {
	return templ.WithNonce(r.Context(), request_context.FromRequest(r).Nonce)
}
