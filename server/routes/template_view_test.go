// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/core/pagecache"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

func newRequest(t *testing.T, method, target string, captures map[string]string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(request_context.WithRequestContext(req.Context()))

	rc := request_context.FromRequest(req)
	for k, v := range captures {
		rc.Captures[k] = v
	}

	return req
}

func TestTemplateViewUnknown(t *testing.T) {
	t.Parallel()

	_, err := TemplateView("dapp32/missing.html", nil)
	require.ErrorIs(t, err, ErrUnknownTemplate)

	assert.Panics(t, func() { MustTemplateView("dapp32/missing.html", nil) })
}

func TestTemplateViewRendersCaptures(t *testing.T) {
	t.Parallel()

	handler := MustTemplateView(views.ViewContractTemplate, nil)
	req := newRequest(t, http.MethodGet, "/v/ethereum/0xabc", map[string]string{
		"network": "ethereum",
		"address": "0xabc",
	})
	rr := httptest.NewRecorder()

	require.NoError(t, handler(rr, req))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", doc.Find("#network").Text())
	assert.Equal(t, "0xabc", doc.Find("#address").Text())
	assert.Equal(t, 1, doc.Find("#address-notice").Length(), "unvalidated address still renders")
}

func TestTemplateViewCache(t *testing.T) {
	t.Parallel()

	cache, err := pagecache.New(4, true)
	require.NoError(t, err)

	handler := MustTemplateView(views.MetamaskTestTemplate, cache)

	first := newRequest(t, http.MethodGet, "/metamask/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, handler(rr, first))
	assert.Equal(t, 1, cache.Len())

	second := newRequest(t, http.MethodGet, "/metamask/", nil)
	rr2 := httptest.NewRecorder()
	require.NoError(t, handler(rr2, second))

	hits, _ := cache.Stats()
	assert.Equal(t, uint64(1), hits)

	doc, err := goquery.NewDocumentFromReader(rr2.Body)
	require.NoError(t, err)

	nonce, _ := doc.Find("script").Attr("nonce")
	assert.Equal(t, request_context.FromRequest(second).Nonce, nonce, "cached page carries the current nonce")
	assert.NotContains(t, rr2.Body.String(), cachedNonce)
}

func TestTemplateViewCacheKeepsCaptures(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, "dapp32-nonce-", cachedNonce)

	cache, err := pagecache.New(4, false)
	require.NoError(t, err)

	handler := MustTemplateView(views.ViewContractTemplate, cache)

	for _, address := range []string{"dapp32-cached-nonce", "dapp32-nonce-"} {
		// the second round is served from the cache
		for range 2 {
			req := newRequest(t, http.MethodGet, "/v/a/"+address, map[string]string{
				"network": "a",
				"address": address,
			})
			rr := httptest.NewRecorder()
			require.NoError(t, handler(rr, req))

			doc, err := goquery.NewDocumentFromReader(rr.Body)
			require.NoError(t, err)
			assert.Equal(t, address, doc.Find("#address").Text())
			assert.NotContains(t, doc.Find("title").Text(), request_context.FromRequest(req).Nonce)
		}
	}

	hits, _ := cache.Stats()
	assert.Equal(t, uint64(2), hits)
}

func TestTemplateViewPostNotCached(t *testing.T) {
	t.Parallel()

	cache, err := pagecache.New(4, false)
	require.NoError(t, err)

	handler := MustTemplateView(views.MetamaskTestTemplate, cache)
	require.NoError(t, handler(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/metamask/", nil)))
	assert.Zero(t, cache.Len())
}

func TestNotFoundAndErrorPage(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.NoError(t, NotFound(rr, httptest.NewRequest(http.MethodGet, "/nope", nil)))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := newRequest(t, http.MethodGet, "/login/", nil)
	rc := request_context.FromRequest(req)
	rc.StatusCode = http.StatusNotFound
	rc.MountPath = "/admin"

	rr = httptest.NewRecorder()
	require.NoError(t, ErrorPage(rr, req))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "/admin/login/", doc.Find("main code").Text())
}
