// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

// named returns a handler that answers with its own name.
func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(name))
	})
}

// recorder captures the request state seen by the final handler.
type recorder struct {
	path      string
	routeName string
	mountPath string
	captures  map[string]string
	pathValue string
}

func (rec *recorder) handler(key string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := request_context.FromRequest(r)

		rec.path = r.URL.Path
		rec.routeName = rc.RouteName
		rec.mountPath = rc.MountPath
		rec.captures = map[string]string{}

		for k, v := range rc.Captures {
			rec.captures[k] = v
		}

		rec.pathValue = r.PathValue(key)

		w.WriteHeader(http.StatusNoContent)
	})
}

func stubHandlers() Handlers {
	return Handlers{
		Reactive:     New(urlconf.MustTable(urlconf.Path("web_module/<path:file>", named("web_module"), "web_module"))),
		Admin:        New(urlconf.MustTable(urlconf.Path("", named("admin_index"), "index"))),
		ViewContract: named("view_contract"),
		MetamaskTest: named("metamask"),
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))

	return w
}

func TestFullTable(t *testing.T) {
	t.Parallel()

	router := New(FullTable(stubHandlers(), false))

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/v/ethereum/0x1234", http.StatusOK, "view_contract"},
		{"/v/polygon/not-an-address", http.StatusOK, "view_contract"},
		{"/metamask/", http.StatusOK, "metamask"},
		{"/admin/", http.StatusOK, "admin_index"},
		{"/reactpy/web_module/dapp32/hello_world.js", http.StatusOK, "web_module"},
		{"/v/ethereum", http.StatusNotFound, ""},
		{"/v/ethereum/0x1234/extra", http.StatusNotFound, ""},
		{"/metamask", http.StatusNotFound, ""},
		{"/", http.StatusNotFound, ""},
		{"/nope/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			w := serve(router, http.MethodGet, tt.path)

			assert.Equal(t, tt.wantCode, w.Code)

			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestFullTableStrictAddress(t *testing.T) {
	t.Parallel()

	router := New(FullTable(stubHandlers(), true))

	w := serve(router, http.MethodGet, "/v/ethereum/0x"+strings.Repeat("ab", 20))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/v/ethereum/not-an-address")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMinimalTable(t *testing.T) {
	t.Parallel()

	table := MinimalTable(stubHandlers())
	router := New(table)

	assert.Equal(t, 2, table.Len())

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/admin/").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/reactpy/web_module/a.js").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/v/ethereum/0x1234").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metamask/").Code)
}

func TestTableOrderAndNames(t *testing.T) {
	t.Parallel()

	routes := FullTable(stubHandlers(), false).Routes()
	names := make([]string, 0, len(routes))

	for _, r := range routes {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{ReactiveRoute, AdminRoute, ViewContractRoute, MetamaskRoute}, names)
	assert.Equal(t, urlconf.Mount, routes[0].Kind)
	assert.Equal(t, urlconf.Mount, routes[1].Kind)
	assert.Equal(t, urlconf.Endpoint, routes[2].Kind)
}

func TestReverse(t *testing.T) {
	t.Parallel()

	table := FullTable(stubHandlers(), false)

	path, err := table.Reverse(ViewContractRoute, map[string]string{"network": "ethereum", "address": "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, "/v/ethereum/0xabc", path)

	path, err = table.Reverse(MetamaskRoute, nil)
	require.NoError(t, err)
	assert.Equal(t, "/metamask/", path)

	_, err = MinimalTable(stubHandlers()).Reverse(MetamaskRoute, nil)
	assert.ErrorIs(t, err, urlconf.ErrNoReverseMatch)
}

func TestFirstMatchWins(t *testing.T) {
	t.Parallel()

	router := New(urlconf.MustTable(
		urlconf.Path("v/<str:network>/<str:address>", named("first"), "first"),
		urlconf.Path("v/ethereum/<str:address>", named("second"), "second"),
	))

	assert.Equal(t, "first", serve(router, http.MethodGet, "/v/ethereum/0x1").Body.String())
}

func TestNestedMount(t *testing.T) {
	t.Parallel()

	var rec recorder

	inner := New(urlconf.MustTable(
		urlconf.Path("item/<int:id>/", rec.handler("id"), "item"),
	))
	outer := New(urlconf.MustTable(
		urlconf.Include("shop/<str:slug>/", inner, "shop"),
	))

	w := serve(outer, http.MethodGet, "/shop/acme/item/42/")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/item/42/", rec.path)
	assert.Equal(t, "shop:item", rec.routeName)
	assert.Equal(t, "/shop/acme", rec.mountPath)
	assert.Equal(t, map[string]string{"slug": "acme", "id": "42"}, rec.captures)
	assert.Equal(t, "42", rec.pathValue)

	assert.Equal(t, http.StatusNotFound, serve(outer, http.MethodGet, "/shop/acme/item/x/").Code)
}

func TestResolves(t *testing.T) {
	t.Parallel()

	router := New(FullTable(stubHandlers(), false))

	assert.True(t, router.Resolves("/metamask/"))
	assert.True(t, router.Resolves("/admin/"))
	assert.False(t, router.Resolves("/metamask"))
	assert.False(t, router.Resolves("/admin/missing"))
}

func TestStripPrefix(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/admin/a%2Fb", nil)
	stripped := stripPrefix(r, "admin/")

	assert.Equal(t, "/a/b", stripped.URL.Path)
	assert.Equal(t, "/a%2Fb", stripped.URL.RawPath)
	assert.Equal(t, "/admin/a/b", r.URL.Path, "original request is untouched")

	assert.Same(t, r, stripPrefix(r, ""))
}

//nolint:paralleltest // mutates config.Global
func TestRegisterMiddleware(t *testing.T) {
	previous := config.Global
	t.Cleanup(func() { config.Global = previous })

	config.Global.Routing.AppendSlash = true

	router := New(FullTable(stubHandlers(), false))
	router.RegisterMiddleware()

	w := serve(router, http.MethodGet, "/metamask?x=1")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/metamask/?x=1", w.Header().Get("Location"))

	w = serve(router, http.MethodGet, "/admin")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/admin/", w.Header().Get("Location"))

	w = serve(router, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, "/metamask/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

//nolint:paralleltest // mutates config.Global
func TestDefineRoutes(t *testing.T) {
	previous := config.Global
	t.Cleanup(func() { config.Global = previous })

	config.Global.SetDefaults()
	config.SessionSigner.GenerateKey()

	router, err := DefineRoutes()
	require.NoError(t, err)
	router.RegisterMiddleware()

	w := serve(router, http.MethodGet, "/v/ethereum/0x1234")
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", strings.TrimSpace(doc.Find("#network").Text()))
	assert.Equal(t, "0x1234", strings.TrimSpace(doc.Find("#address").Text()))

	w = serve(router, http.MethodGet, "/metamask/")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/admin/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/admin/login/"))

	w = serve(router, http.MethodGet, "/admin/login/")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/reactpy/iframe/dapp32.components.hello_world/")
	assert.Equal(t, http.StatusOK, w.Code)

	config.Global.Routing.Table = config.MinimalTable

	router, err = DefineRoutes()
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/v/ethereum/0x1234").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metamask/").Code)
}
