// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package admin

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/dapp32/dapp32/core/pagecache"
	"codeberg.org/dapp32/dapp32/core/session"
	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

const testPassword = "correct horse battery staple"

type mount struct{ table *urlconf.Table }

func (m mount) ServeHTTP(http.ResponseWriter, *http.Request) {}
func (m mount) Table() *urlconf.Table                         { return m.table }

func newConsole(t *testing.T, withPassword bool) *Console {
	t.Helper()

	signer := &session.Signer{}
	signer.GenerateKey()

	opts := Options{
		Username:   "admin",
		SessionTTL: time.Hour,
		Signer:     signer,
	}

	if withPassword {
		hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
		require.NoError(t, err)

		opts.PasswordHash = string(hash)
	}

	cache, err := pagecache.New(8, false)
	require.NoError(t, err)

	cache.Add("/metamask/", pagecache.Page{StatusCode: http.StatusOK, Body: []byte("cached")})
	opts.Cache = cache

	return New(opts)
}

// do serves req through the console as if it were mounted at /admin.
func do(t *testing.T, c *Console, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	req = req.WithContext(request_context.WithRequestContext(req.Context()))
	request_context.FromRequest(req).MountPath = "/admin"

	rr := httptest.NewRecorder()

	match, ok := c.Table().Resolve(req.URL.Path)
	if !ok {
		rr.WriteHeader(http.StatusNotFound)

		return rr
	}

	match.Route.Handler.ServeHTTP(rr, req)

	return rr
}

func postForm(target string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	return req
}

func get(target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	return req
}

func signIn(t *testing.T, c *Console) *http.Cookie {
	t.Helper()

	rr := do(t, c, postForm("/login/", url.Values{
		"username": {"admin"},
		"password": {testPassword},
		"next":     {"/admin/"},
	}))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}

	t.Fatal("no session cookie set")

	return nil
}

func TestIndexRequiresLogin(t *testing.T) {
	t.Parallel()

	rr := do(t, newConsole(t, true), get("/"))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/admin/login/?next=%2Fadmin%2F", rr.Header().Get("Location"))
}

func TestLoginForm(t *testing.T) {
	t.Parallel()

	rr := do(t, newConsole(t, true), get("/login/?next=/admin/routes.json"))
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)

	action, _ := doc.Find("form").Attr("action")
	assert.Equal(t, "/admin/login/", action)

	next, _ := doc.Find(`input[name="next"]`).Attr("value")
	assert.Equal(t, "/admin/routes.json", next)
	assert.Zero(t, doc.Find("#login-notice").Length())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)

	for _, form := range []url.Values{
		{"username": {"admin"}, "password": {"wrong"}},
		{"username": {"root"}, "password": {testPassword}},
		{"username": {"admin"}},
		{"password": {testPassword}},
	} {
		rr := do(t, c, postForm("/login/", form))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Result().Cookies())
		assert.Contains(t, rr.Body.String(), noticeInvalid)
	}
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	t.Parallel()

	c := newConsole(t, false)
	assert.False(t, c.Enabled())

	rr := do(t, c, postForm("/login/", url.Values{"username": {"admin"}, "password": {""}}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), noticeDisabled)

	rr = do(t, c, get("/login/"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), noticeDisabled)
}

func TestLoginAndDashboard(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)
	c.Inspect(urlconf.MustTable(
		urlconf.Include("admin/", mount{c.Table()}, "admin"),
		urlconf.Path("metamask/", http.NotFoundHandler(), "metamask"),
	))

	cookie := signIn(t, c)
	assert.Equal(t, "/admin/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	rr := do(t, c, get("/", cookie))
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "admin", doc.Find("#admin-user").Text())
	assert.Equal(t, "1 entries, 0 hits, 0 misses", doc.Find("#cache").Text())
	assert.Equal(t, "/metamask/", doc.Find("#cache-keys code").Text())

	// admin mount + 5 console routes + metamask
	rows := doc.Find("#routes tbody tr")
	assert.Equal(t, 7, rows.Length())
	assert.Equal(t, "admin/login/", rows.Eq(2).Find("td").Eq(1).Text())

	// already signed in: the form redirects back
	rr = do(t, c, get("/login/", cookie))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/admin/", rr.Header().Get("Location"))
}

func TestLoginNextIsSanitized(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)

	for next, want := range map[string]string{
		"https://evil.example/": "/admin/",
		"//evil.example/":       "/admin/",
		"/metamask/":            "/admin/",
		"/admin/routes.json":    "/admin/routes.json",
	} {
		rr := do(t, c, postForm("/login/", url.Values{
			"username": {"admin"},
			"password": {testPassword},
			"next":     {next},
		}))
		assert.Equal(t, want, rr.Header().Get("Location"), next)
	}
}

func TestRoutesJSON(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)

	rr := do(t, c, get("/routes.json"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", gjson.Get(rr.Body.String(), "error").String())

	rr = do(t, c, get("/routes.json", signIn(t, c)))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t,
		`["index","login","logout","routes","cache_purge"]`,
		gjson.Get(body, "routes.#.name").Raw)
	assert.Equal(t, "endpoint", gjson.Get(body, "routes.1.kind").String())
	assert.Equal(t, "dapp32/metamask_test.html", gjson.Get(body, "templates.0").String())
}

func TestLogout(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)
	cookie := signIn(t, c)

	rr := do(t, c, get("/logout/", cookie))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))

	rr = do(t, c, postForm("/logout/", nil, cookie))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin/login/", rr.Header().Get("Location"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestPurgeCache(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)
	require.Equal(t, 1, c.opts.Cache.Len())

	// anonymous: sent to the login form, nothing purged
	rr := do(t, c, postForm("/cache/purge/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, 1, c.opts.Cache.Len())

	rr = do(t, c, postForm("/cache/purge/", nil, signIn(t, c)))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Zero(t, c.opts.Cache.Len())
}

func TestPurgeCacheKey(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)
	c.opts.Cache.Add("/v/ethereum/0x1234", pagecache.Page{StatusCode: http.StatusOK, Body: []byte("cached")})

	cookie := signIn(t, c)

	rr := do(t, c, postForm("/cache/purge/", url.Values{"key": {"/metamask/"}}, cookie))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []string{"/v/ethereum/0x1234"}, c.opts.Cache.Keys())

	// unknown keys leave the cache alone
	rr = do(t, c, postForm("/cache/purge/", url.Values{"key": {"/nope/"}}, cookie))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, 1, c.opts.Cache.Len())
}

func TestForgedCookie(t *testing.T) {
	t.Parallel()

	c := newConsole(t, true)

	other := &session.Signer{}
	other.GenerateKey()

	token, err := other.Sign("admin", time.Hour)
	require.NoError(t, err)

	rr := do(t, c, get("/", &http.Cookie{Name: CookieName, Value: token}))
	assert.Equal(t, http.StatusFound, rr.Code)
}
