// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package admin

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/server/request_context"
	"codeberg.org/dapp32/dapp32/server/utils"
)

// CookieName is the name of the session cookie.
const CookieName = "dapp32_admin"

const (
	noticeDisabled = "Admin login is disabled: no password hash is configured."
	noticeInvalid  = "Invalid username or password."
)

var errNotSignedIn = errors.New("not signed in")

// currentUser returns the signed-in administrator.
func (c *Console) currentUser(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", errNotSignedIn
	}

	username, err := c.opts.Signer.Verify(cookie.Value)
	if err != nil {
		return "", err
	}

	// a token outlives a username change; don't honor it
	if username != c.opts.Username || !c.Enabled() {
		return "", errNotSignedIn
	}

	return username, nil
}

// checkCredentials reports whether username and password match the configuration.
func (c *Console) checkCredentials(username, password string) bool {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.opts.Username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(c.opts.PasswordHash), []byte(password))

	return usernameOK && passwordErr == nil
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

func (c *Console) login(w http.ResponseWriter, r *http.Request) error {
	rc := request_context.FromRequest(r)

	data := views.AdminLoginData{
		Action: rc.Link("login/"),
		Next:   c.safeNext(rc, utils.GetQueryParam(r, "next")),
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if _, err := c.currentUser(r); err == nil {
			http.Redirect(w, r, data.Next, http.StatusFound)

			return nil
		}

		if !c.Enabled() {
			data.Notice = noticeDisabled
		}

		return c.renderLogin(w, r, http.StatusOK, data)
	case http.MethodPost:
	default:
		return methodNotAllowed(w, "GET, HEAD, POST")
	}

	// fields are mapped before validation, so form is usable even when bindErr is set
	var form loginForm

	bindErr := binding.Form.Bind(r, &form)

	data.Next = c.safeNext(rc, form.Next)
	data.Username = form.Username

	if !c.Enabled() {
		data.Notice = noticeDisabled

		return c.renderLogin(w, r, http.StatusForbidden, data)
	}

	if bindErr != nil || !c.checkCredentials(form.Username, form.Password) {
		log.Warn().
			Err(bindErr).
			Str("username", data.Username).
			Str("request_id", rc.RequestID).
			Msg("Failed admin login")

		data.Notice = noticeInvalid

		return c.renderLogin(w, r, http.StatusUnauthorized, data)
	}

	token, err := c.opts.Signer.Sign(c.opts.Username, c.opts.SessionTTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     rc.Link(""),
		MaxAge:   int(c.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   utils.IsConnectionSecure(r),
		SameSite: http.SameSiteStrictMode,
	})

	log.Info().
		Str("username", c.opts.Username).
		Str("request_id", rc.RequestID).
		Msg("Admin signed in")

	http.Redirect(w, r, data.Next, http.StatusSeeOther)

	return nil
}

func (c *Console) logout(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}

	rc := request_context.FromRequest(r)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     rc.Link(""),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   utils.IsConnectionSecure(r),
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, rc.Link("login/"), http.StatusSeeOther)

	return nil
}

// requireLogin redirects to the login form unless an administrator is signed in.
// It reports whether the caller may proceed.
func (c *Console) requireLogin(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, err := c.currentUser(r)
	if err == nil {
		return username, true
	}

	rc := request_context.FromRequest(r)
	target := rc.Link("login/") + "?next=" + url.QueryEscape(rc.MountPath+r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)

	return "", false
}

// safeNext keeps redirects after login inside the console.
func (c *Console) safeNext(rc *request_context.RequestContext, next string) string {
	index := rc.Link("")

	next = utils.SanitizeReturnPath(next)
	if next == "" || !strings.HasPrefix(next, index) {
		return index
	}

	return next
}

func (c *Console) renderLogin(w http.ResponseWriter, r *http.Request, status int, data views.AdminLoginData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	return views.AdminLogin(data).Render(withNonce(r), w)
}
