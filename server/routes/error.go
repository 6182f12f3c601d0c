// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

// ErrorPage renders an error page.
//
// The status line must already have been written; ErrorPage uses
// RequestError and StatusCode from the request context.
func ErrorPage(w http.ResponseWriter, r *http.Request) error {
	ctx := request_context.FromRequest(r)

	title := "Error"
	if ctx.StatusCode == http.StatusNotFound {
		title = "Not found"
	}

	pageData := views.ErrorData{
		Title:      title,
		Error:      ctx.RequestError,
		StatusCode: ctx.StatusCode,
		Path:       ctx.MountPath + r.URL.Path,
	}

	return views.Error(pageData).Render(withNonce(r), w)
}

// NotFound answers every request with 404.
//
// Wrapped in middleware.CatchError, the status is turned into the themed
// error page.
func NotFound(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusNotFound)

	return nil
}
