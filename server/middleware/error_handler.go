// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/core/audit"
	"codeberg.org/dapp32/dapp32/server/request_context"
	"codeberg.org/dapp32/dapp32/server/routes"
)

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// It operates as follows:
//  1. It times the request for logging purposes.
//  2. It wraps the execution of the given handler, which has the signature
//     `func(w http.ResponseWriter, r *http.Request) error`. The handler's
//     output is buffered using an httptest.ResponseRecorder.
//  3. Any error returned by the handler is stored in the request context.
//
// After the handler runs, it decides on the final response:
//   - If the handler returns an error without writing an HTTP error status
//     code (i.e., status < 400), it's treated as an unhandled internal error.
//     The buffered response is discarded, and a generic 500 Internal Server Error
//     page is rendered.
//   - If the handler wrote a 404 Not Found status, the buffered response is
//     also discarded and replaced with the generic error page.
//   - In all other cases (e.g., a successful response), the buffered response
//     is written to the client.
//
// Finally, it logs the completed request details (status, duration, error, etc.)
// via the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		destination := audit.ToPage
		if ctx.MountPath != "" {
			destination = audit.ToMount
		}

		span := audit.Span{
			Destination: destination,
			RequestID:   ctx.RequestID,
			Method:      r.Method,
			URL:         ctx.MountPath + r.URL.RequestURI(),
			Route:       ctx.RouteName,
		}

		_ = span.Begin(r.Context())
		defer span.End()

		recorder := httptest.NewRecorder()

		// Execute the handler, capturing its output and any returned error.
		err := handler(recorder, r)

		ctx.RequestError = err

		switch {
		case (ctx.RequestError != nil && recorder.Code < http.StatusBadRequest) || (recorder.Code == http.StatusNotFound):
			// An unhandled error or a 404 occurred. Discard the recorder's contents
			// and render our generic error page.
			if recorder.Code == http.StatusNotFound {
				ctx.StatusCode = http.StatusNotFound
			} else {
				// For any other error caught by this logic, it's an internal server error.
				ctx.StatusCode = http.StatusInternalServerError
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(ctx.StatusCode)

			if renderErr := routes.ErrorPage(w, r); renderErr != nil {
				log.Err(renderErr).Msg("Failed to render the error page")
			}

		default:
			// This is a successful response or a handled error. We trust the recorder's output.
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code // Ensure ctx.StatusCode reflects the actual code for logging.
			span.Size = recorder.Body.Len()
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.End()
		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		// Log the application response if not excluded.
		if !config.Global.ShouldSkipServerLogging(ctx.MountPath + r.URL.Path) {
			span.Log()
		}
	}
}
