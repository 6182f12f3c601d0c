// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testRoutes = regexp.MustCompile(`^/(v/[^/]+/[^/]+|metamask/|admin/.*|/evil\.com)$`)

func testResolver(path string) bool {
	return testRoutes.MatchString(path)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		method           string
		requestURL       string
		expectedStatus   int
		expectedLocation string
	}{
		{
			name:           "Root path should not redirect",
			requestURL:     "/",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Routed path should not redirect",
			requestURL:     "/v/ethereum/0xabc",
			expectedStatus: http.StatusOK,
		},
		{
			name:             "Trailing slash removed when only the bare path is routed",
			requestURL:       "/v/ethereum/0xabc/",
			expectedStatus:   http.StatusMovedPermanently,
			expectedLocation: "/v/ethereum/0xabc",
		},
		{
			name:             "Trailing slash appended when only the slashed path is routed",
			requestURL:       "/metamask",
			expectedStatus:   http.StatusMovedPermanently,
			expectedLocation: "/metamask/",
		},
		{
			name:             "Query parameters should be preserved",
			requestURL:       "/metamask?chain=1&debug",
			expectedStatus:   http.StatusMovedPermanently,
			expectedLocation: "/metamask/?chain=1&debug",
		},
		{
			name:             "POST gets a permanent redirect keeping the method",
			method:           http.MethodPost,
			requestURL:       "/admin",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/admin/",
		},
		{
			name:           "Unrouted either way falls through",
			requestURL:     "/nowhere",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Protocol-relative target is never produced",
			requestURL:     "//evil.com/",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}

			handler := Wrap(NormalizeURL(testResolver), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(method, tt.requestURL, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedLocation != "" {
				assert.Equal(t, tt.expectedLocation, rr.Header().Get("Location"))
			}
		})
	}
}

func TestToggleTrailingSlash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/", toggleTrailingSlash("/a"))
	assert.Equal(t, "/a", toggleTrailingSlash("/a/"))
}
