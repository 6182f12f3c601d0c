// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"net/http"
	"strings"
)

// GetQueryParam retrieves the value of a query parameter by name.
//
// If the parameter is not present, it returns the provided default value or an empty string.
func GetQueryParam(r *http.Request, name string, defaultValue ...string) string {
	v := r.URL.Query().Get(name)
	if v != "" {
		return v
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return ""
}

// SanitizeReturnPath ensures that string s is a same-origin relative path (no scheme/host).
// Returns "" if the value is unsafe; callers should fallback to "/".
func SanitizeReturnPath(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Disallow absolute URLs and scheme-relative URLs to prevent open redirects.
	if strings.Contains(s, "://") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, `/\`) {
		return ""
	}

	// Must be absolute-path reference on this origin.
	if !strings.HasPrefix(s, "/") {
		return ""
	}

	return s
}
