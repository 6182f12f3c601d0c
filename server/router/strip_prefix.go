// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/url"
	"strings"
)

// stripPrefix returns a shallow copy of r whose path has the mount prefix
// removed. prefix is relative, as consumed by urlconf.Table.Resolve, and the
// result always starts with "/".
func stripPrefix(r *http.Request, prefix string) *http.Request {
	if prefix == "" {
		return r
	}

	p := "/" + strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/"), prefix)

	rp := ""
	if r.URL.RawPath != "" {
		if rest, ok := strings.CutPrefix(strings.TrimPrefix(r.URL.RawPath, "/"), prefix); ok {
			rp = "/" + rest
		}
	}

	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = p
	r2.URL.RawPath = rp

	return r2
}
