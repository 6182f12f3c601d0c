// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default HTTP cache max age in seconds.
	defaultHTTPCacheMaxAgeSeconds = 30
	// Default HTTP cache stale while revalidate in seconds.
	defaultHTTPCacheStaleWhileRevalidateSeconds = 60

	// Default admin session lifetime in hours.
	defaultAdminSessionTTLHours = 12

	// Default number of cached pages.
	defaultCacheSize = 256

	// Admin login attempts per second and burst, per client.
	defaultLimiterRate  = 0.2
	defaultLimiterBurst = 5
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Routing.Table = FullTable
	cfg.Routing.StrictAddress = false
	cfg.Routing.AppendSlash = true

	cfg.Admin.Username = "admin"
	cfg.Admin.PasswordHash = ""
	cfg.Admin.SessionTTL = defaultAdminSessionTTLHours * time.Hour

	cfg.Cache.Enabled = false
	cfg.Cache.Size = defaultCacheSize
	cfg.Cache.Compress = true

	cfg.HTTPCache.MaxAge = defaultHTTPCacheMaxAgeSeconds * time.Second
	cfg.HTTPCache.StaleWhileRevalidate = defaultHTTPCacheStaleWhileRevalidateSeconds * time.Second

	cfg.Development.InDevelopment = false

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = true
	cfg.Limiter.Rate = defaultLimiterRate
	cfg.Limiter.Burst = defaultLimiterBurst
}
