// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that enforces rate limiting for state-changing HTTP requests.

Clients are grouped by their IP network and every network gets its own token
bucket. Safe methods (GET, HEAD, OPTIONS) are never limited.
*/
package limiter
