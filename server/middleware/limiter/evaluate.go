// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/server/request_context"
	"codeberg.org/dapp32/dapp32/server/routes"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit" // This is intended.
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// ErrRateLimited is recorded in the request context of rejected requests.
var ErrRateLimited = errors.New("too many requests, try again later")

// Evaluate is the entrypoint to the limiter middleware.
//
// Only state-changing requests consume tokens. Limits come from config.Global.Limiter.
func Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if !config.Global.Limiter.Enabled || isSafeMethod(r.Method) {
		next.ServeHTTP(w, r)

		return
	}

	defer DoCleanup()

	lim := getOrCreateLimiter(clientNetwork(r), config.Global.Limiter.Rate, config.Global.Limiter.Burst)
	d := checkRateLimit(lim)

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(d.limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(d.remaining))

	if d.allowed {
		next.ServeHTTP(w, r)

		return
	}

	retryAfter := strconv.Itoa(int(math.Ceil(d.retryAfter.Seconds())))
	w.Header().Set(HeaderRateLimitReset, retryAfter)
	w.Header().Set("Retry-After", retryAfter)

	ctx := request_context.FromRequest(r)
	ctx.StatusCode = http.StatusTooManyRequests
	ctx.RequestError = ErrRateLimited

	w.WriteHeader(http.StatusTooManyRequests)

	if err := routes.ErrorPage(w, r); err != nil {
		log.Err(err).Msg("Failed to render rate limit page")
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
