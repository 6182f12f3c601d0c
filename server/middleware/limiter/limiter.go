// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	LimiterExpiryDuration = time.Hour       // How long to keep limiters in memory before cleanup.
	CleanupInterval       = 5 * time.Minute // Interval between limiter cleanup runs.
)

var (
	limiters sync.Map   // In-memory storage for rate limiters.
	timeNow  = time.Now // Wrapper for time.Now, which allows us to mock it in tests.
)

// limiterWrapper holds a rate limiter and additional metadata.
//
// Limiters are associated with an IP network and persist in the limiters sync.Map.
type limiterWrapper struct {
	limiter    *rate.Limiter
	network    string     // Associated network identifier
	lastAccess time.Time  // Last time limiter was accessed
	mu         sync.Mutex // mutex for operations on this limiter
}

// decision is the outcome of checkRateLimit.
type decision struct {
	allowed    bool
	limit      int
	remaining  int
	retryAfter time.Duration
}

// checkRateLimit attempts to consume 1 token from the limiterWrapper.
func checkRateLimit(limiter *limiterWrapper) decision {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := timeNow()
	limiter.lastAccess = now

	d := decision{limit: limiter.limiter.Burst()}

	reservation := limiter.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return d
	}

	if delay := reservation.DelayFrom(now); delay > 0 {
		// Give the token back; this request is rejected.
		reservation.CancelAt(now)

		log.Warn().
			Str("network", limiter.network).
			Msg("Rate limit exceeded")

		d.retryAfter = delay

		return d
	}

	d.allowed = true
	d.remaining = max(0, int(math.Floor(limiter.limiter.TokensAt(now))))

	return d
}

// getOrCreateLimiter returns the limiterWrapper for the given network,
// creating one with the given rate and burst if none exists.
func getOrCreateLimiter(networkStr string, rateLim float64, burstLim int) *limiterWrapper {
	if limWrapper, found := loadLimiterFromMemory(networkStr); found {
		return limWrapper
	}

	limWrapper, _ := limiters.LoadOrStore(networkStr, newLimiterWrapper(rateLim, burstLim, networkStr))

	//nolint:forcetypeassert // only *limiterWrapper values are stored
	return limWrapper.(*limiterWrapper)
}

// loadLimiterFromMemory tries to load from memory a limiterWrapper
// for a given network.
//
// Returns the limiter wrapper if found and true, or nil and false if no data was found.
func loadLimiterFromMemory(network string) (*limiterWrapper, bool) {
	if value, ok := limiters.Load(network); ok {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok {
			return nil, false
		}

		limWrapper.mu.Lock()

		limWrapper.lastAccess = timeNow()
		limWrapper.mu.Unlock()

		return limWrapper, true
	}

	return nil, false
}

// newLimiterWrapper creates a new limiterWrapper with the given parameters.
func newLimiterWrapper(rateLim float64, burstLim int, network string) *limiterWrapper {
	limiter := rate.NewLimiter(rate.Limit(rateLim), burstLim)
	// start full at the mocked clock, not the wall clock
	limiter.SetBurstAt(timeNow(), burstLim)

	return &limiterWrapper{
		limiter:    limiter,
		network:    network,
		lastAccess: timeNow(),
	}
}

// cleanupExpiredLimiters removes limiters that haven't been accessed for the expiry duration.
func cleanupExpiredLimiters() {
	now := timeNow()

	var (
		expiredCount int
		keysToDelete []any
	)

	// Collect keys to delete in a slice to avoid deleting during Range()
	limiters.Range(func(key, value any) bool {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok {
			log.Warn().Any("key", key).
				Msg("Found invalid limiter type in map")

			keysToDelete = append(keysToDelete, key)

			return true
		}

		limWrapper.mu.Lock()

		lastAccess := limWrapper.lastAccess
		limWrapper.mu.Unlock()

		if now.Sub(lastAccess) > LimiterExpiryDuration {
			keysToDelete = append(keysToDelete, key)
		}

		return true
	})

	// Delete expired or invalid limiters
	for _, key := range keysToDelete {
		limiters.Delete(key)

		expiredCount++
	}

	if expiredCount > 0 {
		log.Info().Int("count", expiredCount).
			Msg("Cleaned up expired limiters")
	}
}

// Reset drops every limiter.
func Reset() {
	limiters.Range(func(key, _ any) bool {
		limiters.Delete(key)

		return true
	})
}
