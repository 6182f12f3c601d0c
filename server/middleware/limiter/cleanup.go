// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	cleanupMu     sync.Mutex
	lastCleanupAt time.Time
)

// DoCleanup starts a background sweep of expired limiters at most once per CleanupInterval.
func DoCleanup() {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()

	now := timeNow()
	if lastCleanupAt.IsZero() {
		lastCleanupAt = now

		return
	}

	if now.Sub(lastCleanupAt) < CleanupInterval {
		return
	}

	lastCleanupAt = now

	go func() {
		cleanupExpiredLimiters()

		log.Debug().Time("start", now).Dur("dur", time.Since(now)).Msg("limiter cleanup")
	}()
}
