// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package idgen makes short, roughly sortable identifiers for requests and cache IDs.
*/
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const entropyBytes = 3

// Make makes a short ID with a 6 digit timestamp and 3 bytes of entropy.
func Make() string {
	return MakeAt(time.Now())
}

// MakeAt is like Make, with the timestamp taken from t.
func MakeAt(t time.Time) string {
	var entropy [entropyBytes]byte

	_, _ = rand.Read(entropy[:])

	return maketime(t) + base64.RawURLEncoding.EncodeToString(entropy[:])
}

// Nonce returns a random value suitable for a Content-Security-Policy nonce.
func Nonce() string {
	var b [16]byte

	_, _ = rand.Read(b[:])

	return base64.RawStdEncoding.EncodeToString(b[:])
}

func maketime(t time.Time) string {
	return t.Format("150405")
}
