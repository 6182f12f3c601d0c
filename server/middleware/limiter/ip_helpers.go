// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// IPv4 and IPv6 address lengths as measured in bits.
const (
	ipv4BitLength = 32
	ipv6BitLength = 128
)

// Prefix lengths grouping clients into one limiter.
const (
	ipv4Prefix = 32
	ipv6Prefix = 64
)

// getClientIP extracts the client's IP address from an HTTP request with proxy awareness.
//
// Proxy headers (X-Forwarded-For, X-Real-IP) are only trusted when the connection
// comes from trusted sources (private/loopback networks), and only when their
// value parses as an IP address.
func getClientIP(r *http.Request) string {
	// Extract IP from RemoteAddr by removing the port component.
	remoteIP := r.RemoteAddr
	if ip, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = ip
	}

	// Only trust proxy headers if request comes from a trusted network.
	fromTrustedSource := false
	if ip := net.ParseIP(remoteIP); ip != nil {
		fromTrustedSource = ip.IsPrivate() || ip.IsLoopback()
	}

	if fromTrustedSource {
		// X-Real-IP takes precedence as it's typically the originating client IP
		// when set by a trusted proxy.
		if realIP := proxyHeaderIP(r, "X-Real-IP", strings.TrimSpace(r.Header.Get("X-Real-IP"))); realIP != "" {
			return realIP
		}

		// If X-Real-IP isn't usable, use the last IP in X-Forwarded-For.
		// This represents the client's IP in a chain of proxies.
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			parts := strings.Split(xff, ",")

			if forwarded := proxyHeaderIP(r, "X-Forwarded-For", strings.TrimSpace(parts[len(parts)-1])); forwarded != "" {
				return forwarded
			}
		}
	}

	// Fallback to the direct connection IP when proxy headers aren't usable
	// or the source isn't trusted.
	if remoteIP != "" {
		return remoteIP
	}

	log.Error().
		Msg("Could not determine client IP")

	return ""
}

// proxyHeaderIP returns value if it is an IP address, or "" otherwise.
func proxyHeaderIP(r *http.Request, header, value string) string {
	if value == "" {
		return ""
	}

	if net.ParseIP(value) == nil {
		log.Warn().
			Str("header", header).
			Str("value", value).
			Str("remote_addr", r.RemoteAddr).
			Msg("Ignoring malformed proxy header")

		return ""
	}

	return value
}

func getNetwork(rawIP net.IP, ipv4Prefix, ipv6Prefix int) *net.IPNet {
	// Create mask based on IP version and configured prefix.
	var mask net.IPMask
	if rawIP.To4() != nil {
		mask = net.CIDRMask(ipv4Prefix, ipv4BitLength) // IPv4.
	} else {
		mask = net.CIDRMask(ipv6Prefix, ipv6BitLength) // IPv6.
	}

	// Create network with the IP and determined mask.
	return &net.IPNet{
		IP:   rawIP.Mask(mask),
		Mask: mask,
	}
}

// unknownNetwork keys the shared bucket of clients without a usable address.
const unknownNetwork = "unknown"

// clientNetwork returns the limiter key for r.
//
// Requests without a parseable address share the unknownNetwork bucket.
func clientNetwork(r *http.Request) string {
	ip := net.ParseIP(getClientIP(r))
	if ip == nil {
		return unknownNetwork
	}

	return getNetwork(ip, ipv4Prefix, ipv6Prefix).String()
}
