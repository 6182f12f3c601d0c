// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package urlconf

import "regexp"

// Converter describes the accepted shape of a captured path segment.
//
// Regexp must not contain capturing groups.
type Converter struct {
	Name   string
	Regexp string

	full *regexp.Regexp
}

// Matches reports whether value is a complete match for the converter.
func (c Converter) Matches(value string) bool {
	return c.full.MatchString(value)
}

func newConverter(name, expr string) Converter {
	return Converter{
		Name:   name,
		Regexp: expr,
		full:   regexp.MustCompile("^(?:" + expr + ")$"),
	}
}

// DefaultConverter is used for captures written without a converter name.
const DefaultConverter = "str"

var converters = map[string]Converter{
	"str":  newConverter("str", `[^/]+`),
	"int":  newConverter("int", `[0-9]+`),
	"slug": newConverter("slug", `[-a-zA-Z0-9_]+`),
	"uuid": newConverter("uuid", `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
	"path": newConverter("path", `.+`),

	// An EVM account or contract address.
	"address": newConverter("address", `0x[a-fA-F0-9]{40}`),
}

// LookupConverter returns the converter registered under name.
func LookupConverter(name string) (Converter, bool) {
	c, ok := converters[name]

	return c, ok
}
