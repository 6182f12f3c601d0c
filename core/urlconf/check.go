// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package urlconf

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal problem found by Check.
type Warning struct {
	ID      string
	Route   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: route %q: %s", w.ID, w.Route, w.Message)
}

// Check lints the table.
//
// Overlapping patterns are not detected: declaration order decides them.
func (t *Table) Check() []Warning {
	var warnings []Warning

	seenRoutes := make(map[string]int)
	seenNames := make(map[string]int)

	for i, r := range t.routes {
		if strings.HasPrefix(r.route, "/") {
			warnings = append(warnings, Warning{
				ID:      "urls.W002",
				Route:   r.route,
				Message: "route begins with a '/', it will never match a resolved path",
			})
		}

		if strings.Contains(r.route, "(?P<") || strings.HasPrefix(r.route, "^") || strings.HasSuffix(r.route, "$") {
			warnings = append(warnings, Warning{
				ID:      "urls.W001",
				Route:   r.route,
				Message: "route looks like a regular expression, it is matched literally",
			})
		}

		if j, ok := seenRoutes[r.route]; ok {
			warnings = append(warnings, Warning{
				ID:      "urls.W003",
				Route:   r.route,
				Message: fmt.Sprintf("route %d repeats route %d and is unreachable", i, j),
			})
		} else {
			seenRoutes[r.route] = i
		}

		if r.Name == "" {
			continue
		}

		if j, ok := seenNames[r.Name]; ok {
			warnings = append(warnings, Warning{
				ID:      "urls.W005",
				Route:   r.route,
				Message: fmt.Sprintf("name %q is already used by route %d", r.Name, j),
			})
		} else {
			seenNames[r.Name] = i
		}
	}

	return warnings
}
