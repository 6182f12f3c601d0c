// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package urlconf implements ordered URL dispatch tables.

A [Table] is an immutable list of [Route] values built once at startup.
Lookups try each route in declaration order and the first structural match
wins, so tables are safe for concurrent use without locking.

Routes are written as path strings with typed captures:

	v/<str:network>/<str:address>
	web_module/<path:file>
	users/<int:id>/

A capture without a converter, such as <name>, is a str capture. Endpoint
routes (see [Path]) must consume the whole request path. Mount routes (see
[Include]) match a leading part of it and hand the remainder to a
sub-application.
*/
package urlconf
