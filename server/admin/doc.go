// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package admin is the administration console mounted under admin/.

A single administrator, configured with a bcrypt password hash, signs in with
a form. The session is a PASETO token in an HttpOnly cookie scoped to the
mount. Signed-in administrators can inspect the route tables and purge the
page cache.
*/
package admin
