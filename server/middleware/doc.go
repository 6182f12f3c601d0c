// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides HTTP request handling functionality for dapp32.

Route tables are defined in the router package; the functions here run around
every dispatched request (see router.RegisterMiddleware) or wrap individual
fallible handlers (CatchError).
*/
package middleware
