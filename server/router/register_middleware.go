// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/server/middleware"
	"codeberg.org/dapp32/dapp32/server/middleware/set_request_context"
)

func (router *Router) RegisterMiddleware() {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.Compress)

	if config.Global.Routing.AppendSlash {
		router.Use(middleware.NormalizeURL(router.Resolves)) // redirect to the slash-toggled path
	}

	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all pages need this
}
