// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package assets provides access to the application's embedded static assets.
*/
package assets

import (
	"embed"
	"io/fs"
)

//go:embed web_modules
var FS embed.FS

// WebModules returns the JavaScript modules served under the reactive mount.
func WebModules() fs.FS {
	sub, err := fs.Sub(FS, "web_modules")
	if err != nil {
		// web_modules is embedded above, so this can't happen
		panic(err)
	}

	return sub
}
