// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reactive

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"

	"codeberg.org/dapp32/dapp32/assets/views"
	"codeberg.org/dapp32/dapp32/config"
	"codeberg.org/dapp32/dapp32/core/urlconf"
	"codeberg.org/dapp32/dapp32/server/assets"
	"codeberg.org/dapp32/dapp32/server/middleware"
	"codeberg.org/dapp32/dapp32/server/request_context"
)

// Route names within the mount.
const (
	WebModuleRoute = "web_module"
	IframeRoute    = "iframe"
)

// Table returns the routes of the reactive mount for reg.
func Table(reg *Registry) *urlconf.Table {
	return urlconf.MustTable(
		urlconf.Path("web_module/<path:file>", middleware.CatchError(webModule(assets.WebModules())), WebModuleRoute),
		urlconf.Path("iframe/<str:dotted_path>/", middleware.CatchError(iframe(reg)), IframeRoute),
	)
}

// webModule serves a module file from modules.
func webModule(modules fs.FS) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		file := r.PathValue("file")
		if !fs.ValidPath(file) {
			w.WriteHeader(http.StatusNotFound)

			return nil
		}

		if info, err := fs.Stat(modules, file); err != nil || info.IsDir() {
			w.WriteHeader(http.StatusNotFound)

			return nil
		}

		w.Header().Set("Cache-Control", "public, max-age=604800")
		// Using a strong ETag for files embedded via go:embed; they only
		// change with a new build, hence a new instance.
		w.Header().Set("ETag", `"`+config.Global.Instance.CacheID+`"`)

		http.ServeFileFS(w, r, modules, file)

		return nil
	}
}

// iframe renders the document hosting one registered component.
func iframe(reg *Registry) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		dottedPath := r.PathValue("dotted_path")

		component, ok := reg.Lookup(dottedPath)
		if !ok {
			w.WriteHeader(http.StatusNotFound)

			return nil
		}

		props := map[string]any{}
		if component.Props != nil {
			props = component.Props(r)
		}

		encodedProps, err := templ.JSONString(props)
		if err != nil {
			return fmt.Errorf("encode props for %s: %w", dottedPath, err)
		}

		rc := request_context.FromRequest(r)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		return views.ReactiveFrame(views.ReactiveFrameData{
			DottedPath: dottedPath,
			ModuleURL:  rc.Link(WebModuleRoute + "/" + component.Module),
			Props:      encodedProps,
		}).Render(templ.WithNonce(r.Context(), rc.Nonce), w)
	}
}
