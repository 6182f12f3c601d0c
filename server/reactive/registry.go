// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package reactive

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sync"

	"codeberg.org/dapp32/dapp32/server/utils"
)

var (
	ErrInvalidDottedPath = errors.New("invalid component path")
	ErrDuplicate         = errors.New("component already registered")
)

var dottedPathRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)

// Component is a client-side component.
type Component struct {
	// DottedPath names the component.
	DottedPath string
	// Module is the module file, relative to web_module/.
	Module string
	// Props builds the initial props from the frame request. May be nil.
	Props func(r *http.Request) map[string]any
}

// Registry maps dotted paths to components. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: map[string]Component{}}
}

// Register adds c to the registry.
func (reg *Registry) Register(c Component) error {
	if !dottedPathRegexp.MatchString(c.DottedPath) {
		return fmt.Errorf("%w: %q", ErrInvalidDottedPath, c.DottedPath)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.components[c.DottedPath]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, c.DottedPath)
	}

	reg.components[c.DottedPath] = c

	return nil
}

// Lookup returns the component registered under dottedPath.
func (reg *Registry) Lookup(dottedPath string) (Component, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	c, ok := reg.components[dottedPath]

	return c, ok
}

// Names returns the registered dotted paths, sorted.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.components))
	for name := range reg.components {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// DefaultRegistry returns a registry holding the built-in components.
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	for _, c := range []Component{
		{
			DottedPath: "dapp32.components.hello_world",
			Module:     "dapp32/hello_world.js",
			Props: func(r *http.Request) map[string]any {
				return map[string]any{"name": utils.GetQueryParam(r, "name", "world")}
			},
		},
		{
			DottedPath: "dapp32.components.connect_wallet",
			Module:     "dapp32/connect_wallet.js",
			Props: func(r *http.Request) map[string]any {
				return map[string]any{"network": utils.GetQueryParam(r, "network")}
			},
		},
	} {
		if err := reg.Register(c); err != nil {
			panic(err)
		}
	}

	return reg
}
