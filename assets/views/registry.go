// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"context"
	"slices"
	"strings"

	"github.com/a-h/templ"

	"codeberg.org/dapp32/dapp32/server/request_context"
)

// Names of the templates served by the route table.
const (
	ViewContractTemplate = "dapp32/view_contract.html"
	MetamaskTestTemplate = "dapp32/metamask_test.html"
)

// WalletComponent is the component embedded in the contract page.
const WalletComponent = "dapp32.components.connect_wallet"

// Template builds a page for the request carried by ctx.
type Template func(ctx context.Context) templ.Component

var templates = map[string]Template{
	ViewContractTemplate: viewContractTemplate,
	MetamaskTestTemplate: func(context.Context) templ.Component { return MetamaskTest() },
}

// Lookup returns the template registered under name.
func Lookup(name string) (Template, bool) {
	t, ok := templates[name]

	return t, ok
}

// Names returns the registered template names, sorted.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func viewContractTemplate(ctx context.Context) templ.Component {
	rc := request_context.FromContext(ctx)

	data := ViewContractData{
		Network: rc.Capture("network"),
		Address: rc.Capture("address"),
	}

	// the wallet frame is only offered when the reactive mount is routed
	if rc.Reverse != nil {
		if prefix, err := rc.Reverse("reactpy", nil); err == nil {
			data.WalletFrame = strings.TrimSuffix(prefix, "/") + "/iframe/" + WalletComponent + "/"
		}
	}

	return ViewContract(data)
}
