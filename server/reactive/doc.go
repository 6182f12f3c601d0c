// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package reactive serves client-side components under the reactive mount.

A component is named by a dotted path such as "dapp32.components.hello_world"
and implemented by a JavaScript module exporting mount(root, props). The mount
answers two kinds of requests:

	web_module/<path:file>      the embedded module source
	iframe/<str:dotted_path>/   a document hosting one component
*/
package reactive
