// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package views holds the HTML pages rendered by dapp32.

Pages are templ components written in the .templ files of this directory;
the matching _templ.go files are generated from them and committed.

Named templates, the ones a route table refers to by file name such as
"dapp32/view_contract.html", are registered in registry.go and looked up
with Lookup.
*/
package views

//go:generate go tool templ generate
