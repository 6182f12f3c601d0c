// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package urlconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		route   string
		wantErr error
	}{
		{"v/<hex:address>", ErrUnknownConverter},
		{"v/<str:1bad>", ErrInvalidName},
		{"v/<a>/<int:a>", ErrDuplicateCapture},
		{"v/<str:a/b", ErrMalformedCapture},
		{"v/a>/b", ErrMalformedCapture},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			t.Parallel()

			_, err := Compile(tt.route, true)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPatternMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		route         string
		endpoint      bool
		path          string
		wantOK        bool
		wantCaptures  map[string]string
		wantRemainder string
	}{
		{
			name:         "str captures any segment",
			route:        "v/<str:network>/<str:address>",
			endpoint:     true,
			path:         "v/ethereum/not-an-address",
			wantOK:       true,
			wantCaptures: map[string]string{"network": "ethereum", "address": "not-an-address"},
		},
		{
			name:     "str does not cross slashes",
			route:    "v/<str:network>/<str:address>",
			endpoint: true,
			path:     "v/ethereum/0xabc/extra",
		},
		{
			name:     "str rejects an empty segment",
			route:    "v/<str:network>/<str:address>",
			endpoint: true,
			path:     "v/ethereum/",
		},
		{
			name:         "default converter is str",
			route:        "v/<network>",
			endpoint:     true,
			path:         "v/goerli",
			wantOK:       true,
			wantCaptures: map[string]string{"network": "goerli"},
		},
		{
			name:     "address converter enforces hex",
			route:    "v/<address:address>",
			endpoint: true,
			path:     "v/0x123",
		},
		{
			name:         "address converter accepts 40 hex digits",
			route:        "v/<address:address>",
			endpoint:     true,
			path:         "v/0x52908400098527886E0F7030069857D2E4169EE7",
			wantOK:       true,
			wantCaptures: map[string]string{"address": "0x52908400098527886E0F7030069857D2E4169EE7"},
		},
		{
			name:         "path converter spans slashes",
			route:        "web_module/<path:file>",
			endpoint:     true,
			path:         "web_module/dapp32/wallet.js",
			wantOK:       true,
			wantCaptures: map[string]string{"file": "dapp32/wallet.js"},
		},
		{
			name:          "prefix reports remainder",
			route:         "reactpy/",
			path:          "reactpy/some/component/",
			wantOK:        true,
			wantCaptures:  map[string]string{},
			wantRemainder: "some/component/",
		},
		{
			name:         "empty endpoint matches only the empty path",
			route:        "",
			endpoint:     true,
			path:         "",
			wantOK:       true,
			wantCaptures: map[string]string{},
		},
		{
			name:     "literals are not regular expressions",
			route:    "a.b/",
			endpoint: true,
			path:     "axb/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Compile(tt.route, tt.endpoint)
			require.NoError(t, err)

			captures, remainder, ok := p.Match(tt.path)
			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, tt.wantCaptures, captures)
				assert.Equal(t, tt.wantRemainder, remainder)
			}
		})
	}
}

func TestPatternNames(t *testing.T) {
	t.Parallel()

	p, err := Compile("v/<str:network>/<str:address>", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"network", "address"}, p.Names())
	assert.Equal(t, "v/<str:network>/<str:address>", p.String())
}
