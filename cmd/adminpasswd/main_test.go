// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := hashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	_, err = hashPassword("short", bcrypt.MinCost)
	assert.ErrorIs(t, err, errPasswordTooShort)
}

func TestReadLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"hunter22\n", "hunter22"},
		{"hunter22\r\n", "hunter22"},
		{"no newline", "no newline"},
		{"first\nsecond\n", "first"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
