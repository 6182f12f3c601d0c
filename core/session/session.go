// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package session issues and verifies signed admin session tokens.

Tokens are PASETO v4.public tokens carrying the admin username as subject.
*/
package session

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// domain separation key. if you change it, past tokens will become invalid.
const implicit = "dapp32 admin session"

const (
	audience      = "dapp32-admin"
	claimUsername = "username"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNoKey        = errors.New("session signer has no key")
)

// NewSecretKeyHex generates a new v4.public secret key, hex encoded.
func NewSecretKeyHex() string {
	return paseto.NewV4AsymmetricSecretKey().ExportHex()
}

// Signer signs and verifies session tokens.
//
// The zero value is not usable; load a key first.
type Signer struct {
	secretKey paseto.V4AsymmetricSecretKey
	loaded    bool
}

// LoadSecretKeyFromHex loads the secret key used to sign tokens.
func (s *Signer) LoadSecretKeyFromHex(hex string) error {
	key, err := paseto.NewV4AsymmetricSecretKeyFromHex(hex)
	if err != nil {
		return fmt.Errorf("failed to load session key: %w", err)
	}

	s.secretKey = key
	s.loaded = true

	return nil
}

// GenerateKey loads a fresh random key. Tokens signed with it do not survive a restart.
func (s *Signer) GenerateKey() {
	s.secretKey = paseto.NewV4AsymmetricSecretKey()
	s.loaded = true
}

// Loaded reports whether a key has been loaded.
func (s *Signer) Loaded() bool {
	return s.loaded
}

// Sign returns a token for username valid for ttl.
func (s *Signer) Sign(username string, ttl time.Duration) (string, error) {
	if !s.loaded {
		return "", ErrNoKey
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))
	token.SetAudience(audience)
	token.SetSubject(username)
	token.SetString(claimUsername, username)

	return token.V4Sign(s.secretKey, []byte(implicit)), nil
}

// Verify checks a token and returns the username it was issued to.
func (s *Signer) Verify(signed string) (string, error) {
	if !s.loaded {
		return "", ErrNoKey
	}

	parser := paseto.MakeParser([]paseto.Rule{
		paseto.NotExpired(),
		paseto.ValidAt(time.Now()),
		paseto.ForAudience(audience),
	})

	token, err := parser.ParseV4Public(s.secretKey.Public(), signed, []byte(implicit))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	username, err := token.GetString(claimUsername)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return username, nil
}
