// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/dapp32/dapp32/core/session"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errInvalidRouteTable            = errors.New("invalid Routing.Table value")
	errSecretInvalid                = errors.New("basic.secret is not a valid paseto key")
	errAdminUsernameRequired        = errors.New("admin.username is required when admin.passwordHash is set")
	errAdminPasswordHashInvalid     = errors.New("admin.passwordHash is not a bcrypt hash")
	errAdminSessionTTLInvalid       = errors.New("admin.sessionTTL must be positive")
	errCacheSizeInvalid             = errors.New("cache.size must be positive when the cache is enabled")
	errLimiterRateInvalid           = errors.New("limiter.rate and limiter.burst must be positive when the limiter is enabled")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	switch cfg.Routing.Table {
	case FullTable, MinimalTable:
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidRouteTable, cfg.Routing.Table)
	}

	if err := cfg.validateAdmin(); err != nil {
		return err
	}

	if cfg.Cache.Enabled && cfg.Cache.Size <= 0 {
		return errCacheSizeInvalid
	}

	if cfg.Limiter.Enabled && (cfg.Limiter.Rate <= 0 || cfg.Limiter.Burst <= 0) {
		return errLimiterRateInvalid
	}

	return nil
}

func (cfg *ServerConfig) validateAdmin() error {
	if cfg.Admin.SessionTTL <= 0 {
		return errAdminSessionTTLInvalid
	}

	if cfg.Admin.PasswordHash != "" {
		if cfg.Admin.Username == "" {
			return errAdminUsernameRequired
		}

		if _, err := bcrypt.Cost([]byte(cfg.Admin.PasswordHash)); err != nil {
			return fmt.Errorf("%w: %w", errAdminPasswordHashInvalid, err)
		}
	}

	if cfg.Basic.Secret == "" {
		SessionSigner.GenerateKey()

		if cfg.AdminEnabled() {
			log.Warn().Msg("No basic.secret configured, admin sessions will not survive a restart")
		}

		return nil
	}

	if err := SessionSigner.LoadSecretKeyFromHex(cfg.Basic.Secret); err != nil {
		key := session.NewSecretKeyHex()
		log.Error().Err(err).Msgf("Generated secret key (put this in config.yaml)\nbasic:\n  secret: \"%s\"", key)

		return errSecretInvalid
	}

	// remove key. no longer needed.
	cfg.Basic.Secret = ""

	return nil
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8000"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	mode, err := parseFileMode(cfg.Basic.RawUnixSocketPermissions)
	if err != nil {
		return err
	}

	cfg.Basic.UnixSocketPermissions = mode

	if cfg.Basic.UnixSocketUser != "" {
		lookup := user.Lookup
		if digitsRegexp.MatchString(cfg.Basic.UnixSocketUser) {
			lookup = user.LookupId
		}

		if _, err := lookup(cfg.Basic.UnixSocketUser); err != nil {
			return errUnixSocketUserDoesNotExist
		}
	}

	if cfg.Basic.UnixSocketGroup != "" {
		lookup := user.LookupGroup
		if digitsRegexp.MatchString(cfg.Basic.UnixSocketGroup) {
			lookup = user.LookupGroupId
		}

		if _, err := lookup(cfg.Basic.UnixSocketGroup); err != nil {
			return errUnixSocketGroupDoesNotExist
		}
	}

	return nil
}

// parseFileMode accepts octal ("660", "0660") or symbolic ("rw-rw----") modes.
func parseFileMode(raw string) (os.FileMode, error) {
	switch {
	case raw == "":
		return 0o666, nil
	case fileModeOctalRegexp.MatchString(raw):
		rawModeUint64, _ := strconv.ParseUint(raw, 8, 32)

		return os.FileMode(rawModeUint64), nil
	case fileModeStringRegexp.MatchString(raw):
		mode := os.FileMode(0)

		for i, c := range raw {
			// If permission bit is set
			if c != '-' {
				// Set i-th bit from the end
				const bitsInByte = 8

				mode |= 1 << (bitsInByte - i)
			}
		}

		return mode, nil
	default:
		return 0, errUnixSocketInvalidPermissions
	}
}
