// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

// Redacted returns a copy of cfg that is safe to print.
func (cfg *ServerConfig) Redacted() ServerConfig {
	printable := *cfg
	printable.Log.Outputs = append([]string(nil), cfg.Log.Outputs...)

	if printable.Basic.Secret != "" {
		printable.Basic.Secret = redactedValue
	}

	if printable.Admin.PasswordHash != "" {
		printable.Admin.PasswordHash = redactedValue
	}

	return printable
}

// ToYAML renders cfg as YAML with human-readable durations.
func (cfg *ServerConfig) ToYAML() ([]byte, error) {
	return yaml.MarshalWithOptions(*cfg, GetDurationEncoderOption())
}

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("cacheid", cfg.Instance.CacheID).
		Str("table", string(cfg.Routing.Table)).
		Msg("Starting dapp32")

	printableConfig := cfg.Redacted()

	configYAML, err := printableConfig.ToYAML()
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}
