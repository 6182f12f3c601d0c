// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/dapp32/dapp32/core/idgen"
	"codeberg.org/dapp32/dapp32/core/session"
)

// Global exposes the server configuration.
var Global ServerConfig

// SessionSigner signs admin session cookies. Its key is loaded by LoadConfig.
var SessionSigner session.Signer

// Possible values for TableKind.
const (
	FullTable    TableKind = "full"
	MinimalTable TableKind = "minimal"
)

// TableKind selects which route table the server mounts.
type TableKind string

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"DAPP32_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"DAPP32_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"DAPP32_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"DAPP32_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"DAPP32_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"DAPP32_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
		// raw bytes of v4.public secret key, hex encoded
		Secret string `env:"DAPP32_SECRET" yaml:"secret"`
	} `yaml:"basic"`

	Routing struct {
		Table TableKind `env:"DAPP32_ROUTE_TABLE,overwrite" yaml:"table"`
		// Restrict v/<network>/<address> to 0x-prefixed 40-hex-digit addresses.
		StrictAddress bool `env:"DAPP32_STRICT_ADDRESS,overwrite" yaml:"strictAddress"`
		// Redirect to the slash-toggled path when only that one resolves.
		AppendSlash bool `env:"DAPP32_APPEND_SLASH,overwrite" yaml:"appendSlash"`
	} `yaml:"routing"`

	Admin struct {
		Username     string        `env:"DAPP32_ADMIN_USERNAME,overwrite" yaml:"username"`
		PasswordHash string        `env:"DAPP32_ADMIN_PASSWORD_HASH" yaml:"passwordHash"`
		SessionTTL   time.Duration `env:"DAPP32_ADMIN_SESSION_TTL,overwrite" yaml:"sessionTTL"`
	} `yaml:"admin"`

	Cache struct {
		Enabled  bool `env:"DAPP32_CACHE,overwrite" yaml:"enabled"`
		Size     int  `env:"DAPP32_CACHE_SIZE,overwrite" yaml:"size"`
		Compress bool `env:"DAPP32_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"cache"`

	HTTPCache struct {
		MaxAge               time.Duration `env:"DAPP32_CACHE_CONTROL_MAX_AGE,overwrite" yaml:"cacheControlMaxAge"`
		StaleWhileRevalidate time.Duration `env:"DAPP32_CACHE_CONTROL_STALE_WHILE_REVALIDATE,overwrite" yaml:"cacheControlStaleWhileRevalidate"`
	} `yaml:"httpCache"`

	Instance struct {
		StartingTime string `yaml:"-"`
		CacheID      string `yaml:"-"`
	} `yaml:"-"`

	Development struct {
		InDevelopment bool `env:"DAPP32_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"DAPP32_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"DAPP32_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"DAPP32_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled bool    `env:"DAPP32_LIMITER,overwrite" yaml:"enabled"`
		Rate    float64 `env:"DAPP32_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst   int     `env:"DAPP32_LIMITER_BURST,overwrite" yaml:"burst"`
	} `yaml:"limiter"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Determine the config file path with the correct precedence:
	// 1. Command-line flag (-config)
	// 2. Environment variable (DAPP32_CONFIGFILE)
	// 3. Default path with fallback check
	if configFlagUserSet {
		configFilePath = parsedConfigFlagValue
	} else if envVar := os.Getenv("DAPP32_CONFIGFILE"); envVar != "" {
		configFilePath = envVar
	} else {
		configFilePath = parsedConfigFlagValue
		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			ymlPath := "./config.yml"
			if _, statErr := os.Stat(ymlPath); statErr == nil {
				configFilePath = ymlPath
			}
		}
	}

	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.CacheID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	// Heuristically check for containerized environment and warn if host is not a wildcard address.
	if isContainerized() && cfg.Basic.UnixSocket == "" && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a containerized environment but host is not a wildcard address (e.g., '0.0.0.0' or '::'). This may prevent the service from being accessible outside the container.")
	}

	return nil
}

// AdminEnabled reports whether the admin console accepts logins.
func (cfg *ServerConfig) AdminEnabled() bool {
	return cfg.Admin.PasswordHash != ""
}

var staticSkippedPathPrefixes = []string{"/reactpy/web_module/"}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	if cfg.Development.InDevelopment {
		return false
	}

	for _, prefix := range staticSkippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// isContainerized checks for common indicators of a containerized environment.
//
// This is a heuristic and may not be 100% accurate.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if _, err := os.Stat("/.containerenv"); err == nil {
		return true
	}

	// #nosec G304 -- We are checking for the existence and content of a well-known system file for heuristics.
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err == nil {
		content := string(cgroup)

		return strings.Contains(content, "docker") ||
			strings.Contains(content, "kubepods") ||
			strings.Contains(content, "containerd") ||
			strings.Contains(content, "lxc") ||
			strings.Contains(content, "crio") ||
			// systemd-nspawn containers
			strings.Contains(content, ".machine")
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
