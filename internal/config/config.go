// Package config resolves build settings from, in increasing precedence,
// defaults, an optional config file, JRTBUILD_* environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/maskedsyntax/jrtbuild/internal/paths"
)

const (
	envPrefix      = "JRTBUILD"
	configFileName = "config"
)

// Keys shared with the command-line flags.
const (
	KeyPlatformTag     = "platform_tag"
	KeyLogLevel        = "log_level"
	KeyCacheDir        = "cache_dir"
	KeyCacheTTL        = "cache_ttl"
	KeyNoCache         = "no_cache"
	KeyCheckModules    = "check_modules"
	KeyDownloadRetries = "download_retries"
)

type Config struct {
	// PlatformTag overrides the host tag in archive names when set.
	PlatformTag     string
	LogLevel        string
	CacheDir        string
	CacheTTL        time.Duration
	NoCache         bool
	CheckModules    bool
	DownloadRetries int
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyPlatformTag, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCacheTTL, 24*time.Hour)
	v.SetDefault(KeyNoCache, false)
	v.SetDefault(KeyCheckModules, false)
	v.SetDefault(KeyDownloadRetries, 3)
	if dir, err := paths.CacheDir(); err == nil {
		v.SetDefault(KeyCacheDir, dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configFile, or config.{yaml,toml,json} from the user config
// directory when configFile is empty. Only an explicit file is required to
// exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		if dir, err := paths.ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		PlatformTag:     v.GetString(KeyPlatformTag),
		LogLevel:        v.GetString(KeyLogLevel),
		CacheDir:        v.GetString(KeyCacheDir),
		CacheTTL:        v.GetDuration(KeyCacheTTL),
		NoCache:         v.GetBool(KeyNoCache),
		CheckModules:    v.GetBool(KeyCheckModules),
		DownloadRetries: v.GetInt(KeyDownloadRetries),
	}

	if cfg.DownloadRetries < 0 {
		return nil, fmt.Errorf("invalid %s: %d", KeyDownloadRetries, cfg.DownloadRetries)
	}
	if cfg.CacheDir == "" {
		cfg.NoCache = true
	}

	return cfg, nil
}
