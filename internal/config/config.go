// Package config provides ChronoLog's process-wide configuration:
// merged flag/env/config-file precedence via viper, distinct from the
// per-repository config table in internal/metastore (which travels
// with a single repository rather than the invoking process).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Should be
// called once at CLI startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	// 1. Walk up from CWD to find a repository-local config.yaml
	//    under .chronolog/, so commands work from subdirectories.
	cwd, err := os.Getwd()
	if err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".chronolog", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	// 2. User config directory (~/.config/chronolog/config.yaml)
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "chronolog", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// Environment variables take precedence over config file.
	// E.g. CHRONOLOG_METRICS_ADDR, CHRONOLOG_NO_DAEMON.
	v.SetEnvPrefix("CHRONOLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("json", false)
	v.SetDefault("no-daemon", false)
	v.SetDefault("color", "auto")

	// Watcher debounce/sweep windows (spec §4.7), overridable per
	// invocation even though internal/watcher's own defaults suffice
	// for most repositories.
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("watch.sweep-interval", "100ms")

	// Optional loopback Prometheus exporter address for the daemon
	// (spec §4.2/§4.8). Empty means no exporter is started.
	v.SetDefault("metrics-addr", "")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration retrieves a duration configuration value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a configuration value, used by CLI flags that should
// take precedence over the config file/environment.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// MetricsAddr returns the loopback address the daemon should serve
// /metrics on, or "" if no exporter should be started.
func MetricsAddr() string {
	return GetString("metrics-addr")
}
