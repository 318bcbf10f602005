// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/filesystem"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "VIDRA_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path resolution can be explicitly specified via the VIDRA_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Thumbnails resolves the on-disk cache of library row thumbnails.
func Thumbnails() string {
	return ensureDir(filepath.Join(Cache(), "thumbnails"))
}

// Positions resolves the file holding saved playback positions keyed by file id.
func Positions() string {
	return filepath.Join(Config(), "positions.json")
}

// State resolves the file holding small pieces of UI state such as the last opened directory.
func State() string {
	return filepath.Join(Config(), "state.json")
}

// Temp resolves a volatile directory for IPC sockets and other transient artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}
