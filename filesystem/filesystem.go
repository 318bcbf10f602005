// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
//
// It utilizes the afero library to allow seamless switching between OS-level and in-memory filesystem backends.
package filesystem

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance for filesystem interaction.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs swaps in a volatile in-memory backend for unit tests.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// IsOs reports whether the active backend touches the real disk.
// External processes (mpv, yt-dlp) can only write to paths on the real disk.
func IsOs() bool {
	_, ok := backend.Fs.(*afero.OsFs)
	return ok
}

// WriteAtomic writes data to a temporary sibling of path and renames it into place.
func WriteAtomic(path string, data []byte) error {
	fs := API()
	if err := fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := fs.WriteFile(tmp, data, 0o644); err != nil {
		_ = fs.Remove(tmp)
		return err
	}

	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	return nil
}
