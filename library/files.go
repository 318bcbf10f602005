package library

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/filesystem"
)

// IsVideo reports whether name has a known video extension.
func IsVideo(name string) bool {
	return lo.Contains(constant.VideoExtensions, strings.ToLower(filepath.Ext(name)))
}

// VideoFiles lists the video files directly inside dir, sorted by name.
func VideoFiles(dir string) ([]string, error) {
	entries, err := afero.ReadDir(filesystem.API(), dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && IsVideo(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
