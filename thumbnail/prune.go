package thumbnail

import (
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/log"
)

// Prune removes cached thumbnails under dir not modified within ttl and returns how many were removed.
// A non-positive ttl keeps everything.
func Prune(dir string, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	fs := filesystem.API()
	cutoff := time.Now().Add(-ttl)
	removed := 0

	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := fs.Remove(path); err != nil {
				log.Warnf("prune %s: %v", path, err)
				return nil
			}
			removed++
		}
		return nil
	})

	if removed > 0 {
		log.Infof("pruned %d cached thumbnails", removed)
	}
	return removed, err
}
