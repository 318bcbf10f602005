// Package thumbnail resolves duration, resolution and a preview image for library rows in the background.
package thumbnail

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/vidra-player/vidra/util"
)

// Slot identifies the library row a job was dispatched for.
// It is captured at dispatch time and never updated.
type Slot struct {
	Index int
	Row   uint64
}

// Result is the outcome of one job.
type Result struct {
	Slot   Slot
	FileID string

	Duration      float64
	Width, Height int

	// Thumbnail is the cached image path, empty when only metadata is known.
	Thumbnail string

	Err error
}

// DurationText renders the duration for display.
func (r Result) DurationText() string {
	if r.Duration <= 0 {
		return "N/A"
	}
	return util.FormatTime(r.Duration)
}

// Resolution renders the dimensions for display.
func (r Result) Resolution() string {
	return util.FormatResolution(r.Width, r.Height)
}

// IsURL reports whether fileID is a network URL rather than a local path.
func IsURL(fileID string) bool {
	u, err := url.Parse(fileID)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}

// CachePath returns the cache file for a row: the alphanumeric characters of the base name and the row index.
// Names without any are replaced by a stable hash of fileID.
func CachePath(dir, fileID string, index int) string {
	base := filepath.Base(fileID)
	if IsURL(fileID) {
		if u, err := url.Parse(fileID); err == nil {
			base = path.Base(u.Path) + u.RawQuery
		}
	}

	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, base)

	if name == "" {
		name = uuid.NewSHA1(uuid.NameSpaceURL, []byte(fileID)).String()
	}

	return filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", name, index))
}
