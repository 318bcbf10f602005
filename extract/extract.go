// Package extract resolves network pages into directly playable streams using yt-dlp.
package extract

import (
	"context"
	"errors"

	"github.com/vidra-player/vidra/media"
)

// ErrNoStreams is returned when a page has no playable video stream.
var ErrNoStreams = errors.New("no streams found")

// Extractor resolves a URL into stream and metadata information.
type Extractor interface {
	// Extract resolves every format of url.
	Extract(ctx context.Context, url string) (*Info, error)

	// ExtractFlat fetches metadata only, without resolving playlist entries.
	ExtractFlat(ctx context.Context, url string) (*Info, error)
}

// Info is the extraction result for one page.
type Info struct {
	Title     string         `json:"title" jsonschema:"description=Page title or the URL when untitled"`
	URL       string         `json:"url" jsonschema:"description=Page URL the info was extracted from"`
	Duration  float64        `json:"duration,omitempty" jsonschema:"description=Length in seconds"`
	Width     int            `json:"width,omitempty"`
	Height    int            `json:"height,omitempty"`
	Thumbnail string         `json:"thumbnail,omitempty" jsonschema:"description=Best thumbnail URL"`
	Video     []media.Stream `json:"video_streams" jsonschema:"description=Video streams by descending bandwidth"`
	Audio     []media.Stream `json:"audio_streams" jsonschema:"description=Audio only streams"`
}

// Request turns the info into a playback request.
// The best video stream is played, the other streams are offered as extra tracks.
func (i *Info) Request() (media.Request, error) {
	if len(i.Video) == 0 {
		return media.Request{}, ErrNoStreams
	}

	return media.Request{
		Target: i.Video[0].URL,
		FileID: i.URL,
		Video:  append([]media.Stream(nil), i.Video[1:]...),
		Audio:  append([]media.Stream(nil), i.Audio...),
	}, nil
}
