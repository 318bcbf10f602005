package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/media"
	"github.com/vidra-player/vidra/util"
	"golang.org/x/sync/singleflight"
)

// detachedTimeout bounds a shared extraction when no Timeout is configured.
const detachedTimeout = 2 * time.Minute

// YTDLP runs the yt-dlp executable.
// Concurrent calls for the same URL and mode share a single process. The process does not
// belong to any one caller: a cancelled caller stops waiting while the others keep their result.
type YTDLP struct {
	Binary  string
	Timeout time.Duration

	group singleflight.Group
}

// NewYTDLP creates an extractor using binary, "yt-dlp" when empty.
func NewYTDLP(binary string, timeout time.Duration) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{Binary: binary, Timeout: timeout}
}

func (y *YTDLP) Extract(ctx context.Context, url string) (*Info, error) {
	return y.do(ctx, url, false)
}

func (y *YTDLP) ExtractFlat(ctx context.Context, url string) (*Info, error) {
	return y.do(ctx, url, true)
}

func (y *YTDLP) do(ctx context.Context, url string, flat bool) (*Info, error) {
	key := "full:" + url
	if flat {
		key = "flat:" + url
	}

	results := y.group.DoChan(key, func() (any, error) {
		return y.run(context.WithoutCancel(ctx), url, flat)
	})

	var result singleflight.Result
	select {
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case result = <-results:
	}

	if result.Shared {
		log.Debugf("extraction of %s shared with a concurrent call", url)
	}
	if result.Err != nil {
		return nil, result.Err
	}

	// callers get their own copy of the slices
	info := *result.Val.(*Info)
	info.Video = append([]media.Stream(nil), info.Video...)
	info.Audio = append([]media.Stream(nil), info.Audio...)
	return &info, nil
}

// Args returns the command line used for url.
func (y *YTDLP) Args(url string, flat bool) []string {
	args := []string{"-J", "--no-warnings", "--no-playlist", "--skip-download"}
	if flat {
		args = append(args, "--flat-playlist")
	}
	return append(args, "--", url)
}

func (y *YTDLP) run(ctx context.Context, url string, flat bool) (*Info, error) {
	timeout := y.Timeout
	if timeout <= 0 {
		timeout = detachedTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Infof("extracting streams from %s", url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Binary, y.Args(url, flat)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", y.Binary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", y.Binary, err)
	}

	info, err := Parse(stdout.Bytes(), url)
	if err != nil {
		return nil, err
	}

	log.Infof("found %s and %s for %s",
		util.Quantify(len(info.Video), "video stream", "video streams"),
		util.Quantify(len(info.Audio), "audio stream", "audio streams"),
		url,
	)
	return info, nil
}

type rawFormat struct {
	URL        string  `json:"url"`
	FormatNote string  `json:"format_note"`
	Resolution string  `json:"resolution"`
	Ext        string  `json:"ext"`
	Language   string  `json:"language"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	TBR        float64 `json:"tbr"`
}

type rawThumbnail struct {
	URL string `json:"url"`
}

type rawInfo struct {
	Title      string         `json:"title"`
	WebpageURL string         `json:"webpage_url"`
	Duration   float64        `json:"duration"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Thumbnail  string         `json:"thumbnail"`
	Thumbnails []rawThumbnail `json:"thumbnails"`
	Formats    []rawFormat    `json:"formats"`

	// single-format results carry the stream on the top level
	URL    string `json:"url"`
	VCodec string `json:"vcodec"`
	ACodec string `json:"acodec"`
	Ext    string `json:"ext"`
}

// Parse decodes yt-dlp JSON output. Formats with a video codec become video streams,
// sorted by descending bandwidth, and audio only formats become audio streams.
func Parse(data []byte, url string) (*Info, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}

	info := &Info{
		Title:    lo.Ternary(raw.Title != "", raw.Title, url),
		URL:      url,
		Duration: raw.Duration,
		Width:    raw.Width,
		Height:   raw.Height,
	}

	info.Thumbnail = raw.Thumbnail
	if n := len(raw.Thumbnails); n > 0 && raw.Thumbnails[n-1].URL != "" {
		info.Thumbnail = raw.Thumbnails[n-1].URL
	}

	formats := raw.Formats
	if len(formats) == 0 && raw.URL != "" {
		formats = []rawFormat{{URL: raw.URL, VCodec: raw.VCodec, ACodec: raw.ACodec, Ext: raw.Ext}}
	}

	for _, f := range formats {
		if f.URL == "" {
			continue
		}

		switch {
		// direct links often declare no codecs at all and are assumed to be muxed
		case hasCodec(f.VCodec) || (f.VCodec == "" && f.ACodec == ""):
			info.Video = append(info.Video, media.Stream{
				URL:        f.URL,
				Name:       lo.Ternary(f.FormatNote != "", f.FormatNote, strings.TrimSpace(f.Resolution+" "+f.Ext)),
				Language:   f.Language,
				VideoCodec: f.VCodec,
				AudioCodec: f.ACodec,
				Bandwidth:  f.TBR,
			})
		case hasCodec(f.ACodec):
			name := lo.Ternary(f.FormatNote != "", f.FormatNote, f.Ext)
			info.Audio = append(info.Audio, media.Stream{
				URL:        f.URL,
				Name:       fmt.Sprintf("%s [%s]", name, lo.Ternary(f.Language != "", f.Language, "und")),
				Language:   f.Language,
				AudioCodec: f.ACodec,
				Bandwidth:  f.TBR,
			})
		}
	}

	sort.SliceStable(info.Video, func(i, j int) bool {
		return info.Video[i].Bandwidth > info.Video[j].Bandwidth
	})

	return info, nil
}

// hasCodec reports whether yt-dlp declared a real codec. Missing and "none" both mean absent.
func hasCodec(codec string) bool {
	return codec != "" && codec != "none"
}
