// Package media models the tracks and chapters the engine reports for the loaded file.
package media

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/util"
)

// None is the track id meaning the track type is disabled.
const None = "no"

// TrackType is the kind of stream a track carries.
type TrackType int

const (
	Video TrackType = iota + 1
	Audio
	Subtitle
)

// ParseTrackType maps the engine's type string.
func ParseTrackType(s string) (TrackType, bool) {
	switch s {
	case "video":
		return Video, true
	case "audio":
		return Audio, true
	case "sub":
		return Subtitle, true
	default:
		return 0, false
	}
}

func (t TrackType) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Subtitle:
		return "sub"
	default:
		return "unknown"
	}
}

// Property is the engine property holding the selected id of this type.
func (t TrackType) Property() string {
	switch t {
	case Video:
		return engine.PropVid
	case Audio:
		return engine.PropAid
	case Subtitle:
		return engine.PropSid
	default:
		return ""
	}
}

// Track is one entry of the engine track list.
type Track struct {
	ID       string
	Type     TrackType
	Title    string
	Language string
	Codec    string
	Bitrate  float64

	Width, Height int

	Selected bool
	External bool
}

// Resolution renders the video dimensions.
func (t Track) Resolution() string {
	return util.FormatResolution(t.Width, t.Height)
}

// Label is the human readable name of the track.
func (t Track) Label() string {
	name := t.Title
	if name == "" {
		name = fmt.Sprintf("%s %s", util.Capitalize(t.Type.String()), t.ID)
	}
	if t.Language != "" {
		name = fmt.Sprintf("%s [%s]", name, t.Language)
	}
	return name
}

// Chapter is a named timestamp within the loaded file.
type Chapter struct {
	Title string
	Start float64
}

// Selection holds the current id per track type.
type Selection struct {
	Audio, Subtitle, Video string
}

// NewSelection returns a selection with every type disabled.
func NewSelection() Selection {
	return Selection{Audio: None, Subtitle: None, Video: None}
}

// Get returns the selected id for a type.
func (s Selection) Get(t TrackType) string {
	switch t {
	case Audio:
		return s.Audio
	case Subtitle:
		return s.Subtitle
	case Video:
		return s.Video
	default:
		return None
	}
}

// Set updates the id for a type and reports whether it changed.
func (s *Selection) Set(t TrackType, id string) bool {
	var field *string
	switch t {
	case Audio:
		field = &s.Audio
	case Subtitle:
		field = &s.Subtitle
	case Video:
		field = &s.Video
	default:
		return false
	}

	if *field == id {
		return false
	}
	*field = id
	return true
}

// TrackID normalizes a selection property value. Disabled or missing values become None.
func TrackID(v any) string {
	if b, ok := v.(bool); ok && !b {
		return None
	}
	s, ok := engine.String(v)
	if !ok || s == "" || s == "false" {
		return None
	}
	return s
}

// ParseTracks converts the engine track-list property.
// Entries with an unknown type are skipped.
func ParseTracks(v any) []Track {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	tracks := make([]Track, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		typeName, _ := m["type"].(string)
		t, ok := ParseTrackType(typeName)
		if !ok {
			continue
		}

		track := Track{
			ID:       TrackID(m["id"]),
			Type:     t,
			Title:    str(m["title"]),
			Language: str(m["lang"]),
			Codec:    str(m["codec"]),
		}
		track.Bitrate, _ = engine.Float(m["demux-bitrate"])
		track.Width, _ = engine.Int(m["demux-w"])
		track.Height, _ = engine.Int(m["demux-h"])
		track.Selected, _ = engine.Bool(m["selected"])
		track.External, _ = engine.Bool(m["external"])

		tracks = append(tracks, track)
	}
	return tracks
}

// ParseChapters converts the engine chapter-list property, ordered by start time.
func ParseChapters(v any) []Chapter {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	chapters := make([]Chapter, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		title := str(m["title"])
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		start, _ := engine.Float(m["time"])

		chapters = append(chapters, Chapter{Title: title, Start: util.Max(start, 0)})
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Start < chapters[j].Start
	})
	return chapters
}

// OfType filters tracks by type.
func OfType(tracks []Track, t TrackType) []Track {
	return lo.Filter(tracks, func(track Track, _ int) bool {
		return track.Type == t
	})
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
