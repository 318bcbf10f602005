package tui

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/media"
	"github.com/vidra-player/vidra/session"
	"github.com/vidra-player/vidra/util"
)

// nowPlaying mirrors the session state from its notifications.
// The coordinator lives on the runner goroutine, this copy lives on the UI one.
type nowPlaying struct {
	fileID string

	paused   bool
	time     float64
	duration float64
	volume   int
	muted    bool
	loop     session.LoopState

	tracks    []media.Track
	selection media.Selection
	chapters  []media.Chapter
	chapter   int
}

func newNowPlaying() nowPlaying {
	return nowPlaying{selection: media.NewSelection()}
}

func (p *nowPlaying) active() bool {
	return p.fileID != ""
}

// stopped forgets the file. Loop mode and volume outlive it.
func (p *nowPlaying) stopped() {
	p.apply(session.FileChanged{})
}

func (p *nowPlaying) apply(n session.Notification) {
	switch n := n.(type) {
	case session.FileChanged:
		loop, volume, muted := p.loop, p.volume, p.muted
		*p = newNowPlaying()
		p.fileID = n.FileID
		p.loop, p.volume, p.muted = loop, volume, muted
	case session.PauseChanged:
		p.paused = n.Paused
	case session.TimeChanged:
		p.time = n.Seconds
	case session.DurationChanged:
		p.duration = n.Seconds
	case session.VolumeChanged:
		p.volume = n.Volume
	case session.MuteChanged:
		p.muted = n.Muted
	case session.LoopStateChanged:
		p.loop = n.State
	case session.TracksChanged:
		p.tracks = n.Tracks
		p.selection = n.Selection
	case session.SelectionChanged:
		p.selection.Set(n.Type, n.ID)
	case session.ChaptersChanged:
		p.chapters = n.Chapters
		p.chapter = n.Index
	case session.ChapterChanged:
		p.chapter = n.Index
	}
}

func (p *nowPlaying) progress() float64 {
	if p.duration <= 0 {
		return 0
	}
	return lo.Clamp(p.time/p.duration, 0, 1)
}

func (p *nowPlaying) clock() string {
	if p.duration <= 0 {
		return util.FormatTime(p.time)
	}
	return fmt.Sprintf("%s / %s", util.FormatTime(p.time), util.FormatTime(p.duration))
}

// status renders the pause, volume and loop indicators.
func (p *nowPlaying) status() string {
	parts := make([]string, 0, 3)

	if p.paused {
		parts = append(parts, icon.Get(icon.Pause)+" paused")
	} else {
		parts = append(parts, icon.Get(icon.Play)+" playing")
	}

	if p.muted {
		parts = append(parts, icon.Get(icon.Muted)+" muted")
	} else {
		parts = append(parts, fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), p.volume))
	}

	switch p.loop {
	case session.RepeatOne:
		parts = append(parts, icon.Get(icon.LoopOne)+" repeat one")
	case session.RepeatAll:
		parts = append(parts, icon.Get(icon.LoopAll)+" repeat all")
	default:
		parts = append(parts, "no loop")
	}

	return strings.Join(parts, "  ")
}

// track describes the selected track of a type, "off" when disabled.
func (p *nowPlaying) track(t media.TrackType) string {
	id := p.selection.Get(t)
	if id == media.None {
		return "off"
	}

	found, ok := lo.Find(p.tracks, func(track media.Track) bool {
		return track.Type == t && track.ID == id
	})
	if !ok {
		return "#" + id
	}
	return found.Label()
}

func (p *nowPlaying) tracksLine() string {
	return fmt.Sprintf("%s %s   %s %s   %s %s",
		icon.Get(icon.Video), p.track(media.Video),
		icon.Get(icon.Audio), p.track(media.Audio),
		icon.Get(icon.Subtitle), p.track(media.Subtitle),
	)
}

// chapterLine is empty for files without chapters.
func (p *nowPlaying) chapterLine() string {
	if len(p.chapters) == 0 || p.chapter >= len(p.chapters) {
		return ""
	}
	return fmt.Sprintf("%s %s (%d/%d)", icon.Get(icon.Chapter), p.chapters[p.chapter].Title, p.chapter+1, len(p.chapters))
}
