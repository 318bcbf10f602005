package session

import (
	"github.com/vidra-player/vidra/media"
)

// View is a point-in-time copy of the session state for rendering.
type View struct {
	FileID    string
	Loop      LoopState
	Paused    bool
	Time      float64
	Duration  float64
	Volume    int
	Muted     bool
	Tracks    []media.Track
	Selection media.Selection
	Chapters  []media.Chapter
	Chapter   int
	Resume    float64
	Failed    bool
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() View {
	return View{
		FileID:    c.fileID,
		Loop:      c.loop,
		Paused:    c.paused,
		Time:      c.timePos.OrEmpty(),
		Duration:  c.duration.OrEmpty(),
		Volume:    c.volume,
		Muted:     c.muted,
		Tracks:    c.Tracks(),
		Selection: c.selection,
		Chapters:  c.Chapters(),
		Chapter:   c.chapterIndex(),
		Resume:    c.pending.OrEmpty(),
		Failed:    c.failed,
	}
}

func (c *Coordinator) FileID() string {
	return c.fileID
}

func (c *Coordinator) Loop() LoopState {
	return c.loop
}

// Pending is the resume position waiting for the next playback restart.
func (c *Coordinator) Pending() (float64, bool) {
	return c.pending.Get()
}

func (c *Coordinator) Chapter() int {
	return c.chapterIndex()
}

// Tracks returns a copy of the track list.
func (c *Coordinator) Tracks() []media.Track {
	return append([]media.Track(nil), c.tracks...)
}

// Chapters returns a copy of the chapter list.
func (c *Coordinator) Chapters() []media.Chapter {
	return append([]media.Chapter(nil), c.chapters...)
}
