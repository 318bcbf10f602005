package session

import (
	"github.com/samber/mo"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/media"
)

// Dispatch applies one engine event to the session. It must run on the goroutine owning the coordinator.
func (c *Coordinator) Dispatch(e engine.Event) {
	if c.eng == nil {
		return
	}

	switch e.Kind {
	case engine.PropertyChange:
		c.onProperty(e.Name, e.Data)
	case engine.StartFile:
		c.onStartFile(e.Entry)
	case engine.FileLoaded:
		c.onFileLoaded()
	case engine.PlaybackRestart:
		c.onRestart()
	case engine.EndFile:
		c.onEndFile(e.Reason, e.Entry)
	}
}

func (c *Coordinator) onProperty(name string, data any) {
	switch name {
	case engine.PropPause:
		if paused, ok := engine.Bool(data); ok {
			c.paused = paused
			c.opts.Notify(PauseChanged{Paused: paused})
		}
	case engine.PropTimePos:
		if pos, ok := engine.Float(data); ok {
			c.timePos = mo.Some(pos)
			c.opts.Notify(TimeChanged{Seconds: pos})
		} else {
			c.timePos = mo.None[float64]()
		}
	case engine.PropDuration:
		if d, ok := engine.Float(data); ok {
			c.duration = mo.Some(d)
			c.opts.Notify(DurationChanged{Seconds: d})
		} else {
			c.duration = mo.None[float64]()
		}
	case engine.PropVolume:
		if v, ok := engine.Int(data); ok {
			c.volume = v
			c.opts.Notify(VolumeChanged{Volume: v})
		}
	case engine.PropMute:
		if muted, ok := engine.Bool(data); ok {
			c.muted = muted
			c.opts.Notify(MuteChanged{Muted: muted})
		}
	case engine.PropTrackList:
		c.tracks = media.ParseTracks(data)
		c.opts.Notify(TracksChanged{Tracks: c.Tracks(), Selection: c.selection})
	case engine.PropAid:
		c.onSelection(media.Audio, data)
	case engine.PropSid:
		c.onSelection(media.Subtitle, data)
	case engine.PropVid:
		c.onSelection(media.Video, data)
	case engine.PropChapterList:
		c.chapters = media.ParseChapters(data)
		c.opts.Notify(ChaptersChanged{Chapters: c.Chapters(), Index: c.chapterIndex()})
	case engine.PropChapter:
		// kept raw, the list may not have arrived yet
		index, ok := engine.Int(data)
		if !ok {
			index = 0
		}
		c.chapter = index
		c.opts.Notify(ChapterChanged{Index: c.chapterIndex()})
	}
}

func (c *Coordinator) onSelection(t media.TrackType, data any) {
	id := media.TrackID(data)
	c.selection.Set(t, id)
	c.opts.Notify(SelectionChanged{Type: t, ID: id})
}

// owns reports whether entry may belong to the current load. An unknown id on either side matches.
func (c *Coordinator) owns(entry int64) bool {
	return entry == 0 || c.entry == 0 || entry == c.entry
}

func (c *Coordinator) onStartFile(entry int64) {
	if c.stage != stageLoading || !c.owns(entry) {
		log.Debugf("start of entry %d ignored by load %d", entry, c.generation)
		return
	}
	c.stage = stageStarted
}

// onFileLoaded adds the external tracks queued by Load. A failing track does not affect the others.
func (c *Coordinator) onFileLoaded() {
	if c.stage != stageStarted {
		log.Debugf("file loaded ignored by load %d", c.generation)
		return
	}
	c.stage = stageLoaded

	extras := c.extras
	c.extras = nil

	for _, extra := range extras {
		command := "audio-add"
		if extra.kind == media.Video {
			command = "video-add"
		}

		err := c.eng.Command(command, extra.stream.URL, "auto", extra.stream.String(), extra.stream.Language)
		if err != nil {
			log.Warnf("%s %s: %v", command, extra.stream, err)
		}
	}
}

// onRestart consumes the pending resume position on the first restart after the file loaded
// and unpauses on every restart. Restarts before the current file loaded belong to an earlier load.
func (c *Coordinator) onRestart() {
	if c.stage != stageLoaded {
		log.Debugf("playback restart ignored by load %d", c.generation)
		return
	}

	if pos, ok := c.pending.Get(); ok {
		c.pending = mo.None[float64]()
		if pos > 0 {
			c.best("resume seek", c.eng.Command("seek", pos, "absolute"))
		}
	}

	c.best("unpause", c.eng.Set(engine.PropPause, false))
}

// onEndFile reports a file that played to its end. Ends of other entries, or arriving
// before the current entry started, belong to an earlier load.
func (c *Coordinator) onEndFile(reason engine.Reason, entry int64) {
	if c.stage < stageStarted || !c.owns(entry) {
		log.Debugf("end of entry %d (%s) ignored by load %d", entry, reason, c.generation)
		return
	}

	if reason != engine.ReasonEOF {
		log.Debugf("end of file ignored: %s", reason)
		return
	}

	if c.loop == RepeatOne {
		return
	}
	c.stage = stageIdle

	c.opts.Notify(PlaybackFinished{LoopAll: c.loop == RepeatAll})
}
