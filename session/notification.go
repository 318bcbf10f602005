package session

import (
	"github.com/vidra-player/vidra/media"
)

// Notification is an outward state change produced by the coordinator.
type Notification interface {
	notification()
}

// Notifier receives notifications on the runner goroutine.
type Notifier func(Notification)

type (
	PauseChanged struct{ Paused bool }

	TimeChanged struct{ Seconds float64 }

	DurationChanged struct{ Seconds float64 }

	// TracksChanged carries the full track list with the current id of every type.
	TracksChanged struct {
		Tracks    []media.Track
		Selection media.Selection
	}

	SelectionChanged struct {
		Type media.TrackType
		ID   string
	}

	VolumeChanged struct{ Volume int }

	MuteChanged struct{ Muted bool }

	// ChaptersChanged carries the current chapter too, which may have been reported before the list.
	ChaptersChanged struct {
		Chapters []media.Chapter
		Index    int
	}

	ChapterChanged struct{ Index int }

	LoopStateChanged struct{ State LoopState }

	// PlaybackFinished is emitted when a file played to its end and is not looping natively.
	// The receiver decides between advancing the library and returning to it.
	PlaybackFinished struct{ LoopAll bool }

	// FileChanged is emitted when a new file is handed to the engine.
	FileChanged struct{ FileID string }

	// EngineFailed is emitted once when the engine could not be started.
	EngineFailed struct{ Err error }

	// ControlsRequested asks the UI to reveal the playback controls.
	ControlsRequested struct{}
)

func (PauseChanged) notification()      {}
func (TimeChanged) notification()       {}
func (DurationChanged) notification()   {}
func (TracksChanged) notification()     {}
func (SelectionChanged) notification()  {}
func (VolumeChanged) notification()     {}
func (MuteChanged) notification()       {}
func (ChaptersChanged) notification()   {}
func (ChapterChanged) notification()    {}
func (LoopStateChanged) notification()  {}
func (PlaybackFinished) notification()  {}
func (FileChanged) notification()       {}
func (EngineFailed) notification()      {}
func (ControlsRequested) notification() {}
