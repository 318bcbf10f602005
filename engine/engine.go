// Package engine defines the boundary to the media playback backend.
// The primary implementation drives mpv through its JSON-IPC interface.
package engine

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotRunning is returned by every operation of an engine that never started or already terminated.
	ErrNotRunning = errors.New("engine is not running")

	// ErrPropertyUnavailable means the property exists but has no value yet, e.g. duration before a file is loaded.
	ErrPropertyUnavailable = errors.New("property unavailable")
)

// Property names understood by the engine.
const (
	PropPause       = "pause"
	PropVolume      = "volume"
	PropMute        = "mute"
	PropTimePos     = "time-pos"
	PropDuration    = "duration"
	PropTrackList   = "track-list"
	PropAid         = "aid"
	PropSid         = "sid"
	PropVid         = "vid"
	PropChapterList = "chapter-list"
	PropChapter     = "chapter"
	PropLoopFile    = "loop-file"
	PropWidth       = "width"
	PropHeight      = "height"
	PropFullscreen  = "fullscreen"

	// PropFirstEntry is the id of the first playlist entry, the only one after a replacing load.
	PropFirstEntry = "playlist/0/id"
)

// Handler receives engine notifications. It is called on a goroutine owned by the engine.
type Handler func(Event)

// Engine is the command and notification surface of a playback backend.
type Engine interface {
	// Play replaces whatever is loaded with target, a local path or a stream URL.
	// It returns the playlist entry id carried by the StartFile and EndFile events of target,
	// or 0 when the engine cannot tell.
	Play(target string) (int64, error)

	// Stop unloads the current file and leaves the engine idle.
	Stop() error

	// Terminate shuts the engine down and releases its resources.
	Terminate() error

	// Command issues a raw engine command, e.g. Command("seek", 10, "relative").
	Command(args ...any) error

	// Get reads the current value of a property.
	Get(name string) (any, error)

	// Set writes a property.
	Set(name string, value any) error

	// Observe asks the engine to report changes of the named properties to subscribers.
	Observe(names ...string) error

	// Subscribe registers a handler for property changes and lifecycle events.
	Subscribe(h Handler)
}

// WaitFor polls a property until it holds a value or ctx is done.
func WaitFor(ctx context.Context, e Engine, name string, every time.Duration) (any, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		v, err := e.Get(name)
		if err == nil && v != nil {
			return v, nil
		}
		if err != nil && !errors.Is(err, ErrPropertyUnavailable) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
