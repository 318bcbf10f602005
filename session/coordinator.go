// Package session coordinates the single "now playing" context: loading files,
// saving and resuming positions, loop modes, chapters and tracks.
//
// A Coordinator is not safe for concurrent use. Engine events arrive on a
// foreign goroutine and are marshaled through a Runner, which is the only
// goroutine that touches the Coordinator.
package session

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/media"
)

// Factory constructs and starts the engine on first use.
type Factory func() (engine.Engine, error)

// observed are the properties mirrored into the session view.
var observed = []string{
	engine.PropPause,
	engine.PropTimePos,
	engine.PropDuration,
	engine.PropVolume,
	engine.PropMute,
	engine.PropTrackList,
	engine.PropAid,
	engine.PropSid,
	engine.PropVid,
	engine.PropChapterList,
	engine.PropChapter,
}

// Options wire a Coordinator to its collaborators.
type Options struct {
	Factory   Factory
	Positions Positions
	Prompter  Prompter
	Notify    Notifier
	Policy    Policy
}

// Coordinator owns the engine handle and the session state.
type Coordinator struct {
	opts Options

	eng         engine.Engine
	initialized bool
	failed      bool

	// inbox receives engine events from the engine goroutine. Set by the Runner.
	inbox func(engine.Event)

	fileID     string
	loop       LoopState
	pending    mo.Option[float64]
	extras     []extraTrack
	generation uint64
	entry      int64
	stage      stage

	paused    bool
	timePos   mo.Option[float64]
	duration  mo.Option[float64]
	volume    int
	muted     bool
	tracks    []media.Track
	selection media.Selection
	chapters  []media.Chapter
	chapter   int
}

// stage is how far the current load has progressed in the engine.
// Lifecycle events are applied only when they move the current load forward.
type stage int

const (
	stageIdle stage = iota
	// stageLoading waits for the start of the loaded entry.
	stageLoading
	// stageStarted waits for the file to be loaded.
	stageStarted
	// stageLoaded accepts playback restarts.
	stageLoaded
)

type extraTrack struct {
	kind   media.TrackType
	stream media.Stream
}

// New creates a coordinator. The engine is not started until it is first needed.
func New(opts Options) *Coordinator {
	if opts.Notify == nil {
		opts.Notify = func(Notification) {}
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}

	return &Coordinator{
		opts:      opts,
		selection: media.NewSelection(),
		pending:   mo.None[float64](),
		timePos:   mo.None[float64](),
		duration:  mo.None[float64](),
	}
}

// engine returns the engine, starting it on first call.
// A failed start is latched: the Null engine is used from then on and EngineFailed is emitted once.
func (c *Coordinator) engine() engine.Engine {
	if c.initialized {
		return c.eng
	}
	c.initialized = true

	if c.opts.Factory == nil {
		return c.fail(errors.New("no engine configured"))
	}

	eng, err := c.opts.Factory()
	if err != nil {
		return c.fail(err)
	}

	eng.Subscribe(c.receive)
	if err := eng.Observe(observed...); err != nil {
		log.Errorf("observe engine properties: %v", err)
	}

	c.eng = eng
	return c.eng
}

func (c *Coordinator) fail(err error) engine.Engine {
	log.Errorf("engine init: %v", err)
	c.failed = true
	c.eng = engine.Null{}
	c.opts.Notify(EngineFailed{Err: err})
	return c.eng
}

func (c *Coordinator) receive(e engine.Event) {
	if c.inbox != nil {
		c.inbox(e)
	}
}

// Load makes req the current file.
// The previous file's position is saved and the resume policy is consulted before playback starts.
// External tracks of req are added once the engine reports the file as loaded.
//
// Every load starts a new generation. Lifecycle events of earlier loads that are still
// queued when Load returns are recognized by their playlist entry and by the stage they
// arrive in, and are dropped.
func (c *Coordinator) Load(req media.Request, announce bool) error {
	if req.Target == "" {
		return errors.New("load: empty target")
	}

	c.SavePosition()

	eng := c.engine()
	if c.fileID != "" {
		c.best("stop", eng.Stop())
	}

	fileID := req.ID()
	c.generation++
	c.stage = stageLoading
	c.entry = 0
	c.pending = c.opts.Policy.Preflight(fileID, c.loop, c.opts.Positions, c.opts.Prompter)
	c.fileID = fileID
	c.resetView()

	c.extras = c.extras[:0]
	for _, s := range req.Video {
		c.extras = append(c.extras, extraTrack{kind: media.Video, stream: s})
	}
	for _, s := range req.Audio {
		c.extras = append(c.extras, extraTrack{kind: media.Audio, stream: s})
	}

	c.opts.Notify(FileChanged{FileID: fileID})

	entry, err := eng.Play(req.Target)
	if err != nil {
		c.stage = stageIdle
		if !errors.Is(err, engine.ErrNotRunning) {
			log.Errorf("play %s: %v", req.Target, err)
		}
		return fmt.Errorf("play: %w", err)
	}
	c.entry = entry
	log.Debugf("load %d: %s is playlist entry %d", c.generation, fileID, entry)

	if announce {
		c.opts.Notify(ControlsRequested{})
	}
	return nil
}

// StopAndSave saves the current position and stops playback.
func (c *Coordinator) StopAndSave() {
	c.SavePosition()

	if c.initialized && c.fileID != "" {
		c.best("stop", c.eng.Stop())
	}

	c.fileID = ""
	c.pending = mo.None[float64]()
	c.stage = stageIdle
	c.entry = 0
	c.extras = nil
	c.resetView()
}

// SavePosition persists the position of the current file according to the policy.
func (c *Coordinator) SavePosition() {
	if c.fileID == "" || !c.initialized || c.failed || c.opts.Positions == nil {
		return
	}

	pos, ok := c.position().Get()
	if !ok {
		return
	}

	value, ok := c.opts.Policy.SaveValue(pos, c.length()).Get()
	if !ok {
		return
	}

	if err := c.opts.Positions.SavePosition(c.fileID, value); err != nil {
		log.Errorf("save position of %s: %v", c.fileID, err)
	}
}

func (c *Coordinator) position() mo.Option[float64] {
	return c.read(engine.PropTimePos, c.timePos)
}

func (c *Coordinator) length() mo.Option[float64] {
	return c.read(engine.PropDuration, c.duration)
}

// read prefers the engine's current value over the last observed one.
func (c *Coordinator) read(name string, fallback mo.Option[float64]) mo.Option[float64] {
	v, err := c.eng.Get(name)
	if err != nil {
		return fallback
	}
	if f, ok := engine.Float(v); ok {
		return mo.Some(f)
	}
	return fallback
}

func (c *Coordinator) TogglePause() {
	c.best("toggle pause", c.engine().Command("cycle", engine.PropPause))
}

func (c *Coordinator) SeekRelative(delta float64) {
	c.best("seek", c.engine().Command("seek", delta, "relative"))
}

func (c *Coordinator) AddVolume(delta int) {
	c.best("add volume", c.engine().Command("add", engine.PropVolume, delta))
}

// SetVolume sets an absolute volume clamped to 0..100.
func (c *Coordinator) SetVolume(volume int) {
	volume = lo.Clamp(volume, 0, 100)
	c.best("set volume", c.engine().Set(engine.PropVolume, volume))
}

func (c *Coordinator) ToggleMute() {
	c.best("toggle mute", c.engine().Command("cycle", engine.PropMute))
}

func (c *Coordinator) ToggleFullscreen() {
	c.best("toggle fullscreen", c.engine().Command("cycle", engine.PropFullscreen))
}

// CycleTrack selects the next track of the type, wrapping through "no".
func (c *Coordinator) CycleTrack(t media.TrackType) {
	prop := t.Property()
	if prop == "" {
		log.Errorf("cycle track: unknown track type %d", t)
		return
	}
	c.best("cycle "+prop, c.engine().Command("cycle", prop))
}

// SelectTrack selects a track by id, media.None disables the type.
func (c *Coordinator) SelectTrack(t media.TrackType, id string) {
	prop := t.Property()
	if prop == "" {
		log.Errorf("select track: unknown track type %d", t)
		return
	}
	c.best("select "+prop, c.engine().Set(prop, id))
}

// NextChapter moves to the following chapter. At the last chapter nothing happens.
// The engine index is checked against the chapter list here since either may arrive first.
func (c *Coordinator) NextChapter() {
	next := max(c.chapter, -1) + 1
	if next >= len(c.chapters) {
		return
	}
	c.setChapter(next)
}

// PrevChapter moves to the preceding chapter. At the first chapter nothing happens.
func (c *Coordinator) PrevChapter() {
	if len(c.chapters) == 0 || c.chapter <= 0 {
		return
	}
	c.setChapter(min(c.chapter, len(c.chapters)) - 1)
}

// chapterIndex is the engine index bounded by the chapter list.
func (c *Coordinator) chapterIndex() int {
	if c.chapter < 0 || c.chapter >= len(c.chapters) {
		return 0
	}
	return c.chapter
}

func (c *Coordinator) setChapter(index int) {
	if err := c.engine().Set(engine.PropChapter, index); err != nil {
		c.best("set chapter", err)
		return
	}
	c.chapter = index
}

// CycleLoopState advances the loop mode and reconfigures native file looping to match.
func (c *Coordinator) CycleLoopState() {
	c.loop = c.loop.Next()
	c.best("set loop-file", c.engine().Set(engine.PropLoopFile, c.loop.LoopFile()))
	c.opts.Notify(LoopStateChanged{State: c.loop})
}

// Shutdown stops and terminates the engine. Every step runs even if the previous one failed.
func (c *Coordinator) Shutdown() {
	if !c.initialized {
		return
	}

	if c.fileID != "" {
		if err := c.eng.Stop(); err != nil && !errors.Is(err, engine.ErrNotRunning) {
			log.Warnf("shutdown: stop: %v", err)
		}
	}
	if err := c.eng.Terminate(); err != nil {
		log.Warnf("shutdown: terminate: %v", err)
	}
	c.fileID = ""
}

// best logs a failed best-effort command.
func (c *Coordinator) best(what string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, engine.ErrNotRunning) && c.failed {
		log.Debugf("%s: %v", what, err)
		return
	}
	log.Errorf("%s: %v", what, err)
}

func (c *Coordinator) resetView() {
	c.timePos = mo.None[float64]()
	c.duration = mo.None[float64]()
	c.tracks = nil
	c.selection = media.NewSelection()
	c.chapters = nil
	c.chapter = 0
}
