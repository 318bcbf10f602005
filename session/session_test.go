package session

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/media"
)

type fixture struct {
	eng      *fakeEngine
	store    *memPositions
	prompter *scriptedPrompter
	rec      *recorder
	c        *Coordinator
	inits    int
}

func newFixture() *fixture {
	f := &fixture{
		eng:      newFakeEngine(),
		store:    newMemPositions(),
		prompter: &scriptedPrompter{answer: true},
		rec:      &recorder{},
	}

	f.c = New(Options{
		Factory: func() (engine.Engine, error) {
			f.inits++
			return f.eng, nil
		},
		Positions: f.store,
		Prompter:  f.prompter,
		Notify:    f.rec.notify,
	})
	// events are dispatched synchronously in tests
	f.c.inbox = f.c.Dispatch
	return f
}

func (f *fixture) load(target string) {
	So(f.c.Load(media.Request{Target: target}, true), ShouldBeNil)
}

// begin reports the current entry as started and loaded.
func (f *fixture) begin() {
	f.eng.emit(engine.Started(f.eng.current()))
	f.eng.emit(engine.Loaded())
}

func (f *fixture) ended(reason engine.Reason) {
	f.eng.emit(engine.Ended(reason, f.eng.current()))
}

func TestLoopState(t *testing.T) {
	Convey("Cycling the loop state visits off, one, all and wraps", t, func() {
		f := newFixture()
		So(f.c.Loop(), ShouldEqual, LoopOff)

		want := []LoopState{RepeatOne, RepeatAll, LoopOff, RepeatOne, RepeatAll, LoopOff}
		for _, w := range want {
			f.c.CycleLoopState()
			So(f.c.Loop(), ShouldEqual, w)
		}

		Convey("Native looping is enabled only in repeat one", func() {
			So(f.eng.setsOf(engine.PropLoopFile), ShouldResemble, []any{"inf", "no", "no", "inf", "no", "no"})
		})

		Convey("Every step is announced", func() {
			n := f.rec.count(func(n Notification) bool {
				_, ok := n.(LoopStateChanged)
				return ok
			})
			So(n, ShouldEqual, len(want))
		})

		Convey("String forms", func() {
			So(LoopOff.String(), ShouldEqual, "none")
			So(RepeatOne.String(), ShouldEqual, "one")
			So(RepeatAll.String(), ShouldEqual, "all")
		})
	})
}

func TestResumePolicy(t *testing.T) {
	Convey("Given a saved position", t, func() {
		store := newMemPositions()
		prompter := &scriptedPrompter{}
		policy := DefaultPolicy()

		Convey("At or below the threshold nothing is offered", func() {
			for _, p := range []float64{0, 3, 10} {
				store.saved["a"] = p
				So(policy.Preflight("a", LoopOff, store, prompter).IsAbsent(), ShouldBeTrue)
			}
			So(prompter.asked, ShouldBeEmpty)
		})

		Convey("Above the threshold a confirmed prompt returns the position", func() {
			store.saved["a"] = 42.5
			prompter.answer = true
			So(policy.Preflight("a", LoopOff, store, prompter), ShouldResemble, mo.Some(42.5))
			So(prompter.asked, ShouldHaveLength, 1)
			So(prompter.asked[0], ShouldContainSubstring, "00:42")
		})

		Convey("A declined prompt returns nothing", func() {
			store.saved["a"] = 42.5
			prompter.answer = false
			So(policy.Preflight("a", LoopOff, store, prompter).IsAbsent(), ShouldBeTrue)
		})

		Convey("Repeat all never prompts", func() {
			store.saved["a"] = 500
			So(policy.Preflight("a", RepeatAll, store, prompter).IsAbsent(), ShouldBeTrue)
			So(prompter.asked, ShouldBeEmpty)
		})

		Convey("Without asking the position is used directly", func() {
			store.saved["a"] = 60
			policy.Ask = false
			So(policy.Preflight("a", LoopOff, store, prompter), ShouldResemble, mo.Some(60.0))
			So(prompter.asked, ShouldBeEmpty)
		})

		Convey("A failing store reads as nothing saved", func() {
			store.err = errBoom
			So(policy.Preflight("a", LoopOff, store, prompter).IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Save values follow the near end and threshold rules", t, func() {
		policy := DefaultPolicy()
		So(policy.SaveValue(50, mo.Some(200.0)), ShouldResemble, mo.Some(50.0))
		So(policy.SaveValue(198, mo.Some(200.0)), ShouldResemble, mo.Some(0.0))
		So(policy.SaveValue(5, mo.Some(200.0)).IsAbsent(), ShouldBeTrue)
		So(policy.SaveValue(50, mo.None[float64]()), ShouldResemble, mo.Some(50.0))
		So(policy.SaveValue(50, mo.Some(0.0)), ShouldResemble, mo.Some(50.0))
	})
}

func TestEndOfFile(t *testing.T) {
	Convey("Given a playing file", t, func() {
		f := newFixture()
		f.load("/videos/a.mkv")
		f.begin()

		Convey("EOF in repeat one is silent", func() {
			f.c.CycleLoopState()
			f.ended(engine.ReasonEOF)
			So(f.rec.finished(), ShouldBeEmpty)
		})

		Convey("EOF with looping off finishes without loop all", func() {
			f.ended(engine.ReasonEOF)
			So(f.rec.finished(), ShouldResemble, []PlaybackFinished{{LoopAll: false}})

			Convey("A repeated EOF of the same file finishes once", func() {
				f.ended(engine.ReasonEOF)
				So(f.rec.finished(), ShouldHaveLength, 1)
			})
		})

		Convey("EOF in repeat all finishes with loop all", func() {
			f.c.CycleLoopState()
			f.c.CycleLoopState()
			f.ended(engine.ReasonEOF)
			So(f.rec.finished(), ShouldResemble, []PlaybackFinished{{LoopAll: true}})
		})

		Convey("Stop, quit and error never finish in any loop state", func() {
			for i := 0; i < 3; i++ {
				for _, r := range []engine.Reason{engine.ReasonStop, engine.ReasonQuit, engine.ReasonError, engine.ReasonRedirect, engine.ReasonUnknown} {
					f.ended(r)
				}
				f.c.CycleLoopState()
			}
			So(f.rec.finished(), ShouldBeEmpty)
		})
	})
}

func TestSavePositionOnLoad(t *testing.T) {
	Convey("Given file A playing", t, func() {
		f := newFixture()
		f.load("A")

		Convey("Loading B saves the position of A", func() {
			f.eng.setProps(50, 200)
			f.load("B")
			So(f.store.saved["A"], ShouldEqual, 50.0)
			So(f.eng.stops, ShouldEqual, 1)
			So(f.c.FileID(), ShouldEqual, "B")
		})

		Convey("Near the end the saved position is reset", func() {
			f.store.saved["A"] = 120
			f.eng.setProps(198, 200)
			f.load("B")
			So(f.store.saved["A"], ShouldEqual, 0.0)
		})

		Convey("Close to the start nothing is written", func() {
			f.store.saved["A"] = 120
			f.eng.setProps(4, 200)
			f.load("B")
			So(f.store.saved["A"], ShouldEqual, 120.0)
		})

		Convey("Observed values are used when the engine cannot be queried", func() {
			f.eng.emit(engine.Property(engine.PropTimePos, 75.0))
			f.eng.emit(engine.Property(engine.PropDuration, 600.0))
			f.load("B")
			So(f.store.saved["A"], ShouldEqual, 75.0)
		})

		Convey("Stop and save clears the current file", func() {
			f.eng.setProps(33, 200)
			f.c.StopAndSave()
			So(f.store.saved["A"], ShouldEqual, 33.0)
			So(f.c.FileID(), ShouldBeEmpty)
			So(f.eng.stops, ShouldEqual, 1)
		})
	})
}

func TestChapters(t *testing.T) {
	Convey("Given three chapters", t, func() {
		f := newFixture()
		f.load("A")
		f.eng.emit(engine.Property(engine.PropChapterList, []any{
			map[string]any{"title": "One", "time": 0.0},
			map[string]any{"title": "Two", "time": 60.0},
			map[string]any{"title": "Three", "time": 120.0},
		}))

		Convey("Next at the last chapter does nothing", func() {
			f.eng.emit(engine.Property(engine.PropChapter, 2.0))
			f.c.NextChapter()
			So(f.c.Chapter(), ShouldEqual, 2)
			So(f.eng.setsOf(engine.PropChapter), ShouldBeEmpty)
		})

		Convey("Previous at the first chapter does nothing", func() {
			f.eng.emit(engine.Property(engine.PropChapter, 0.0))
			f.c.PrevChapter()
			So(f.c.Chapter(), ShouldEqual, 0)
			So(f.eng.setsOf(engine.PropChapter), ShouldBeEmpty)
		})

		Convey("Next and previous move by one", func() {
			f.c.NextChapter()
			So(f.c.Chapter(), ShouldEqual, 1)
			f.c.PrevChapter()
			So(f.c.Chapter(), ShouldEqual, 0)
			So(f.eng.setsOf(engine.PropChapter), ShouldResemble, []any{1, 0})
		})

		Convey("Out of range indices from the engine clamp to zero", func() {
			f.eng.emit(engine.Property(engine.PropChapter, -1.0))
			So(f.c.Chapter(), ShouldEqual, 0)
		})
	})

	Convey("Given a chapter index reported before the chapter list", t, func() {
		f := newFixture()
		f.load("A")
		f.eng.emit(engine.Property(engine.PropChapter, 2.0))
		f.eng.emit(engine.Property(engine.PropChapterList, []any{
			map[string]any{"title": "One", "time": 0.0},
			map[string]any{"title": "Two", "time": 60.0},
			map[string]any{"title": "Three", "time": 120.0},
		}))

		Convey("The index survives the list", func() {
			So(f.c.Chapter(), ShouldEqual, 2)
			So(f.c.Snapshot().Chapter, ShouldEqual, 2)

			var announced []ChaptersChanged
			for _, n := range f.rec.got {
				if changed, ok := n.(ChaptersChanged); ok {
					announced = append(announced, changed)
				}
			}
			So(announced, ShouldHaveLength, 1)
			So(announced[0].Index, ShouldEqual, 2)
		})

		Convey("Next at the last chapter does nothing", func() {
			f.c.NextChapter()
			So(f.eng.setsOf(engine.PropChapter), ShouldBeEmpty)
		})

		Convey("Previous moves back from the reported chapter", func() {
			f.c.PrevChapter()
			So(f.eng.setsOf(engine.PropChapter), ShouldResemble, []any{1})
		})
	})

	Convey("Before the first chapter next moves to the first one", t, func() {
		f := newFixture()
		f.load("A")
		f.eng.emit(engine.Property(engine.PropChapterList, []any{
			map[string]any{"title": "One", "time": 10.0},
			map[string]any{"title": "Two", "time": 60.0},
		}))
		f.eng.emit(engine.Property(engine.PropChapter, -1.0))
		f.c.NextChapter()
		f.c.PrevChapter()
		So(f.eng.setsOf(engine.PropChapter), ShouldResemble, []any{0})
	})

	Convey("Without chapters navigation is a no-op", t, func() {
		f := newFixture()
		f.load("A")
		f.c.NextChapter()
		f.c.PrevChapter()
		So(f.eng.setsOf(engine.PropChapter), ShouldBeEmpty)
	})
}

func TestPendingResume(t *testing.T) {
	Convey("Given a confirmed resume position", t, func() {
		f := newFixture()
		f.store.saved["A"] = 90
		f.load("A")

		pending, ok := f.c.Pending()
		So(ok, ShouldBeTrue)
		So(pending, ShouldEqual, 90.0)

		Convey("The first restart seeks and unpauses", func() {
			f.begin()
			f.eng.emit(engine.Restarted())
			So(f.eng.commandsNamed("seek"), ShouldResemble, [][]any{{"seek", 90.0, "absolute"}})
			So(f.eng.setsOf(engine.PropPause), ShouldResemble, []any{false})

			Convey("A second restart does not seek again but unpauses again", func() {
				f.eng.emit(engine.Restarted())
				So(f.eng.commandsNamed("seek"), ShouldHaveLength, 1)
				So(f.eng.setsOf(engine.PropPause), ShouldResemble, []any{false, false})
				_, ok := f.c.Pending()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("A restart before the file loaded keeps the pending value", func() {
			f.eng.emit(engine.Restarted())
			So(f.eng.commandsNamed("seek"), ShouldBeEmpty)
			_, ok := f.c.Pending()
			So(ok, ShouldBeTrue)
		})

		Convey("A new load replaces a pending value that was never consumed", func() {
			f.prompter.answer = false
			f.load("B")
			_, ok := f.c.Pending()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEventsOfEarlierLoads(t *testing.T) {
	Convey("Given A playing and B loaded with a confirmed resume", t, func() {
		f := newFixture()
		f.load("A")
		f.begin()
		f.eng.emit(engine.Restarted())
		a := f.eng.current()

		f.store.saved["B"] = 120
		f.load("B")
		b := f.eng.current()
		So(b, ShouldNotEqual, a)

		Convey("A restart and EOF queued by A do not touch B", func() {
			f.eng.emit(engine.Restarted())
			f.eng.emit(engine.Ended(engine.ReasonEOF, a))

			So(f.eng.commandsNamed("seek"), ShouldBeEmpty)
			pending, ok := f.c.Pending()
			So(ok, ShouldBeTrue)
			So(pending, ShouldEqual, 120.0)
			So(f.rec.finished(), ShouldBeEmpty)

			Convey("B's own restart seeks and unpauses", func() {
				f.eng.emit(engine.Started(b))
				f.eng.emit(engine.Loaded())
				f.eng.emit(engine.Restarted())
				So(f.eng.commandsNamed("seek"), ShouldResemble, [][]any{{"seek", 120.0, "absolute"}})
				So(f.eng.setsOf(engine.PropPause), ShouldResemble, []any{false, false})
			})
		})

		Convey("A start of A's entry does not count as B starting", func() {
			f.eng.emit(engine.Started(a))
			f.eng.emit(engine.Loaded())
			f.eng.emit(engine.Restarted())
			So(f.eng.commandsNamed("seek"), ShouldBeEmpty)
			_, ok := f.c.Pending()
			So(ok, ShouldBeTrue)
		})

		Convey("An EOF without an entry id is ignored until B starts", func() {
			f.eng.emit(engine.Ended(engine.ReasonEOF, 0))
			So(f.rec.finished(), ShouldBeEmpty)

			f.eng.emit(engine.Started(b))
			f.eng.emit(engine.Ended(engine.ReasonEOF, 0))
			So(f.rec.finished(), ShouldHaveLength, 1)
		})

		Convey("An EOF of A after B started is still ignored", func() {
			f.eng.emit(engine.Started(b))
			f.eng.emit(engine.Ended(engine.ReasonEOF, a))
			So(f.rec.finished(), ShouldBeEmpty)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a fresh coordinator", t, func() {
		f := newFixture()

		Convey("The engine is started lazily once", func() {
			So(f.inits, ShouldEqual, 0)
			f.load("A")
			f.load("B")
			So(f.inits, ShouldEqual, 1)
			So(f.eng.observed, ShouldContain, engine.PropTrackList)
			So(f.eng.played, ShouldResemble, []string{"A", "B"})
		})

		Convey("An empty target is rejected", func() {
			So(f.c.Load(media.Request{}, true), ShouldNotBeNil)
			So(f.inits, ShouldEqual, 0)
		})

		Convey("Controls are announced on request", func() {
			So(f.c.Load(media.Request{Target: "A"}, false), ShouldBeNil)
			So(f.c.Load(media.Request{Target: "B"}, true), ShouldBeNil)
			n := f.rec.count(func(n Notification) bool {
				_, ok := n.(ControlsRequested)
				return ok
			})
			So(n, ShouldEqual, 1)
		})

		Convey("External tracks are added after the file loads and failures are skipped", func() {
			f.eng.failOn["video-add"] = errBoom
			So(f.c.Load(media.Request{
				Target: "https://cdn.example.com/v1.mp4",
				FileID: "https://example.com/watch?v=1",
				Video:  []media.Stream{{URL: "https://cdn.example.com/v2.mp4", Name: "720p"}},
				Audio: []media.Stream{
					{URL: "https://cdn.example.com/a1.m4a", Name: "en", Language: "en"},
					{URL: "https://cdn.example.com/a2.m4a", Name: "ja", Language: "ja"},
				},
			}, true), ShouldBeNil)
			So(f.eng.commandsNamed("audio-add"), ShouldBeEmpty)

			f.begin()
			So(f.eng.commandsNamed("video-add"), ShouldHaveLength, 1)
			So(f.eng.commandsNamed("audio-add"), ShouldHaveLength, 2)
			So(f.eng.commandsNamed("audio-add")[0][2], ShouldEqual, "auto")
			So(f.c.FileID(), ShouldEqual, "https://example.com/watch?v=1")

			Convey("They are added only once", func() {
				f.eng.emit(engine.Loaded())
				So(f.eng.commandsNamed("audio-add"), ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given an engine that fails to start", t, func() {
		rec := &recorder{}
		inits := 0
		c := New(Options{
			Factory: func() (engine.Engine, error) {
				inits++
				return nil, errBoom
			},
			Notify: rec.notify,
		})

		err := c.Load(media.Request{Target: "A"}, true)
		So(err, ShouldNotBeNil)

		c.TogglePause()
		c.SeekRelative(10)
		c.CycleLoopState()
		So(c.Load(media.Request{Target: "B"}, true), ShouldNotBeNil)

		Convey("Failure is surfaced once and commands degrade to no-ops", func() {
			So(inits, ShouldEqual, 1)
			n := rec.count(func(n Notification) bool {
				_, ok := n.(EngineFailed)
				return ok
			})
			So(n, ShouldEqual, 1)
			So(c.Snapshot().Failed, ShouldBeTrue)
		})
	})
}

func TestCommands(t *testing.T) {
	Convey("Given a playing file", t, func() {
		f := newFixture()
		f.load("A")

		Convey("Pass-through commands reach the engine", func() {
			f.c.TogglePause()
			f.c.SeekRelative(-10)
			f.c.AddVolume(5)
			f.c.ToggleMute()
			f.c.CycleTrack(media.Subtitle)
			f.c.ToggleFullscreen()

			So(f.eng.commandsNamed("cycle"), ShouldResemble, [][]any{
				{"cycle", "pause"},
				{"cycle", "mute"},
				{"cycle", "sid"},
				{"cycle", "fullscreen"},
			})
			So(f.eng.commandsNamed("seek"), ShouldResemble, [][]any{{"seek", -10.0, "relative"}})
			So(f.eng.commandsNamed("add"), ShouldResemble, [][]any{{"add", "volume", 5}})
		})

		Convey("Volume is clamped", func() {
			f.c.SetVolume(150)
			f.c.SetVolume(-3)
			So(f.eng.setsOf(engine.PropVolume), ShouldResemble, []any{100, 0})
		})

		Convey("Engine failures are swallowed", func() {
			f.eng.failOn["cycle"] = errBoom
			So(func() { f.c.TogglePause() }, ShouldNotPanic)
		})

		Convey("Property changes update the snapshot", func() {
			f.eng.emit(engine.Property(engine.PropPause, true))
			f.eng.emit(engine.Property(engine.PropVolume, 70.0))
			f.eng.emit(engine.Property(engine.PropAid, 2.0))
			f.eng.emit(engine.Property(engine.PropSid, false))
			f.eng.emit(engine.Property(engine.PropTrackList, []any{
				map[string]any{"id": 2.0, "type": "audio", "lang": "en"},
			}))

			view := f.c.Snapshot()
			So(view.Paused, ShouldBeTrue)
			So(view.Volume, ShouldEqual, 70)
			So(view.Selection.Audio, ShouldEqual, "2")
			So(view.Selection.Subtitle, ShouldEqual, media.None)
			So(view.Tracks, ShouldHaveLength, 1)
		})

		Convey("Shutdown stops and terminates", func() {
			f.c.Shutdown()
			So(f.eng.stops, ShouldEqual, 1)
			So(f.eng.terminated, ShouldBeTrue)
		})
	})
}

func TestRunner(t *testing.T) {
	Convey("Given a running runner", t, func() {
		eng := newFakeEngine()
		rec := &recorder{}
		c := New(Options{
			Factory: func() (engine.Engine, error) { return eng, nil },
			Notify:  rec.notify,
		})
		r := NewRunner(c, 8)

		ctx, cancel := context.WithCancel(context.Background())
		go r.Run(ctx)

		So(r.Do(ctx, func(c *Coordinator) {
			_ = c.Load(media.Request{Target: "A"}, true)
		}), ShouldBeTrue)

		Convey("Engine events are marshaled onto the runner", func() {
			eng.emit(engine.Started(eng.current()))
			eng.emit(engine.Ended(engine.ReasonEOF, eng.current()))
			So(r.Do(ctx, func(*Coordinator) {}), ShouldBeTrue)
			So(rec.finished(), ShouldHaveLength, 1)
		})

		Convey("Cancelling shuts the engine down", func() {
			cancel()
			select {
			case <-r.Done():
			case <-time.After(time.Second):
			}
			So(eng.terminated, ShouldBeTrue)
			So(r.Submit(func(*Coordinator) {}), ShouldBeFalse)
		})

		Reset(cancel)
	})
}
