package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/history"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/library"
	"github.com/vidra-player/vidra/media"
	"github.com/vidra-player/vidra/session"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/thumbnail"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.PlayerAskResume, true)
	viper.Set(key.PlayerResumeThreshold, 10)
	viper.Set(key.PlayerNearEndThreshold, 5)
	viper.Set(key.PlayerSeekStep, 10)
	viper.Set(key.PlayerVolumeStep, 5)
	viper.Set(key.ThumbnailsDebounce, 1)
	viper.Set(key.ThumbnailsGrace, 100)
}

type fakeEngine struct {
	mu       sync.Mutex
	played   []string
	commands [][]any
	stops    int
}

func (f *fakeEngine) Play(target string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, target)
	return int64(len(f.played)), nil
}

func (f *fakeEngine) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeEngine) Terminate() error { return nil }

func (f *fakeEngine) Command(args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, args)
	return nil
}

func (f *fakeEngine) Get(string) (any, error)  { return nil, engine.ErrPropertyUnavailable }
func (f *fakeEngine) Set(string, any) error    { return nil }
func (f *fakeEngine) Observe(...string) error  { return nil }
func (f *fakeEngine) Subscribe(engine.Handler) {}

func (f *fakeEngine) lastPlayed() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.played) == 0 {
		return ""
	}
	return f.played[len(f.played)-1]
}

type fakeExtractor struct {
	info *extract.Info
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string) (*extract.Info, error) {
	return f.info, f.err
}

func (f *fakeExtractor) ExtractFlat(ctx context.Context, url string) (*extract.Info, error) {
	return f.Extract(ctx, url)
}

type harness struct {
	b      *statefulBubble
	eng    *fakeEngine
	store  *history.Store
	msgs   chan tea.Msg
	cancel context.CancelFunc
}

func newHarness(t *testing.T, deps dependencies) *harness {
	dir := t.TempDir()
	fs := filesystem.API()
	So(fs.MkdirAll("/videos", 0o755), ShouldBeNil)
	for _, name := range []string{"a.mp4", "b.mkv", "notes.txt"} {
		So(afero.WriteFile(fs, "/videos/"+name, []byte("x"), 0o644), ShouldBeNil)
	}

	h := &harness{
		eng:   &fakeEngine{},
		store: history.New(dir+"/positions.json", dir+"/state.json"),
		msgs:  make(chan tea.Msg, 256),
	}
	if deps.factory == nil {
		deps.factory = func() (engine.Engine, error) { return h.eng, nil }
	}
	if deps.extractor == nil {
		deps.extractor = &fakeExtractor{err: extract.ErrNoStreams}
	}
	deps.store = h.store

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.b = newBubble(ctx, &Options{}, deps, func(msg tea.Msg) { h.msgs <- msg })
	go h.b.runner.Run(ctx)

	Reset(func() { h.b.close(cancel) })
	return h
}

func (h *harness) update(msg tea.Msg) {
	h.b.Update(msg)
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			h.update(tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			h.update(tea.KeyMsg{Type: tea.KeyEscape})
		case " ":
			h.update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		default:
			h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

// until feeds background messages to the bubble until cond holds.
func (h *harness) until(cond func() bool) bool {
	deadline := time.After(2 * time.Second)
	poll := time.NewTicker(5 * time.Millisecond)
	defer poll.Stop()

	for !cond() {
		select {
		case msg := <-h.msgs:
			h.update(msg)
		case <-poll.C:
		case <-deadline:
			return false
		}
	}
	return true
}

// sync waits until the runner processed everything submitted so far.
func (h *harness) sync() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		h.b.runner.Do(ctx, func(*session.Coordinator) {})
		close(done)
	}()
	h.until(func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	})
}

func (h *harness) inState(s state) func() bool {
	return func() bool { return h.b.state == s }
}

func TestLibrary(t *testing.T) {
	Convey("Given an empty library", t, func() {
		h := newHarness(t, dependencies{})

		Convey("Adding a directory adds its video files", func() {
			h.b.addPath("/videos")
			rows := h.b.library.Rows()
			So(rows, ShouldHaveLength, 2)
			So(rows[0].Name, ShouldEqual, "a.mp4")
			So(rows[1].Name, ShouldEqual, "b.mkv")
			So(h.b.libraryC.Items(), ShouldHaveLength, 2)

			Convey("The add dialog starts in the last directory", func() {
				h.press("a")
				So(h.b.state, ShouldEqual, addFileState)
				So(h.b.fileC.Value(), ShouldEqual, "/videos/")
			})

			Convey("The selected row can be removed", func() {
				h.press("d")
				So(h.b.library.Len(), ShouldEqual, 1)
				So(h.b.library.Rows()[0].Name, ShouldEqual, "b.mkv")
			})

			Convey("The library can be cleared", func() {
				h.press("D")
				So(h.b.library.Len(), ShouldEqual, 0)
				So(h.b.libraryC.Items(), ShouldBeEmpty)
			})

			Convey("Filtering narrows the rows", func() {
				h.press("/", "m", "k", "v")
				So(h.b.state, ShouldEqual, filterState)
				So(h.b.libraryC.Items(), ShouldHaveLength, 1)
				So(h.b.libraryC.Items()[0].(*listItem).index, ShouldEqual, 1)

				Convey("Escape resets it", func() {
					h.press("esc")
					So(h.b.state, ShouldEqual, libraryState)
					So(h.b.libraryC.Items(), ShouldHaveLength, 2)
				})
			})
		})

		Convey("Path completion offers directories and video files", func() {
			So(suggestPaths("/videos/"), ShouldResemble, []string{"/videos/a.mp4", "/videos/b.mkv"})
		})

		Convey("A missing file raises a notice", func() {
			h.b.addPath("/videos/missing.mp4")
			So(h.b.state, ShouldEqual, noticeState)
			So(h.b.notice, ShouldContainSubstring, "File not found")

			h.press("enter")
			So(h.b.state, ShouldEqual, libraryState)
		})

		Convey("Cycling the theme applies the next one", func() {
			next := style.NextTheme(style.Current().Name)
			h.press("t")
			So(style.Current().Name, ShouldEqual, next.Name)
		})
	})
}

func TestPlayback(t *testing.T) {
	Convey("Given a library with two files", t, func() {
		h := newHarness(t, dependencies{})
		h.b.addPath("/videos")

		Convey("Enter plays the selected file and shows the controls", func() {
			h.press("enter")
			So(h.until(h.inState(playingState)), ShouldBeTrue)
			So(h.eng.lastPlayed(), ShouldEqual, "/videos/a.mp4")
			So(h.b.playing.fileID, ShouldEqual, "/videos/a.mp4")

			Convey("Keys are forwarded to the session", func() {
				h.press(" ", "m", "c")
				h.sync()
				h.eng.mu.Lock()
				defer h.eng.mu.Unlock()
				So(h.eng.commands, ShouldResemble, [][]any{
					{"cycle", "pause"},
					{"cycle", "mute"},
					{"cycle", "sid"},
				})
			})

			Convey("Loop all advances to the next file when playback finishes", func() {
				h.update(notificationMsg{session.PlaybackFinished{LoopAll: true}})
				h.sync()
				So(h.eng.lastPlayed(), ShouldEqual, "/videos/b.mkv")
			})

			Convey("Otherwise the library is shown again", func() {
				h.update(notificationMsg{session.PlaybackFinished{}})
				h.sync()
				So(h.b.state, ShouldEqual, libraryState)
				So(h.b.playing.active(), ShouldBeFalse)
			})

			Convey("The library key stops playback", func() {
				h.update(tea.KeyMsg{Type: tea.KeyCtrlP})
				h.sync()
				So(h.b.state, ShouldEqual, libraryState)
				h.eng.mu.Lock()
				defer h.eng.mu.Unlock()
				So(h.eng.stops, ShouldBeGreaterThan, 0)
			})
		})

		Convey("A saved position asks to resume", func() {
			So(h.store.SavePosition("/videos/a.mp4", 120), ShouldBeNil)
			h.press("enter")
			So(h.until(h.inState(resumeState)), ShouldBeTrue)
			So(h.b.prompt.message, ShouldContainSubstring, "02:00")

			Convey("Accepting keeps the position pending", func() {
				h.press("y")
				So(h.until(h.inState(playingState)), ShouldBeTrue)

				var pending float64
				h.b.runner.Do(context.Background(), func(c *session.Coordinator) {
					pending, _ = c.Pending()
				})
				So(pending, ShouldEqual, 120)
			})

			Convey("Declining starts over", func() {
				h.press("n")
				So(h.until(h.inState(playingState)), ShouldBeTrue)

				var ok bool
				h.b.runner.Do(context.Background(), func(c *session.Coordinator) {
					_, ok = c.Pending()
				})
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given an engine that cannot start", t, func() {
		h := newHarness(t, dependencies{
			factory: func() (engine.Engine, error) { return nil, errors.New("mpv not found") },
		})
		h.b.addPath("/videos/a.mp4")

		Convey("Playing shows the failure once", func() {
			h.press("enter")
			So(h.until(func() bool { return h.b.engineErr != nil }), ShouldBeTrue)
			h.sync()
			So(h.b.state, ShouldEqual, noticeState)
			So(h.b.notice, ShouldContainSubstring, "mpv not found")
		})
	})
}

func TestStreams(t *testing.T) {
	info := &extract.Info{
		Title: "Big Buck Bunny",
		URL:   "https://example.com/watch?v=1",
		Video: []media.Stream{{URL: "https://cdn.example.com/1080.mp4", Name: "1080p"}},
		Audio: []media.Stream{{URL: "https://cdn.example.com/en.m4a", Name: "en", Language: "en"}},
	}

	Convey("Given a stream URL", t, func() {
		h := newHarness(t, dependencies{extractor: &fakeExtractor{info: info}})
		h.press("u")
		So(h.b.state, ShouldEqual, openStreamState)
		h.b.streamC.SetValue(info.URL)
		h.press("enter")
		So(h.b.state, ShouldEqual, extractingState)

		Convey("A successful extraction adds and plays the stream", func() {
			h.update(streamMsg{url: info.URL, info: info})
			h.sync()
			So(h.b.library.Rows()[0].Name, ShouldEqual, "Big Buck Bunny")
			So(h.eng.lastPlayed(), ShouldEqual, "https://cdn.example.com/1080.mp4")
		})

		Convey("No streams raises a notice", func() {
			h.update(streamMsg{url: info.URL, err: extract.ErrNoStreams})
			So(h.b.state, ShouldEqual, noticeState)
			So(h.b.notice, ShouldContainSubstring, "No streams found")
			So(h.b.library.Len(), ShouldEqual, 0)
		})

		Convey("A cancelled extraction is dropped", func() {
			h.press("esc")
			h.update(streamMsg{url: info.URL, info: info})
			So(h.b.library.Len(), ShouldEqual, 0)
		})
	})
}

func TestThumbnails(t *testing.T) {
	Convey("Given a fetcher", t, func() {
		fetch := func(_ context.Context, fileID string, slot thumbnail.Slot) thumbnail.Result {
			return thumbnail.Result{Slot: slot, FileID: fileID, Duration: 60, Width: 1920, Height: 1080}
		}
		h := newHarness(t, dependencies{fetch: fetch})

		Convey("Added rows are fetched in one batch", func() {
			h.b.addPath("/videos")

			results := 0
			So(h.until(func() bool {
				select {
				case r := <-h.b.pool.Results():
					h.update(resultMsg{r})
					results++
				default:
				}
				return results == 2
			}), ShouldBeTrue)

			for _, row := range h.b.library.Rows() {
				So(row.Status, ShouldEqual, library.Ready)
				So(row.Duration, ShouldEqual, "01:00")
				So(row.Resolution, ShouldEqual, "1920x1080")
			}
		})
	})
}

func TestNowPlaying(t *testing.T) {
	Convey("Given a now playing mirror", t, func() {
		p := newNowPlaying()
		p.apply(session.FileChanged{FileID: "/videos/a.mp4"})
		p.apply(session.VolumeChanged{Volume: 70})
		p.apply(session.LoopStateChanged{State: session.RepeatAll})
		p.apply(session.TracksChanged{
			Tracks: []media.Track{
				{ID: "1", Type: media.Audio, Language: "en", Title: "Stereo"},
				{ID: "2", Type: media.Subtitle, Language: "fr"},
			},
			Selection: media.Selection{Audio: "1", Subtitle: media.None, Video: media.None},
		})

		Convey("Selections resolve to track labels", func() {
			So(p.track(media.Audio), ShouldEqual, p.tracks[0].Label())
			So(p.track(media.Subtitle), ShouldEqual, "off")

			p.apply(session.SelectionChanged{Type: media.Subtitle, ID: "2"})
			So(p.track(media.Subtitle), ShouldEqual, p.tracks[1].Label())
		})

		Convey("A new file keeps loop mode and volume", func() {
			p.apply(session.TimeChanged{Seconds: 30})
			p.apply(session.FileChanged{FileID: "/videos/b.mkv"})
			So(p.volume, ShouldEqual, 70)
			So(p.loop, ShouldEqual, session.RepeatAll)
			So(p.time, ShouldEqual, 0)
			So(p.tracks, ShouldBeEmpty)
		})

		Convey("Progress is clamped", func() {
			p.apply(session.DurationChanged{Seconds: 100})
			p.apply(session.TimeChanged{Seconds: 150})
			So(p.progress(), ShouldEqual, 1)
			So(p.clock(), ShouldEqual, "02:30 / 01:40")
		})

		Convey("Chapters show their position", func() {
			p.apply(session.ChaptersChanged{Chapters: []media.Chapter{{Title: "Intro"}, {Title: "Main", Start: 60}}})
			p.apply(session.ChapterChanged{Index: 1})
			So(p.chapterLine(), ShouldContainSubstring, "Main (2/2)")
		})
	})
}
