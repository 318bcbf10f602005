package thumbnail

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/filesystem"
	"go.uber.org/goleak"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCachePath(t *testing.T) {
	Convey("Cache paths keep alphanumerics of the base name and the row index", t, func() {
		So(CachePath("/cache", "/videos/My Movie (2020).mkv", 3), ShouldEqual, filepath.Join("/cache", "MyMovie2020mkv_3.jpg"))
		So(CachePath("/cache", "https://example.com/watch?v=abc", 0), ShouldEqual, filepath.Join("/cache", "watchvabc_0.jpg"))

		Convey("Names without alphanumerics fall back to a stable hash", func() {
			a := CachePath("/cache", "/videos/___.__", 1)
			b := CachePath("/cache", "/videos/___.__", 1)
			So(a, ShouldEqual, b)
			So(a, ShouldNotEqual, CachePath("/cache", "/other/___.__", 1))
			So(filepath.Base(a), ShouldEndWith, "_1.jpg")
		})
	})

	Convey("URLs are told apart from paths", t, func() {
		So(IsURL("https://example.com/v"), ShouldBeTrue)
		So(IsURL("http://example.com"), ShouldBeTrue)
		So(IsURL("/videos/a.mkv"), ShouldBeFalse)
		So(IsURL(`C:\videos\a.mkv`), ShouldBeFalse)
		So(IsURL("file:///videos/a.mkv"), ShouldBeFalse)
	})
}

func TestPool(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	Convey("Given a pool", t, func() {
		release := make(chan struct{})
		var calls atomic.Int32

		pool := NewPool(func(ctx context.Context, fileID string, slot Slot) Result {
			calls.Add(1)
			if fileID == "slow" {
				select {
				case <-release:
				case <-ctx.Done():
				}
			}
			return Result{Slot: slot, FileID: fileID, Duration: 60}
		}, 8)

		Convey("Results carry the slot captured at dispatch", func() {
			pool.Dispatch("a", Slot{Index: 0, Row: 11})
			pool.Dispatch("b", Slot{Index: 1, Row: 12})

			got := map[string]Slot{}
			for i := 0; i < 2; i++ {
				r := <-pool.Results()
				got[r.FileID] = r.Slot
			}
			So(got["a"], ShouldResemble, Slot{Index: 0, Row: 11})
			So(got["b"], ShouldResemble, Slot{Index: 1, Row: 12})
			So(pool.CancelAll(time.Second), ShouldBeTrue)
		})

		Convey("A cancelled job delivers nothing", func() {
			h := pool.Dispatch("slow", Slot{Index: 0, Row: 1})
			pool.Cancel(h)
			So(pool.CancelAll(time.Second), ShouldBeTrue)
			So(pool.Len(), ShouldEqual, 0)

			select {
			case r := <-pool.Results():
				So(r, ShouldBeNil)
			default:
			}
		})

		Convey("Cancelling an unknown handle is harmless", func() {
			h := pool.Dispatch("a", Slot{})
			<-pool.Results()
			So(func() { pool.Cancel(h) }, ShouldNotPanic)
			So(pool.CancelAll(time.Second), ShouldBeTrue)
		})

		Convey("CancelAll gives up after the grace period", func() {
			stuck := NewPool(func(ctx context.Context, fileID string, slot Slot) Result {
				<-release
				return Result{}
			}, 1)
			stuck.Dispatch("x", Slot{})

			So(stuck.CancelAll(20*time.Millisecond), ShouldBeFalse)
			close(release)
			So(stuck.CancelAll(time.Second), ShouldBeTrue)
		})
	})
}

func TestDebouncer(t *testing.T) {
	Convey("Given a debouncer", t, func() {
		var mu sync.Mutex
		var batches [][]int
		d := NewDebouncer(30*time.Millisecond, func(batch []int) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, batch)
		})

		Convey("A burst is delivered as one batch", func() {
			d.Add(1)
			d.Add(2, 3)
			d.Add(4)

			So(func() bool {
				deadline := time.Now().Add(time.Second)
				for time.Now().Before(deadline) {
					mu.Lock()
					n := len(batches)
					mu.Unlock()
					if n > 0 {
						return true
					}
					time.Sleep(5 * time.Millisecond)
				}
				return false
			}(), ShouldBeTrue)

			time.Sleep(60 * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			So(batches, ShouldResemble, [][]int{{1, 2, 3, 4}})
		})

		Convey("Flush delivers immediately and Stop discards", func() {
			d.Add(1)
			d.Flush()
			d.Add(2)
			d.Stop()
			time.Sleep(60 * time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			So(batches, ShouldResemble, [][]int{{1}})
		})
	})
}

type fakeExtractor struct {
	info  *extract.Info
	err   error
	flats atomic.Int32
	fulls atomic.Int32
}

func (f *fakeExtractor) Extract(context.Context, string) (*extract.Info, error) {
	f.fulls.Add(1)
	return f.info, f.err
}

func (f *fakeExtractor) ExtractFlat(context.Context, string) (*extract.Info, error) {
	f.flats.Add(1)
	return f.info, f.err
}

// fakeProbe behaves like a headless mpv that loads instantly.
type fakeProbe struct {
	mu         sync.Mutex
	handler    engine.Handler
	props      map[string]any
	commands   [][]any
	terminated bool
	startErr   error
}

func (p *fakeProbe) Start() error { return p.startErr }

func (p *fakeProbe) restart() {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		go h(engine.Restarted())
	}
}

func (p *fakeProbe) Play(string) (int64, error) {
	p.restart()
	return 1, nil
}

func (p *fakeProbe) Stop() error { return nil }

func (p *fakeProbe) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminated = true
	return nil
}

func (p *fakeProbe) Command(args ...any) error {
	p.mu.Lock()
	p.commands = append(p.commands, args)
	p.mu.Unlock()

	switch args[0] {
	case "seek":
		p.restart()
	case "screenshot-to-file":
		return filesystem.API().WriteFile(args[1].(string), []byte("frame"), 0o644)
	}
	return nil
}

func (p *fakeProbe) Get(name string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.props[name]
	if !ok {
		return nil, engine.ErrPropertyUnavailable
	}
	return v, nil
}

func (p *fakeProbe) Set(string, any) error      { return nil }
func (p *fakeProbe) Observe(...string) error    { return nil }
func (p *fakeProbe) Subscribe(h engine.Handler) { p.mu.Lock(); p.handler = h; p.mu.Unlock() }

func TestFetcher(t *testing.T) {
	Convey("Given a fetcher", t, func() {
		dir := filepath.Join(t.TempDir(), "thumbs")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/thumb.jpg" {
				_, _ = w.Write([]byte("jpeg"))
				return
			}
			http.NotFound(w, r)
		}))
		defer server.Close()

		extractor := &fakeExtractor{info: &extract.Info{
			Title:     "clip",
			Duration:  120,
			Width:     1280,
			Height:    720,
			Thumbnail: server.URL + "/thumb.jpg",
		}}
		probe := &fakeProbe{props: map[string]any{
			engine.PropDuration: 200.0,
			engine.PropWidth:    1920.0,
			engine.PropHeight:   1080.0,
		}}

		f := &Fetcher{
			Dir:             dir,
			Extractor:       extractor,
			DownloadTimeout: time.Second,
			NewProbe:        func() Probe { return probe },
		}

		Convey("A URL is extracted and its thumbnail downloaded", func() {
			r := f.Fetch(context.Background(), "https://example.com/watch?v=1", Slot{Index: 2, Row: 7})
			So(r.Err, ShouldBeNil)
			So(r.Slot, ShouldResemble, Slot{Index: 2, Row: 7})
			So(r.Resolution(), ShouldEqual, "1280x720")
			So(r.DurationText(), ShouldEqual, "02:00")
			So(r.Thumbnail, ShouldEqual, CachePath(dir, "https://example.com/watch?v=1", 2))

			Convey("The second fetch uses the cache and the flat extraction", func() {
				r := f.Fetch(context.Background(), "https://example.com/watch?v=1", Slot{Index: 2, Row: 7})
				So(r.Err, ShouldBeNil)
				So(r.Thumbnail, ShouldNotBeEmpty)
				So(extractor.fulls.Load(), ShouldEqual, 1)
				So(extractor.flats.Load(), ShouldEqual, 1)
			})
		})

		Convey("A failed download degrades to metadata only", func() {
			extractor.info.Thumbnail = server.URL + "/missing.jpg"
			r := f.Fetch(context.Background(), "https://example.com/watch?v=2", Slot{})
			So(r.Err, ShouldBeNil)
			So(r.Thumbnail, ShouldBeEmpty)
			So(r.Duration, ShouldEqual, 120)
		})

		Convey("An extraction failure is reported in the result", func() {
			extractor.err = extract.ErrNoStreams
			r := f.Fetch(context.Background(), "https://example.com/watch?v=3", Slot{Index: 4})
			So(errors.Is(r.Err, extract.ErrNoStreams), ShouldBeTrue)
			So(r.Slot.Index, ShouldEqual, 4)
		})

		Convey("A local file is probed in its own engine and captured early", func() {
			r := f.Fetch(context.Background(), "/videos/a.mkv", Slot{Index: 1})
			So(r.Err, ShouldBeNil)
			So(r.Duration, ShouldEqual, 200)
			So(r.Resolution(), ShouldEqual, "1920x1080")
			So(r.Thumbnail, ShouldEqual, CachePath(dir, "/videos/a.mkv", 1))
			So(probe.terminated, ShouldBeTrue)

			So(probe.commands[0], ShouldResemble, []any{"seek", 5.0, "absolute", "exact"})
			exists, _ := filesystem.API().Exists(r.Thumbnail)
			So(exists, ShouldBeTrue)
		})

		Convey("Short local files seek to a tenth of their length", func() {
			probe.props[engine.PropDuration] = 20.0
			r := f.Fetch(context.Background(), "/videos/short.mkv", Slot{})
			So(r.Err, ShouldBeNil)
			So(probe.commands[0], ShouldResemble, []any{"seek", 2.0, "absolute", "exact"})
		})

		Convey("A local file that cannot be probed fails", func() {
			probe.startErr = errors.New("mpv missing")
			r := f.Fetch(context.Background(), "/videos/b.mkv", Slot{})
			So(r.Err, ShouldNotBeNil)
		})
	})
}

func TestPrune(t *testing.T) {
	Convey("Given cached thumbnails of different ages", t, func() {
		dir := "/prune"
		fs := filesystem.API()
		old, fresh := filepath.Join(dir, "old_0.jpg"), filepath.Join(dir, "fresh_1.jpg")
		So(fs.WriteFile(old, []byte("x"), 0o644), ShouldBeNil)
		So(fs.WriteFile(fresh, []byte("x"), 0o644), ShouldBeNil)
		stale := time.Now().Add(-48 * time.Hour)
		So(fs.Chtimes(old, stale, stale), ShouldBeNil)

		Convey("Only files older than the ttl are removed", func() {
			n, err := Prune(dir, 24*time.Hour)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			exists, _ := fs.Exists(old)
			So(exists, ShouldBeFalse)
			exists, _ = fs.Exists(fresh)
			So(exists, ShouldBeTrue)
		})

		Convey("A zero ttl keeps everything", func() {
			n, err := Prune(dir, 0)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}
