package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/network"
	"github.com/vidra-player/vidra/util"
)

const (
	probeTimeout  = 15 * time.Second
	probeInterval = 50 * time.Millisecond
	seekFraction  = 0.1
	maxSeek       = 5.0
)

// Probe is a throwaway engine owned by a single job.
type Probe interface {
	engine.Engine
	Start() error
}

// Fetcher resolves metadata and thumbnails.
type Fetcher struct {
	// Dir is the thumbnail cache directory.
	Dir string

	Extractor       extract.Extractor
	Client          *http.Client
	DownloadTimeout time.Duration

	// NewProbe creates the headless engine used for local files.
	NewProbe func() Probe
}

// NewFetcher creates a fetcher probing local files with the mpv binary.
func NewFetcher(dir, mpvBinary string, extractor extract.Extractor, client *http.Client, downloadTimeout time.Duration) *Fetcher {
	return &Fetcher{
		Dir:             dir,
		Extractor:       extractor,
		Client:          client,
		DownloadTimeout: downloadTimeout,
		NewProbe: func() Probe {
			return engine.NewHeadless(mpvBinary)
		},
	}
}

// Fetch resolves one row. Errors are reported in the result.
func (f *Fetcher) Fetch(ctx context.Context, fileID string, slot Slot) Result {
	result := Result{Slot: slot, FileID: fileID}

	var err error
	cache := CachePath(f.Dir, fileID, slot.Index)

	if exists, _ := filesystem.API().Exists(cache); exists {
		log.Debugf("loading cached thumbnail for %s", fileID)
		err = f.metadata(ctx, fileID, &result)
		result.Thumbnail = cache
	} else if IsURL(fileID) {
		err = f.remote(ctx, fileID, cache, &result)
	} else {
		err = f.local(ctx, fileID, cache, &result)
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Errorf("thumbnail for %s: %v", fileID, err)
		}
		result.Err = err
	}
	return result
}

// metadata is the fast path used when the thumbnail is already cached.
func (f *Fetcher) metadata(ctx context.Context, fileID string, result *Result) error {
	if !IsURL(fileID) {
		return f.probe(ctx, fileID, "", result)
	}

	if f.Extractor == nil {
		return errors.New("no extractor configured")
	}

	info, err := f.Extractor.ExtractFlat(ctx, fileID)
	if err != nil {
		return err
	}
	result.Duration, result.Width, result.Height = info.Duration, info.Width, info.Height
	return nil
}

func (f *Fetcher) remote(ctx context.Context, fileID, cache string, result *Result) error {
	if f.Extractor == nil {
		return errors.New("no extractor configured")
	}

	info, err := f.Extractor.Extract(ctx, fileID)
	if err != nil {
		return err
	}
	result.Duration, result.Width, result.Height = info.Duration, info.Width, info.Height

	if info.Thumbnail == "" {
		log.Debugf("no thumbnail for %s, metadata only", fileID)
		return nil
	}

	if err := network.Download(ctx, f.Client, info.Thumbnail, cache, f.DownloadTimeout); err != nil {
		log.Warnf("thumbnail download for %s failed, metadata only: %v", fileID, err)
		return nil
	}

	result.Thumbnail = cache
	return nil
}

func (f *Fetcher) local(ctx context.Context, fileID, cache string, result *Result) error {
	if err := filesystem.API().MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}

	if err := f.probe(ctx, fileID, cache, result); err != nil {
		return err
	}
	result.Thumbnail = cache
	return nil
}

// probe loads fileID into a throwaway engine, reads its properties and,
// when shot is set, writes a frame from min(10% of the duration, 5s) to it.
func (f *Fetcher) probe(ctx context.Context, fileID, shot string, result *Result) error {
	if f.NewProbe == nil {
		return errors.New("no probe configured")
	}

	p := f.NewProbe()
	if err := p.Start(); err != nil {
		return fmt.Errorf("start probe: %w", err)
	}

	terminate := sync.OnceFunc(func() { _ = p.Terminate() })
	defer terminate()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	// cancellation tears the engine down so pending commands fail fast
	go func() {
		<-ctx.Done()
		terminate()
	}()

	restarted := make(chan struct{}, 1)
	p.Subscribe(func(e engine.Event) {
		if e.Kind == engine.PlaybackRestart {
			select {
			case restarted <- struct{}{}:
			default:
			}
		}
	})

	if _, err := p.Play(fileID); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	if err := awaitRestart(ctx, restarted); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}

	v, err := engine.WaitFor(ctx, p, engine.PropDuration, probeInterval)
	if err != nil {
		return fmt.Errorf("wait for duration: %w", err)
	}
	result.Duration, _ = engine.Float(v)

	if w, err := p.Get(engine.PropWidth); err == nil {
		result.Width, _ = engine.Int(w)
	}
	if h, err := p.Get(engine.PropHeight); err == nil {
		result.Height, _ = engine.Int(h)
	}

	if shot == "" {
		return nil
	}
	if result.Width <= 0 {
		return errors.New("no video track")
	}

	at := util.Min(result.Duration*seekFraction, maxSeek)
	if err := p.Command("seek", at, "absolute", "exact"); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	if err := awaitRestart(ctx, restarted); err != nil {
		return fmt.Errorf("wait for seek: %w", err)
	}

	if err := p.Command("screenshot-to-file", shot, "video"); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

func awaitRestart(ctx context.Context, restarted <-chan struct{}) error {
	select {
	case <-restarted:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
