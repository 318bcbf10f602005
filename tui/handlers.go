// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/vidra-player/vidra/config"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/internal/ui"
	"github.com/vidra-player/vidra/library"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/open"
	"github.com/vidra-player/vidra/session"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/thumbnail"
	"github.com/vidra-player/vidra/util"
)

type (
	notificationMsg struct{ session.Notification }

	// dispatchMsg carries a debounced batch of rows waiting for metadata.
	dispatchMsg struct{ ids []uint64 }

	resultMsg struct{ thumbnail.Result }

	streamMsg struct {
		url  string
		info *extract.Info
		err  error
	}

	loadFailedMsg struct{ err error }

	configChangedMsg struct{}
)

func (b *statefulBubble) submit(cmd session.Command) {
	if !b.runner.Submit(cmd) {
		log.Warn("playback session is not running")
	}
}

func (b *statefulBubble) refreshList() tea.Cmd {
	rows := b.library.Rows()
	indices := b.filtered
	if indices == nil {
		indices = lo.Range(len(rows))
	}

	current := b.library.Current()
	items := make([]list.Item, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(rows) {
			continue
		}
		items = append(items, &listItem{
			row:     rows[i],
			index:   i,
			playing: b.playing.active() && i == current,
		})
	}

	cmd := b.libraryC.SetItems(items)
	if n := len(items); n > 0 && b.libraryC.Index() >= n {
		b.libraryC.Select(n - 1)
	}
	return cmd
}

// refilter recomputes the filter after the library changed.
func (b *statefulBubble) refilter() {
	if query := b.filterC.Value(); query != "" {
		b.filtered = b.library.Filter(query)
	} else {
		b.filtered = nil
	}
}

func (b *statefulBubble) selected() (*listItem, bool) {
	item, ok := b.libraryC.SelectedItem().(*listItem)
	return item, ok
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// suggestPaths completes the path typed so far with subdirectories and video files.
func suggestPaths(value string) []string {
	dir := value
	if !strings.HasSuffix(value, string(filepath.Separator)) {
		dir = filepath.Dir(value)
	}

	entries, err := afero.ReadDir(filesystem.API(), expandHome(dir))
	if err != nil {
		return nil
	}

	var suggestions []string
	for _, entry := range entries {
		name := filepath.Join(dir, entry.Name())
		switch {
		case strings.HasPrefix(entry.Name(), "."):
		case entry.IsDir():
			suggestions = append(suggestions, name+string(filepath.Separator))
		case library.IsVideo(entry.Name()):
			suggestions = append(suggestions, name)
		}
	}
	return suggestions
}

// addPath adds a file, or every video file of a directory, to the library.
func (b *statefulBubble) addPath(path string) tea.Cmd {
	path = expandHome(strings.TrimSpace(path))

	info, err := filesystem.API().Stat(path)
	if err != nil {
		log.Warnf("cannot add %s: %v", path, err)
		b.raiseNotice("File not found: %s", path)
		return nil
	}

	files := []string{path}
	if info.IsDir() {
		if files, err = library.VideoFiles(path); err != nil {
			log.Error(err)
			b.raiseNotice("Cannot read %s: %v", path, err)
			return nil
		}
		if len(files) == 0 {
			b.raiseNotice("No video files in %s", path)
			return nil
		}
	}

	if err := b.deps.store.SaveLastPath(path); err != nil {
		log.Warnf("saving last open path: %v", err)
	}

	rows := lo.Map(files, func(file string, _ int) library.Row {
		return b.library.Add(file, "", nil)
	})
	b.schedule(rows...)
	b.refilter()

	return tea.Batch(
		b.refreshList(),
		ui.Notify(ui.Info, "Added "+util.Quantify(len(rows), "file", "files")),
	)
}

// schedule queues rows for background metadata. Rows added in quick succession are dispatched together.
func (b *statefulBubble) schedule(rows ...library.Row) {
	if b.debounce == nil {
		return
	}
	b.debounce.Add(lo.Map(rows, func(row library.Row, _ int) uint64 { return row.ID })...)
}

func (b *statefulBubble) indexOf(id uint64) (int, bool) {
	_, index, ok := lo.FindIndexOf(b.library.Rows(), func(row library.Row) bool {
		return row.ID == id
	})
	return index, ok
}

// dispatchThumbnails starts a job per row still in the library.
func (b *statefulBubble) dispatchThumbnails(ids []uint64) {
	if b.pool == nil {
		return
	}

	for _, id := range ids {
		index, ok := b.indexOf(id)
		if !ok {
			continue
		}
		row, _ := b.library.Row(index)
		slot, _ := b.library.Slot(index)
		b.pool.Dispatch(row.FileID, slot)
	}
}

func (b *statefulBubble) waitForResult() tea.Cmd {
	if b.pool == nil {
		return nil
	}

	results, done := b.pool.Results(), b.ctx.Done()
	return func() tea.Msg {
		select {
		case r := <-results:
			return resultMsg{r}
		case <-done:
			return nil
		}
	}
}

func (b *statefulBubble) extractStream(url string) tea.Cmd {
	ctx, cancel := context.WithCancel(b.ctx)
	b.extracting = cancel
	extractor := b.deps.extractor

	return func() tea.Msg {
		info, err := extractor.Extract(ctx, url)
		return streamMsg{url: url, info: info, err: err}
	}
}

func (b *statefulBubble) onStream(msg streamMsg) tea.Cmd {
	if b.extracting != nil {
		b.extracting()
		b.extracting = nil
	}

	if b.state != extractingState {
		log.Debugf("dropping extraction of %s", msg.url)
		return nil
	}

	switch {
	case errors.Is(msg.err, extract.ErrNoStreams):
		b.raiseNotice("No streams found for %s", msg.url)
		return nil
	case msg.err != nil:
		log.Error(msg.err)
		b.raiseNotice("Could not open stream: %v", msg.err)
		return nil
	}

	b.previousState()
	row := b.library.Add(msg.url, msg.info.Title, msg.info)
	b.schedule(row)
	b.refilter()

	index, _ := b.indexOf(row.ID)
	return b.play(index)
}

// play hands the row at index to the session.
func (b *statefulBubble) play(index int) tea.Cmd {
	req, err := b.library.Play(index)
	if err != nil {
		if errors.Is(err, extract.ErrNoStreams) {
			b.raiseNotice("No streams found")
		} else {
			b.raiseNotice("Cannot play: %v", err)
		}
		return nil
	}

	send := b.send
	b.submit(func(c *session.Coordinator) {
		if err := c.Load(req, true); err != nil {
			send(loadFailedMsg{err: err})
		}
	})

	return b.refreshList()
}

func (b *statefulBubble) onLoadFailed(err error) {
	// the engine failure was already reported
	if errors.Is(err, engine.ErrNotRunning) && b.engineErr != nil {
		return
	}
	b.raiseNotice("Cannot play: %v", err)
}

// stopPlayback saves the position, stops the engine and shows the library.
func (b *statefulBubble) stopPlayback() tea.Cmd {
	b.submit(func(c *session.Coordinator) { c.StopAndSave() })
	b.playing.stopped()
	b.statesHistory.Clear()
	b.setState(libraryState)
	return b.refreshList()
}

func (b *statefulBubble) onNotification(n session.Notification) tea.Cmd {
	b.playing.apply(n)

	switch n := n.(type) {
	case session.ControlsRequested:
		if b.state != noticeState {
			b.newState(playingState)
		}
	case session.FileChanged:
		return b.refreshList()
	case session.PlaybackFinished:
		decision := b.library.OnPlaybackFinished(n.LoopAll)
		if decision.Advance {
			return b.play(decision.Index)
		}
		return b.stopPlayback()
	case session.EngineFailed:
		b.engineErr = n.Err
		b.raiseNotice("The playback engine could not be started: %v", n.Err)
	}

	return nil
}

func (b *statefulBubble) skip(next bool) tea.Cmd {
	var (
		index int
		ok    bool
	)
	if next {
		index, ok = b.library.Next(b.playing.loop == session.RepeatAll)
	} else {
		index, ok = b.library.Previous()
	}

	if !ok {
		return ui.Notify(ui.Warn, "Nothing to play")
	}
	return b.play(index)
}

func (b *statefulBubble) removeSelected() tea.Cmd {
	item, ok := b.selected()
	if !ok {
		return nil
	}

	removed := b.library.Remove(item.index)
	b.refilter()

	return tea.Batch(
		b.refreshList(),
		ui.Notify(ui.Info, "Removed "+util.Quantify(len(removed), "file", "files")),
	)
}

// clearLibrary empties the library. Running jobs get a grace period, results arriving later are dropped.
func (b *statefulBubble) clearLibrary() tea.Cmd {
	b.library.Clear()
	b.filterC.SetValue("")
	b.filtered = nil

	var cancel tea.Cmd
	if b.pool != nil {
		b.debounce.Stop()
		pool, g := b.pool, grace()
		cancel = func() tea.Msg {
			pool.CancelAll(g)
			return nil
		}
	}

	return tea.Batch(b.refreshList(), cancel, ui.Notify(ui.Info, "Library cleared"))
}

func (b *statefulBubble) cycleTheme() tea.Cmd {
	next := style.NextTheme(style.Current().Name)

	// the theme applies even when it could not be persisted
	if err := config.SaveTheme(next.Name); err != nil {
		log.Errorf("saving theme: %v", err)
		b.applyTheme()
		return ui.Notify(ui.Warn, "Theme "+next.Name+" (not saved)")
	}

	b.applyTheme()
	return ui.Notify(ui.Info, "Theme "+next.Name)
}

func openManual() tea.Msg {
	if err := open.Start(constant.ManualURL); err != nil {
		log.Error(err)
		return ui.Message{Text: "Cannot open " + constant.ManualURL, Level: ui.Error}
	}
	return nil
}
