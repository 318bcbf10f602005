// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/internal/ui"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/media"
	"github.com/vidra-player/vidra/session"
)

// Init adds the file given on the command line and starts listening for background results.
func (b *statefulBubble) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, b.waitForResult()}

	if b.options.File != "" {
		first := b.library.Len()
		cmds = append(cmds, b.addPath(b.options.File))
		if b.library.Len() > first {
			cmds = append(cmds, b.play(first))
		}
	}

	if b.options.Notice != "" {
		b.raiseNotice("%s", b.options.Notice)
	}

	return tea.Batch(cmds...)
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, cmd
	case notificationMsg:
		return b, tea.Batch(cmd, b.onNotification(msg.Notification))
	case resumeMsg:
		b.answer(false)
		b.prompt = &msg
		b.newState(resumeState)
		return b, cmd
	case dispatchMsg:
		b.dispatchThumbnails(msg.ids)
		return b, cmd
	case resultMsg:
		var refresh tea.Cmd
		if b.library.Apply(msg.Result) {
			refresh = b.refreshList()
		}
		return b, tea.Batch(cmd, refresh, b.waitForResult())
	case streamMsg:
		return b, tea.Batch(cmd, b.onStream(msg))
	case loadFailedMsg:
		b.onLoadFailed(msg.err)
		return b, cmd
	case configChangedMsg:
		b.applyTheme()
		log.SetLevel(viper.GetString(key.LogsLevel))
		return b, tea.Batch(cmd, b.refreshList())
	case tea.KeyMsg:
		if matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
		if matches(msg, b.keymap.manual) {
			return b, openManual
		}
	}

	var stateCmd tea.Cmd
	switch b.state {
	case libraryState:
		stateCmd = b.updateLibrary(msg)
	case filterState:
		stateCmd = b.updateFilter(msg)
	case addFileState:
		stateCmd = b.updateAddFile(msg)
	case openStreamState:
		stateCmd = b.updateOpenStream(msg)
	case extractingState:
		stateCmd = b.updateExtracting(msg)
	case playingState:
		stateCmd = b.updatePlaying(msg)
	case resumeState:
		stateCmd = b.updateResume(msg)
	case noticeState:
		stateCmd = b.updateNotice(msg)
	}

	return b, tea.Batch(cmd, stateCmd)
}

func (b *statefulBubble) updateLibrary(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(msg, b.keymap.quit):
			return tea.Quit
		case matches(msg, b.keymap.confirm):
			if item, ok := b.selected(); ok {
				return b.play(item.index)
			}
			return nil
		case matches(msg, b.keymap.addFiles):
			return b.startAddFile()
		case matches(msg, b.keymap.openStream):
			b.streamC.SetValue("")
			b.newState(openStreamState)
			return b.streamC.Focus()
		case matches(msg, b.keymap.remove):
			return b.removeSelected()
		case matches(msg, b.keymap.clear):
			return b.clearLibrary()
		case matches(msg, b.keymap.filter):
			b.newState(filterState)
			return b.filterC.Focus()
		case matches(msg, b.keymap.cycleTheme):
			return b.cycleTheme()
		case matches(msg, b.keymap.showHelp):
			b.helpC.ShowAll = !b.helpC.ShowAll
			return nil
		case matches(msg, b.keymap.back):
			if b.filtered != nil {
				b.filterC.SetValue("")
				b.filtered = nil
				return b.refreshList()
			}
			return nil
		}
	}

	var cmd tea.Cmd
	b.libraryC, cmd = b.libraryC.Update(msg)
	return cmd
}

func (b *statefulBubble) startAddFile() tea.Cmd {
	last, err := b.deps.store.LoadLastPath()
	if err != nil {
		log.Warnf("loading last open path: %v", err)
	}
	if last != "" && !strings.HasSuffix(last, "/") {
		last += "/"
	}

	b.fileC.SetValue(last)
	b.fileC.CursorEnd()
	b.fileC.SetSuggestions(suggestPaths(last))
	b.newState(addFileState)
	return b.fileC.Focus()
}

func (b *statefulBubble) updateFilter(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(msg, b.keymap.confirm):
			b.filterC.Blur()
			b.previousState()
			return nil
		case matches(msg, b.keymap.back):
			b.filterC.Blur()
			b.filterC.SetValue("")
			b.filtered = nil
			b.previousState()
			return b.refreshList()
		}
	}

	var cmd tea.Cmd
	b.filterC, cmd = b.filterC.Update(msg)
	b.refilter()
	b.libraryC.Select(0)
	return tea.Batch(cmd, b.refreshList())
}

func (b *statefulBubble) updateAddFile(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(msg, b.keymap.confirm):
			path := b.fileC.Value()
			b.fileC.Blur()
			b.previousState()
			if strings.TrimSpace(path) == "" {
				return nil
			}
			return b.addPath(path)
		case matches(msg, b.keymap.back):
			b.fileC.Blur()
			b.previousState()
			return nil
		}
	}

	before := b.fileC.Value()
	var cmd tea.Cmd
	b.fileC, cmd = b.fileC.Update(msg)
	if value := b.fileC.Value(); value != before {
		b.fileC.SetSuggestions(suggestPaths(value))
	}
	return cmd
}

func (b *statefulBubble) updateOpenStream(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(msg, b.keymap.confirm):
			url := strings.TrimSpace(b.streamC.Value())
			b.streamC.Blur()
			if url == "" {
				b.previousState()
				return nil
			}
			b.setState(extractingState)
			return tea.Batch(b.spinnerC.Tick, b.extractStream(url))
		case matches(msg, b.keymap.back):
			b.streamC.Blur()
			b.previousState()
			return nil
		}
	}

	var cmd tea.Cmd
	b.streamC, cmd = b.streamC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateExtracting(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if matches(msg, b.keymap.back) {
			if b.extracting != nil {
				b.extracting()
				b.extracting = nil
			}
			b.previousState()
			return ui.Notify(ui.Warn, "Stream extraction cancelled")
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return cmd
	}
	return nil
}

func (b *statefulBubble) updatePlaying(m tea.Msg) tea.Cmd {
	msg, ok := m.(tea.KeyMsg)
	if !ok {
		return nil
	}

	seek := viper.GetFloat64(key.PlayerSeekStep)
	volume := viper.GetInt(key.PlayerVolumeStep)
	run := func(cmd session.Command) tea.Cmd {
		b.submit(cmd)
		return nil
	}

	switch {
	case matches(msg, b.keymap.quit):
		return tea.Quit
	case matches(msg, b.keymap.showLibrary):
		return b.stopPlayback()
	case matches(msg, b.keymap.playPause):
		return run(func(c *session.Coordinator) { c.TogglePause() })
	case matches(msg, b.keymap.mute):
		return run(func(c *session.Coordinator) { c.ToggleMute() })
	case matches(msg, b.keymap.nextChapter):
		return run(func(c *session.Coordinator) { c.NextChapter() })
	case matches(msg, b.keymap.prevChapter):
		return run(func(c *session.Coordinator) { c.PrevChapter() })
	case matches(msg, b.keymap.nextInLibrary):
		return b.skip(true)
	case matches(msg, b.keymap.prevInLibrary):
		return b.skip(false)
	case matches(msg, b.keymap.seekForward):
		return run(func(c *session.Coordinator) { c.SeekRelative(seek) })
	case matches(msg, b.keymap.seekBackward):
		return run(func(c *session.Coordinator) { c.SeekRelative(-seek) })
	case matches(msg, b.keymap.volumeUp):
		return run(func(c *session.Coordinator) { c.AddVolume(volume) })
	case matches(msg, b.keymap.volumeDown):
		return run(func(c *session.Coordinator) { c.AddVolume(-volume) })
	case matches(msg, b.keymap.cycleSubtitle):
		return run(func(c *session.Coordinator) { c.CycleTrack(media.Subtitle) })
	case matches(msg, b.keymap.cycleAudio):
		return run(func(c *session.Coordinator) { c.CycleTrack(media.Audio) })
	case matches(msg, b.keymap.cycleVideo):
		return run(func(c *session.Coordinator) { c.CycleTrack(media.Video) })
	case matches(msg, b.keymap.cycleLoop):
		return run(func(c *session.Coordinator) { c.CycleLoopState() })
	case matches(msg, b.keymap.fullscreen):
		return run(func(c *session.Coordinator) { c.ToggleFullscreen() })
	case matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}
	return nil
}

func (b *statefulBubble) updateResume(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case matches(msg, b.keymap.yes):
			b.answer(true)
			b.previousState()
		case matches(msg, b.keymap.no):
			b.answer(false)
			b.previousState()
		}
	}
	return nil
}

func (b *statefulBubble) updateNotice(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && matches(msg, b.keymap.confirm, b.keymap.back) {
		b.notice = ""
		b.previousState()
	}
	return nil
}
