// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/vidra-player/vidra/style"
)

// statefulKeymap defines the keyboard interactions available within various application states.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	confirm, back,
	addFiles, openStream, showLibrary,
	remove, clear, filter, cycleTheme,
	up, down, left, right, top, bottom,
	yes, no,

	playPause, mute,
	seekForward, seekBackward,
	volumeUp, volumeDown,
	nextChapter, prevChapter,
	cycleSubtitle, cycleAudio, cycleVideo,
	nextInLibrary, prevInLibrary,
	cycleLoop, fullscreen,

	manual, showHelp key.Binding
}

// setState updates the active keymap configuration to match the specified application state.
func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	accent := func(s string) string { return style.Fg(style.Orange)(s) }

	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp(accent("enter"), accent("play")),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		addFiles: key.NewBinding(
			key.WithKeys("ctrl+o", "a"),
			key.WithHelp("ctrl+o", "add files"),
		),
		openStream: key.NewBinding(
			key.WithKeys("ctrl+n", "u"),
			key.WithHelp("ctrl+n", "open network stream"),
		),
		showLibrary: key.NewBinding(
			key.WithKeys("ctrl+p", "esc"),
			key.WithHelp("ctrl+p", "show library"),
		),
		remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove"),
		),
		clear: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "clear library"),
		),
		filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		cycleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next theme"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "prev page"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next page"),
		),
		top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		yes: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "resume"),
		),
		no: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "start over"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "play / pause"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute / unmute"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "seek forward"),
		),
		seekBackward: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "seek backward"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "volume down"),
		),
		nextChapter: key.NewBinding(
			key.WithKeys("alt+right"),
			key.WithHelp("alt+→", "next chapter"),
		),
		prevChapter: key.NewBinding(
			key.WithKeys("alt+left"),
			key.WithHelp("alt+←", "previous chapter"),
		),
		cycleSubtitle: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cycle subtitles"),
		),
		cycleAudio: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "cycle audio"),
		),
		cycleVideo: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "cycle video"),
		),
		nextInLibrary: key.NewBinding(
			key.WithKeys("ctrl+right", "N"),
			key.WithHelp("ctrl+→", "next in library"),
		),
		prevInLibrary: key.NewBinding(
			key.WithKeys("ctrl+left", "P"),
			key.WithHelp("ctrl+←", "previous in library"),
		),
		cycleLoop: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "cycle loop"),
		),
		fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle fullscreen"),
		),
		manual: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "mpv manual"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	to2 := func(a []key.Binding) ([]key.Binding, []key.Binding) {
		return a, a
	}

	switch k.state {
	case libraryState:
		return h(k.confirm, k.addFiles, k.openStream, k.filter, k.showHelp),
			h(k.confirm, k.addFiles, k.openStream, k.remove, k.clear, k.filter, k.cycleTheme, k.manual, k.quit)
	case filterState:
		return to2(h(withDescription(k.confirm, "apply"), withDescription(k.back, "reset")))
	case addFileState:
		return to2(h(withDescription(k.confirm, "add"), k.back))
	case openStreamState:
		return to2(h(withDescription(k.confirm, "open"), k.back))
	case extractingState:
		return to2(h(k.back, k.forceQuit))
	case playingState:
		return h(k.playPause, k.seekForward, k.seekBackward, k.volumeUp, k.volumeDown, k.showLibrary, k.showHelp),
			h(k.playPause, k.mute, k.seekForward, k.seekBackward, k.volumeUp, k.volumeDown,
				k.nextChapter, k.prevChapter, k.cycleSubtitle, k.cycleAudio, k.cycleVideo,
				k.nextInLibrary, k.prevInLibrary, k.cycleLoop, k.fullscreen, k.showLibrary, k.manual)
	case resumeState:
		return to2(h(k.yes, k.no))
	case noticeState:
		return to2(h(withDescription(k.confirm, "dismiss"), k.forceQuit))
	default:
		return to2(h())
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}

func (k *statefulKeymap) forList() list.KeyMap {
	return list.KeyMap{
		CursorUp:   k.up,
		CursorDown: k.down,
		NextPage:   k.right,
		PrevPage:   k.left,
		GoToStart:  k.top,
		GoToEnd:    k.bottom,
		ForceQuit:  k.forceQuit,
	}
}

func withDescription(k key.Binding, description string) key.Binding {
	return key.NewBinding(
		key.WithKeys(k.Keys()...),
		key.WithHelp(k.Help().Key, description),
	)
}
