// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/style"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

// statusLines is the height reserved under the library list.
const statusLines = 3

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case libraryState, filterState:
		output = b.viewLibrary()
	case addFileState:
		output = b.viewInput("Add Files", b.fileC.View(), "Tab completes the path. A directory adds every video file in it.")
	case openStreamState:
		output = b.viewInput("Open Network Stream", b.streamC.View(), "Any URL yt-dlp understands.")
	case extractingState:
		output = b.viewExtracting()
	case playingState:
		output = b.viewPlaying()
	case resumeState:
		output = b.viewResume()
	case noticeState:
		output = b.viewNotice()
	default:
		output = "Unknown state"
	}

	return output
}

func (b *statefulBubble) fit(s string) string {
	if b.width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(b.width), "…")
}

func (b *statefulBubble) viewLibrary() string {
	lines := []string{b.libraryC.View()}

	switch {
	case b.state == filterState || b.filtered != nil:
		lines = append(lines, b.filterC.View())
	case b.playing.active():
		lines = append(lines, b.fit(style.Faint(b.nowPlayingTitle()+"  "+b.playing.clock())))
	default:
		lines = append(lines, "")
	}

	if b.engineErr != nil {
		lines = append(lines, b.fit(style.Fg(style.Current().Error)(icon.Get(icon.Fail)+" playback engine unavailable")))
	} else {
		lines = append(lines, b.notifier.View())
	}
	lines = append(lines, b.helpC.View(b.keymap))

	return listExtraPaddingStyle.Render(strings.Join(lines, "\n"))
}

func (b *statefulBubble) nowPlayingTitle() string {
	if row, ok := b.library.Row(b.library.Current()); ok && row.FileID == b.playing.fileID {
		return row.Name
	}
	return b.playing.fileID
}

func (b *statefulBubble) viewInput(title, input, hint string) string {
	return b.renderLines(true, []string{
		style.Title(title),
		"",
		input,
		"",
		style.Faint(hint),
	})
}

func (b *statefulBubble) viewExtracting() string {
	return b.renderLines(true, []string{
		style.Title("Open Network Stream"),
		"",
		b.fit(b.spinnerC.View() + " Extracting streams from " + b.streamC.Value()),
	})
}

func (b *statefulBubble) viewPlaying() string {
	t := style.Current()

	lines := []string{
		style.Title("Now Playing"),
		"",
		b.fit(style.Fg(t.Accent)(icon.Get(icon.Progress) + " " + b.nowPlayingTitle())),
		"",
		b.progressC.ViewAs(b.playing.progress()) + "  " + b.playing.clock(),
		"",
		b.fit(b.playing.status()),
		b.fit(style.Fg(t.Subtext)(b.playing.tracksLine())),
	}
	if chapter := b.playing.chapterLine(); chapter != "" {
		lines = append(lines, b.fit(style.Fg(t.Subtext)(chapter)))
	}
	lines = append(lines, "", b.notifier.View())

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewResume() string {
	var question string
	if b.prompt != nil {
		question = b.prompt.message
	}

	return b.renderLines(true, []string{
		style.Title("Resume"),
		"",
		b.loadingTitle(),
		"",
		style.Bold(question),
	})
}

// loadingTitle names the row being loaded, which is not yet the session file.
func (b *statefulBubble) loadingTitle() string {
	if row, ok := b.library.Row(b.library.Current()); ok {
		return b.fit(style.Fg(style.Current().Accent)(row.Name))
	}
	return ""
}

func (b *statefulBubble) viewNotice() string {
	body := wrap.String(b.notice, b.width)
	return b.renderLines(true, []string{
		style.ErrorTitle("Notice"),
		"",
		icon.Get(icon.Warn) + " " + body,
	})
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
