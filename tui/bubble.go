// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/internal/ui"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/library"
	"github.com/vidra-player/vidra/session"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/thumbnail"
	"github.com/vidra-player/vidra/util"
)

// statefulBubble encapsulates the application state, including component models and workflow tracking.
type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]

	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	libraryC  list.Model
	filterC   textinput.Model
	fileC     textinput.Model
	streamC   textinput.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	ctx     context.Context
	deps    dependencies
	send    func(tea.Msg)
	options *Options

	library  *library.Library
	runner   *session.Runner
	pool     *thumbnail.Pool
	debounce *thumbnail.Debouncer[uint64]

	// filtered holds the library indices matching the filter, nil when unfiltered.
	filtered []int
	playing  nowPlaying

	// prompt is the unanswered resume question, if any.
	prompt     *resumeMsg
	extracting context.CancelFunc
	notice     string
	engineErr  error

	width, height int
}

func (b *statefulBubble) raiseNotice(format string, args ...any) {
	b.notice = fmt.Sprintf(format, args...)
	b.newState(noticeState)
}

// setState performs a synchronous transition of both the application workflow and its associated keymap.
func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState transitions to s, recording the previous state in the navigation history when appropriate.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	// transient states are never returned to
	if !lo.Contains([]state{
		extractingState,
		resumeState,
		noticeState,
		filterState,
	}, b.state) {
		b.statesHistory.Push(b.state)
	}

	b.setState(s)
}

// previousState restores the application to its immediate predecessor in the navigation stack.
func (b *statefulBubble) previousState() {
	if prev, ok := b.statesHistory.Pop(); ok {
		b.setState(prev)
		return
	}
	b.setState(libraryState)
}

// resize propagates terminal dimension changes to all child component models.
func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy - statusLines

	b.libraryC.SetSize(listWidth, lo.Max([]int{listHeight, 1}))
	b.libraryC.Help.Width = listWidth

	b.filterC.Width = listWidth
	b.fileC.Width = listWidth
	b.streamC.Width = listWidth
	b.progressC.Width = lo.Min([]int{listWidth, 80})

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

// applyTheme restyles the components after the theme changed.
func (b *statefulBubble) applyTheme() {
	t := style.Current()

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Accent).
		Foreground(t.Accent).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle.Foreground(t.Secondary)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(t.Text)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.Foreground(t.Subtext)
	b.libraryC.SetDelegate(delegate)

	b.libraryC.Styles.Title = lipgloss.NewStyle().Foreground(t.Base).Background(t.Accent).Padding(0, 1)
	b.spinnerC.Style = lipgloss.NewStyle().Foreground(t.Accent)
	b.progressC = progress.New(
		progress.WithGradient(string(t.Secondary), string(t.Accent)),
		progress.WithWidth(b.progressC.Width),
		progress.WithoutPercentage(),
	)
}

// newBubble performs a complete initialization of the application's primary UI model.
func newBubble(ctx context.Context, options *Options, deps dependencies, send func(tea.Msg)) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := &statefulBubble{
		statesHistory: util.Stack[state]{},
		keymap:        keymap,
		notifier:      &ui.Model{},
		ctx:           ctx,
		deps:          deps,
		send:          send,
		options:       options,
		library:       library.New(),
		playing:       newNowPlaying(),
	}

	coordinator := session.New(session.Options{
		Factory:   deps.factory,
		Positions: deps.store,
		Prompter:  &prompter{send: send, done: ctx.Done()},
		Notify: func(n session.Notification) {
			send(notificationMsg{n})
		},
		Policy: session.ConfiguredPolicy(),
	})
	bubble.runner = session.NewRunner(coordinator, session.DefaultQueueSize)

	if deps.fetch != nil {
		bubble.pool = thumbnail.NewPool(deps.fetch, 64)
		bubble.debounce = thumbnail.NewDebouncer(
			time.Duration(viper.GetInt(key.ThumbnailsDebounce))*time.Millisecond,
			func(ids []uint64) { send(dispatchMsg{ids: ids}) },
		)
	}

	makeInput := func(prompt, placeholder string) textinput.Model {
		input := textinput.New()
		input.Prompt = prompt
		input.Placeholder = placeholder
		return input
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot

	bubble.libraryC = list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	bubble.libraryC.KeyMap = keymap.forList()
	bubble.libraryC.Title = fmt.Sprintf("%s v%s", util.Capitalize(constant.App), constant.Version)
	bubble.libraryC.Styles.NoItems = paddingStyle
	bubble.libraryC.SetFilteringEnabled(false)
	bubble.libraryC.SetShowHelp(false)
	bubble.libraryC.SetShowPagination(true)
	bubble.libraryC.SetStatusBarItemName("file", "files")
	bubble.libraryC.StatusMessageLifetime = time.Hour * 999

	bubble.filterC = makeInput("Filter: ", "title")
	bubble.fileC = makeInput("Path: ", "file or directory")
	bubble.fileC.ShowSuggestions = true
	bubble.streamC = makeInput("URL: ", "https://")

	bubble.progressC = progress.New(progress.WithoutPercentage())
	bubble.applyTheme()

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(libraryState)
	return bubble
}

// close saves the playback position, stops the runner and abandons background jobs.
// It runs after the program exited.
func (b *statefulBubble) close(cancel context.CancelFunc) {
	b.answer(false)

	ctx, stop := context.WithTimeout(context.Background(), saveTimeout)
	b.runner.Do(ctx, func(c *session.Coordinator) { c.SavePosition() })
	stop()

	cancel()
	<-b.runner.Done()

	if b.extracting != nil {
		b.extracting()
	}
	if b.debounce != nil {
		b.debounce.Stop()
	}
	if b.pool != nil {
		b.pool.CancelAll(grace())
	}
}

func grace() time.Duration {
	return time.Duration(viper.GetInt(key.ThumbnailsGrace)) * time.Millisecond
}

// answer replies to a pending resume question.
func (b *statefulBubble) answer(ok bool) {
	if b.prompt == nil {
		return
	}
	b.prompt.reply <- ok
	b.prompt = nil
}

func matches(msg tea.KeyMsg, bindings ...bubblesKey.Binding) bool {
	return bubblesKey.Matches(msg, bindings...)
}
