// Package ui provides internal state management and rendering utilities for ephemeral terminal notifications.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidra-player/vidra/style"
)

// Lifetime is how long a notification stays on screen.
const Lifetime = 3 * time.Second

// Level selects the color of a notification.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

// Message is a notification request. Send it to the program or return it from a command.
type Message struct {
	Text  string
	Level Level
}

// ClearNotificationMsg resets the notification it was scheduled for.
type ClearNotificationMsg struct {
	seq int
}

// Notify returns a command that shows text.
func Notify(level Level, text string) tea.Cmd {
	return func() tea.Msg {
		return Message{Text: text, Level: level}
	}
}

// Model encapsulates the state for displaying non-blocking terminal alerts.
type Model struct {
	current Message
	seq     int
}

// Update processes incoming messages to modify the notification state.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Message:
		m.current = msg
		m.seq++
		seq := m.seq
		return tea.Tick(Lifetime, func(time.Time) tea.Msg {
			return ClearNotificationMsg{seq: seq}
		})
	case ClearNotificationMsg:
		// a newer notification owns the line
		if msg.seq == m.seq {
			m.current = Message{}
		}
	}
	return nil
}

// Text returns the visible notification, empty when there is none.
func (m *Model) Text() string {
	return m.current.Text
}

// View renders the notification line in the active theme.
func (m *Model) View() string {
	if m.current.Text == "" {
		return ""
	}

	t := style.Current()
	color := t.Subtext
	switch m.current.Level {
	case Warn:
		color = t.Warning
	case Error:
		color = t.Error
	}
	return style.Fg(color)(m.current.Text)
}
