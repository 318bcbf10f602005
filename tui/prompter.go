package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// resumeMsg asks the user whether to resume. The answer goes to reply.
type resumeMsg struct {
	message string
	reply   chan<- bool
}

// prompter implements session.Prompter by showing a modal and blocking the runner goroutine until it is answered.
type prompter struct {
	send func(tea.Msg)
	done <-chan struct{}
}

func (p *prompter) Confirm(message string) bool {
	reply := make(chan bool, 1)
	p.send(resumeMsg{message: message, reply: reply})

	select {
	case ok := <-reply:
		return ok
	case <-p.done:
		return false
	}
}
