// Package tui provides the primary terminal user interface implementation.
package tui

type state int

const (
	libraryState state = iota
	filterState
	addFileState
	openStreamState
	extractingState
	playingState
	resumeState
	noticeState
)
