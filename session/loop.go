package session

// LoopState is the three-way repeat mode.
type LoopState int

const (
	LoopOff LoopState = iota
	RepeatOne
	RepeatAll
)

// Next returns the state after one cycle step: off, one, all, off.
func (s LoopState) Next() LoopState {
	switch s {
	case LoopOff:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return LoopOff
	}
}

func (s LoopState) String() string {
	switch s {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// LoopFile is the engine loop-file value for the state.
// Only RepeatOne loops natively, RepeatAll advances through the library instead.
func (s LoopState) LoopFile() string {
	if s == RepeatOne {
		return "inf"
	}
	return "no"
}
