package session

import (
	"fmt"

	"github.com/samber/mo"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/util"
)

const (
	// DefaultResumeThreshold is the saved position at or below which no resume is offered.
	DefaultResumeThreshold = 10.0

	// DefaultNearEnd is the distance from the end within which the saved position is reset.
	DefaultNearEnd = 5.0
)

// Prompter asks the user a yes/no question. Confirm blocks until answered.
type Prompter interface {
	Confirm(message string) bool
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(message string) bool

func (f PrompterFunc) Confirm(message string) bool {
	return f(message)
}

// Positions persists playback positions by file id.
type Positions interface {
	SavePosition(fileID string, seconds float64) error
	LoadPosition(fileID string) (float64, error)
}

// Policy decides when positions are saved and when resuming is offered.
type Policy struct {
	Threshold float64
	NearEnd   float64

	// Ask prompts before resuming. When false the saved position is used without asking.
	Ask bool
}

// DefaultPolicy returns the policy with the default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Threshold: DefaultResumeThreshold,
		NearEnd:   DefaultNearEnd,
		Ask:       true,
	}
}

// Preflight returns the position playback of fileID should start from, if any.
func (p Policy) Preflight(fileID string, loop LoopState, store Positions, prompter Prompter) mo.Option[float64] {
	if loop == RepeatAll || store == nil {
		return mo.None[float64]()
	}

	saved, err := store.LoadPosition(fileID)
	if err != nil {
		log.Errorf("load position of %s: %v", fileID, err)
		return mo.None[float64]()
	}

	if saved <= p.Threshold {
		return mo.None[float64]()
	}

	if !p.Ask {
		return mo.Some(saved)
	}

	if prompter == nil || !prompter.Confirm(fmt.Sprintf("Resume from %s?", util.FormatTime(saved))) {
		return mo.None[float64]()
	}
	return mo.Some(saved)
}

// SaveValue returns the position to persist for a file stopped at pos.
// Within NearEnd of the end it is reset to 0, past Threshold it is pos, otherwise nothing is written.
func (p Policy) SaveValue(pos float64, duration mo.Option[float64]) mo.Option[float64] {
	if d, ok := duration.Get(); ok && d > 0 && d-pos < p.NearEnd {
		return mo.Some(0.0)
	}
	if pos > p.Threshold {
		return mo.Some(pos)
	}
	return mo.None[float64]()
}
