package session

import (
	"errors"
	"sync"

	"github.com/vidra-player/vidra/engine"
)

type setCall struct {
	name  string
	value any
}

// fakeEngine records commands and serves properties from a map.
type fakeEngine struct {
	mu sync.Mutex

	props      map[string]any
	commands   [][]any
	sets       []setCall
	played     []string
	entry      int64
	stops      int
	terminated bool
	observed   []string
	handler    engine.Handler
	failOn     map[string]error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		props:  map[string]any{},
		failOn: map[string]error{},
	}
}

// Play gives every successful load a new playlist entry id, like mpv.
func (f *fakeEngine) Play(target string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, target)
	if err := f.failOn["play"]; err != nil {
		return 0, err
	}
	f.entry++
	return f.entry, nil
}

func (f *fakeEngine) current() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entry
}

func (f *fakeEngine) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	delete(f.props, engine.PropTimePos)
	delete(f.props, engine.PropDuration)
	return nil
}

func (f *fakeEngine) Terminate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = true
	return nil
}

func (f *fakeEngine) Command(args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, args)
	if name, ok := args[0].(string); ok {
		return f.failOn[name]
	}
	return nil
}

func (f *fakeEngine) Get(name string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.props[name]
	if !ok {
		return nil, engine.ErrPropertyUnavailable
	}
	return v, nil
}

func (f *fakeEngine) Set(name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, setCall{name, value})
	return f.failOn["set "+name]
}

func (f *fakeEngine) Observe(names ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, names...)
	return nil
}

func (f *fakeEngine) Subscribe(h engine.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeEngine) emit(e engine.Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(e)
}

func (f *fakeEngine) setProps(pos, duration float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[engine.PropTimePos] = pos
	f.props[engine.PropDuration] = duration
}

func (f *fakeEngine) commandsNamed(name string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]any
	for _, c := range f.commands {
		if c[0] == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeEngine) setsOf(name string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, s := range f.sets {
		if s.name == name {
			out = append(out, s.value)
		}
	}
	return out
}

// memPositions is an in-memory position store.
type memPositions struct {
	saved map[string]float64
	err   error
}

func newMemPositions() *memPositions {
	return &memPositions{saved: map[string]float64{}}
}

func (m *memPositions) SavePosition(id string, seconds float64) error {
	if m.err != nil {
		return m.err
	}
	m.saved[id] = seconds
	return nil
}

func (m *memPositions) LoadPosition(id string) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.saved[id], nil
}

// scriptedPrompter answers with a fixed value and counts questions.
type scriptedPrompter struct {
	answer bool
	asked  []string
}

func (p *scriptedPrompter) Confirm(message string) bool {
	p.asked = append(p.asked, message)
	return p.answer
}

// recorder collects notifications.
type recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recorder) notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) finished() []PlaybackFinished {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PlaybackFinished
	for _, n := range r.got {
		if f, ok := n.(PlaybackFinished); ok {
			out = append(out, f)
		}
	}
	return out
}

func (r *recorder) count(match func(Notification) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.got {
		if match(got) {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")
