// Package history persists playback positions and the last opened directory.
package history

import (
	"path/filepath"
	"sync"

	"github.com/metafates/gache"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/where"
)

// State is small UI state kept between runs.
type State struct {
	LastOpenPath string `json:"last_open_path"`
}

// Store reads and writes positions keyed by file id.
// Every write replaces the whole file, so a record is never partially written.
type Store struct {
	mu        sync.Mutex
	positions *gache.Cache[map[string]float64]
	state     *gache.Cache[*State]
}

// New creates a store backed by the given files.
func New(positionsPath, statePath string) *Store {
	return &Store{
		positions: gache.New[map[string]float64](&gache.Options{
			Path:       positionsPath,
			FileSystem: &filesystem.GacheFs{},
		}),
		state: gache.New[*State](&gache.Options{
			Path:       statePath,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
)

// Default returns the store under the config directory.
func Default() *Store {
	defaultOnce.Do(func() {
		defaultStore = New(where.Positions(), where.State())
	})
	return defaultStore
}

// Positions returns every saved position.
func (s *Store) Positions() (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPositions()
}

func (s *Store) loadPositions() (map[string]float64, error) {
	cached, expired, err := s.positions.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]float64), nil
	}
	return cached, nil
}

// SavePosition upserts the position of a file.
func (s *Store) SavePosition(fileID string, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.loadPositions()
	if err != nil {
		return err
	}

	saved[fileID] = seconds
	return s.positions.Set(saved)
}

// LoadPosition returns the saved position of a file, 0 when none was saved.
func (s *Store) LoadPosition(fileID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.loadPositions()
	if err != nil {
		return 0, err
	}
	return saved[fileID], nil
}

// Forget removes the saved position of a file.
func (s *Store) Forget(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.loadPositions()
	if err != nil {
		return err
	}

	delete(saved, fileID)
	return s.positions.Set(saved)
}

// SaveLastPath remembers the directory containing path.
func (s *Store) SaveLastPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := path
	if info, err := filesystem.API().Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}

	return s.state.Set(&State{LastOpenPath: dir})
}

// LoadLastPath returns the last remembered directory, empty when unknown.
func (s *Store) LoadLastPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, expired, err := s.state.Get()
	if err != nil {
		return "", err
	}
	if expired || cached == nil {
		return "", nil
	}
	return cached.LastOpenPath, nil
}
