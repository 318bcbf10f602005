// Package library holds the playlist shown in the library view.
// Rows have stable ids so background results can be matched after the list changed.
package library

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/media"
	"github.com/vidra-player/vidra/thumbnail"
)

// ErrOutOfRange is returned for an index that does not address a row.
var ErrOutOfRange = errors.New("no such row")

// Status is the metadata state of a row.
type Status int

const (
	Pending Status = iota
	Ready
	Failed
)

// Row is one library entry.
type Row struct {
	ID     uint64
	FileID string
	Name   string

	Status     Status
	Duration   string
	Resolution string
	Thumbnail  string
	Err        string
}

// Library is the ordered playlist. It is not safe for concurrent use.
type Library struct {
	rows    []Row
	nextID  uint64
	current int

	// streams caches extraction results by file id, inserted on add and removed with the last row using them.
	streams map[string]*extract.Info
}

func New() *Library {
	return &Library{
		current: -1,
		streams: make(map[string]*extract.Info),
	}
}

// Add appends an entry. info is the extraction result for network entries, nil for local files.
func (l *Library) Add(fileID, name string, info *extract.Info) Row {
	if name == "" {
		name = displayName(fileID)
	}
	if info != nil {
		l.streams[fileID] = info
	}

	l.nextID++
	row := Row{
		ID:         l.nextID,
		FileID:     fileID,
		Name:       name,
		Status:     Pending,
		Duration:   "...",
		Resolution: "...",
	}
	l.rows = append(l.rows, row)

	log.Infof("added to library: %s", fileID)
	return row
}

func displayName(fileID string) string {
	if thumbnail.IsURL(fileID) {
		return fileID
	}
	return filepath.Base(fileID)
}

// Remove deletes the rows at the given indices. Invalid indices are ignored.
func (l *Library) Remove(indices ...int) []Row {
	drop := lo.SliceToMap(indices, func(i int) (int, struct{}) { return i, struct{}{} })

	var removed []Row
	kept := l.rows[:0]
	newCurrent := -1

	for i, row := range l.rows {
		if _, ok := drop[i]; ok {
			removed = append(removed, row)
			continue
		}
		if i == l.current {
			newCurrent = len(kept)
		}
		kept = append(kept, row)
	}

	// zero the tail so removed rows are not retained by the backing array
	for i := len(kept); i < len(l.rows); i++ {
		l.rows[i] = Row{}
	}
	l.rows = kept
	l.current = newCurrent

	for _, row := range removed {
		if !l.uses(row.FileID) {
			delete(l.streams, row.FileID)
		}
	}
	return removed
}

func (l *Library) uses(fileID string) bool {
	return lo.ContainsBy(l.rows, func(r Row) bool { return r.FileID == fileID })
}

// Clear removes every row.
func (l *Library) Clear() {
	l.rows = nil
	l.current = -1
	l.streams = make(map[string]*extract.Info)
}

func (l *Library) Len() int {
	return len(l.rows)
}

// Rows returns a copy of all rows.
func (l *Library) Rows() []Row {
	return append([]Row(nil), l.rows...)
}

// Row returns the row at index.
func (l *Library) Row(index int) (Row, bool) {
	if index < 0 || index >= len(l.rows) {
		return Row{}, false
	}
	return l.rows[index], true
}

// Slot snapshots the identity of the row at index for a background job.
func (l *Library) Slot(index int) (thumbnail.Slot, bool) {
	row, ok := l.Row(index)
	if !ok {
		return thumbnail.Slot{}, false
	}
	return thumbnail.Slot{Index: index, Row: row.ID}, true
}

// Streams returns the cached extraction result of a file id.
func (l *Library) Streams(fileID string) (*extract.Info, bool) {
	info, ok := l.streams[fileID]
	return info, ok
}

// Current is the index of the row playing last, -1 when none.
func (l *Library) Current() int {
	return l.current
}

// Play marks the row at index as current and builds its playback request.
// Network entries play their best video stream with the remaining streams as extra tracks.
func (l *Library) Play(index int) (media.Request, error) {
	row, ok := l.Row(index)
	if !ok {
		return media.Request{}, fmt.Errorf("play %d: %w", index, ErrOutOfRange)
	}

	info, ok := l.streams[row.FileID]
	if !ok {
		l.current = index
		return media.Request{Target: row.FileID}, nil
	}

	req, err := info.Request()
	if err != nil {
		log.Errorf("no video streams for %s", row.FileID)
		return media.Request{}, err
	}

	l.current = index
	req.FileID = row.FileID
	return req, nil
}

// HasNext reports whether Next would return a row.
func (l *Library) HasNext(loopAll bool) bool {
	_, ok := l.next(loopAll)
	return ok
}

func (l *Library) next(loopAll bool) (int, bool) {
	n := l.current + 1
	if n >= len(l.rows) {
		if loopAll && len(l.rows) > 0 {
			return 0, true
		}
		return 0, false
	}
	return n, true
}

// Next returns the index after the current row, wrapping to the first one when loopAll is set.
func (l *Library) Next(loopAll bool) (int, bool) {
	n, ok := l.next(loopAll)
	if !ok {
		log.Warn("no next entry to play")
	}
	return n, ok
}

// Previous returns the index before the current row, wrapping to the last one.
func (l *Library) Previous() (int, bool) {
	if len(l.rows) == 0 {
		return 0, false
	}

	p := l.current - 1
	if p < 0 {
		p = len(l.rows) - 1
	}
	return p, true
}

// Decision is what to do once a file played to its end.
type Decision struct {
	Advance bool
	Index   int
}

// OnPlaybackFinished advances through the library in loop all mode and returns to it otherwise.
func (l *Library) OnPlaybackFinished(loopAll bool) Decision {
	if !loopAll {
		return Decision{}
	}

	next, ok := l.Next(true)
	return Decision{Advance: ok, Index: next}
}

// Apply stores a background result in the row it was dispatched for.
// A result whose row was removed is dropped and Apply reports false.
func (l *Library) Apply(r thumbnail.Result) bool {
	index, ok := l.find(r.Slot)
	if !ok {
		log.Debugf("dropping thumbnail result for removed row %d", r.Slot.Row)
		return false
	}

	row := &l.rows[index]
	if r.Err != nil {
		row.Status = Failed
		row.Duration = "Error"
		row.Resolution = "Error"
		row.Err = r.Err.Error()
		return true
	}

	row.Status = Ready
	row.Duration = r.DurationText()
	row.Resolution = r.Resolution()
	row.Thumbnail = r.Thumbnail
	row.Err = ""
	return true
}

// find locates the row of a slot, first at its captured index then by id.
func (l *Library) find(s thumbnail.Slot) (int, bool) {
	if s.Index >= 0 && s.Index < len(l.rows) && l.rows[s.Index].ID == s.Row {
		return s.Index, true
	}

	_, index, ok := lo.FindIndexOf(l.rows, func(r Row) bool { return r.ID == s.Row })
	return index, ok
}

// Filter returns the indices of rows whose name fuzzy matches query, best matches first.
// An empty query matches every row in order.
func (l *Library) Filter(query string) []int {
	if query == "" {
		return lo.Range(len(l.rows))
	}

	names := lo.Map(l.rows, func(r Row, _ int) string { return r.Name })
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) int { return r.OriginalIndex })
}
