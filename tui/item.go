// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/library"
	"github.com/vidra-player/vidra/style"
)

// listItem implements the list.Item interface for one library row.
type listItem struct {
	row library.Row

	// index is the row position in the library, which differs from the list position while filtering.
	index   int
	playing bool
}

func (t *listItem) getMark() string {
	switch t.row.Status {
	case library.Ready:
		if t.row.Thumbnail != "" {
			return style.Fg(style.Current().Success)(icon.Get(icon.Success))
		}
	case library.Failed:
		return style.Fg(style.Current().Error)(icon.Get(icon.Fail))
	case library.Pending:
		return style.Faint(icon.Get(icon.Progress))
	}
	return ""
}

// Title retrieves the primary display text for the list item.
func (t *listItem) Title() string {
	var sb strings.Builder

	if t.playing {
		sb.WriteString(icon.Get(icon.Play))
		sb.WriteString(" ")
	}
	sb.WriteString(t.row.Name)

	if mark := t.getMark(); mark != "" {
		sb.WriteString(" ")
		sb.WriteString(mark)
	}

	return sb.String()
}

// Description retrieves the secondary metadata for the list item.
func (t *listItem) Description() string {
	parts := []string{t.row.Duration, t.row.Resolution}
	if t.row.Status == library.Failed && t.row.Err != "" {
		parts = append(parts, style.Fg(style.Current().Error)(t.row.Err))
	}
	if viper.GetBool(key.UIShowURLs) && t.row.FileID != t.row.Name {
		parts = append(parts, style.Faint(t.row.FileID))
	}

	return strings.Join(parts, " • ")
}

// FilterValue returns the row name. Filtering itself is done by the library.
func (t *listItem) FilterValue() string {
	return t.row.Name
}
