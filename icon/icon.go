// Package icon provides a multi-variant rendering engine for UI symbols and feedback indicators.
//
// Icons can be displayed as emoji, nerd-font glyphs or plain ASCII depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/key"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a UI symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Warn
	Play
	Pause
	Muted
	Volume
	LoopOne
	LoopAll
	Video
	Audio
	Subtitle
	Chapter
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

func (d iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

var icons = map[Icon]iconDef{
	Success:  {"✅", "\uf00c", "+"},
	Fail:     {"❌", "\uf00d", "x"},
	Progress: {"⏳", "\uf110", "..."},
	Warn:     {"⚠️", "\uf071", "!"},
	Play:     {"▶️", "\uf04b", ">"},
	Pause:    {"⏸️", "\uf04c", "||"},
	Muted:    {"🔇", "\U000F075F", "mute"},
	Volume:   {"🔊", "\U000F057E", "vol"},
	LoopOne:  {"🔂", "\U000F0458", "[1]"},
	LoopAll:  {"🔁", "\U000F0456", "[*]"},
	Video:    {"📺", "\uf03d", "V"},
	Audio:    {"🔈", "\uf001", "A"},
	Subtitle: {"💬", "\U000F0A16", "S"},
	Chapter:  {"🔖", "\uf02e", "#"},
}

// Get returns the rendered string for an icon under the configured variant.
func Get(i Icon) string {
	return icons[i].get()
}
