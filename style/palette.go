// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import "github.com/charmbracelet/lipgloss"

// Standard ANSI colors, used by CLI output where the theme does not apply.
var (
	Red      = lipgloss.Color("1")
	Green    = lipgloss.Color("2")
	Yellow   = lipgloss.Color("3")
	Blue     = lipgloss.Color("4")
	Purple   = lipgloss.Color("5")
	Cyan     = lipgloss.Color("6")
	HiRed    = lipgloss.Color("9")
	HiPurple = lipgloss.Color("13")
	HiCyan   = lipgloss.Color("14")
	Orange   = lipgloss.Color("#ffb703")
	Gray     = lipgloss.Color("#808080")
)
