package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/key"
)

// DefaultTheme is used when the configured theme name is unknown.
const DefaultTheme = "Nord Dark"

// Theme is a named set of colors for the terminal interface.
type Theme struct {
	Name      string
	Base      lipgloss.Color
	Surface   lipgloss.Color
	Text      lipgloss.Color
	Subtext   lipgloss.Color
	Accent    lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// themes keeps registration order, which is also the cycling order.
var themes = []Theme{
	{
		Name: "Nord Dark", Base: "#2e3440", Surface: "#3b4252", Text: "#eceff4", Subtext: "#d8dee9",
		Accent: "#88c0d0", Secondary: "#81a1c1", Success: "#a3be8c", Warning: "#ebcb8b", Error: "#bf616a",
	},
	{
		Name: "Nord Light", Base: "#eceff4", Surface: "#e5e9f0", Text: "#2e3440", Subtext: "#4c566a",
		Accent: "#5e81ac", Secondary: "#81a1c1", Success: "#a3be8c", Warning: "#d08770", Error: "#bf616a",
	},
	{
		Name: "Catppuccin Mocha", Base: "#1e1e2e", Surface: "#313244", Text: "#cdd6f4", Subtext: "#a6adc8",
		Accent: "#cba6f7", Secondary: "#b4befe", Success: "#a6e3a1", Warning: "#f9e2af", Error: "#f38ba8",
	},
	{
		Name: "Gruvbox Dark", Base: "#282828", Surface: "#3c3836", Text: "#ebdbb2", Subtext: "#a89984",
		Accent: "#fabd2f", Secondary: "#83a598", Success: "#b8bb26", Warning: "#fe8019", Error: "#fb4934",
	},
	{
		Name: "Solarized Dark", Base: "#002b36", Surface: "#073642", Text: "#eee8d5", Subtext: "#93a1a1",
		Accent: "#268bd2", Secondary: "#2aa198", Success: "#859900", Warning: "#b58900", Error: "#dc322f",
	},
}

// ThemeNames returns the names of all available themes.
func ThemeNames() []string {
	return lo.Map(themes, func(t Theme, _ int) string { return t.Name })
}

// LookupTheme finds a theme by name.
func LookupTheme(name string) (Theme, bool) {
	return lo.Find(themes, func(t Theme) bool { return t.Name == name })
}

// Current returns the configured theme, or the default one when the name is unknown.
func Current() Theme {
	if t, ok := LookupTheme(viper.GetString(key.UITheme)); ok {
		return t
	}
	t, _ := LookupTheme(DefaultTheme)
	return t
}

// NextTheme returns the theme following name in cycling order.
func NextTheme(name string) Theme {
	_, idx, ok := lo.FindIndexOf(themes, func(t Theme) bool { return t.Name == name })
	if !ok {
		return themes[0]
	}
	return themes[(idx+1)%len(themes)]
}
