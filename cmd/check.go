package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/style"
)

// installHints maps a dependency to its install command per platform.
var installHints = map[string]map[string]string{
	"mpv": {
		constant.Darwin:  "brew install mpv",
		constant.Linux:   "sudo apt install mpv",
		constant.Windows: "scoop install mpv",
		constant.Android: "pkg install mpv",
	},
	"yt-dlp": {
		constant.Darwin:  "brew install yt-dlp",
		constant.Linux:   "pipx install yt-dlp",
		constant.Windows: "scoop install yt-dlp",
		constant.Android: "pip install yt-dlp",
	},
}

// CheckDependencies exits when mpv is missing and warns when yt-dlp is.
func CheckDependencies() {
	player := viper.GetString(key.PlayerBinary)
	if _, err := exec.LookPath(player); err != nil {
		printMissingDependency(player, "mpv", true)
		os.Exit(1)
	}

	extractor := viper.GetString(key.ExtractBinary)
	if _, err := exec.LookPath(extractor); err != nil {
		log.Warnf("%s not found, network streams are unavailable", extractor)
		printMissingDependency(extractor, "yt-dlp", false)
	}
}

func printMissingDependency(binary, dep string, required bool) {
	t := style.Current()

	mark, accent, heading, body := icon.Fail, t.Error, "Error: Missing Dependency", "The required dependency '%s' was not found in your PATH."
	if !required {
		mark, accent, heading, body = icon.Warn, t.Warning, "Warning: Missing Dependency", "'%s' was not found in your PATH. Local files still play, network streams will not open."
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(accent).Render(fmt.Sprintf("%s %s", icon.Get(mark), heading))
	text := style.New().Foreground(t.Text).Render(fmt.Sprintf(body, binary))

	suggestion := ""
	if hint, ok := installHints[dep][runtime.GOOS]; ok {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(t.Accent).Bold(true).Render(hint))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			text,
			suggestion,
		),
	))
}
