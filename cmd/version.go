package cmd

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/version"
)

// toolTimeout bounds each external --version call.
const toolTimeout = 2 * time.Second

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string")
}

// toolVersion returns the first line printed by binary --version, or "not found".
func toolVersion(binary string) string {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "not found"
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "unknown"
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line
}

var versionTemplate = `{{ accent "▇▇▇" }} {{ accent .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}
  {{ faint "Go" }}              {{ bold .Go }}
  {{ faint "mpv" }}             {{ bold .Player }}
  {{ faint "yt-dlp" }}          {{ bold .Extractor }}
`

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version and the versions of mpv and yt-dlp",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify()

		info := struct {
			App       string
			Version   string
			OS        string
			Arch      string
			Go        string
			Player    string
			Extractor string
		}{
			App:       constant.App,
			Version:   constant.Version,
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Go:        runtime.Version(),
			Player:    toolVersion(viper.GetString(key.PlayerBinary)),
			Extractor: toolVersion(viper.GetString(key.ExtractBinary)),
		}

		t, err := template.New("version").Funcs(template.FuncMap{
			"faint":  style.Faint,
			"bold":   style.Bold,
			"accent": style.Fg(style.Current().Accent),
		}).Parse(versionTemplate)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), info))
	},
}
