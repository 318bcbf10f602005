package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/media"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/util"
)

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolP("json", "j", false, "Print the extraction result as JSON")
	probeCmd.Flags().Bool("schema", false, "Print the JSON schema of the extraction result and exit")
	probeCmd.Flags().BoolP("flat", "f", false, "Fetch page metadata only, without resolving formats")
	probeCmd.MarkFlagsMutuallyExclusive("json", "schema")
	probeCmd.SetOut(os.Stdout)
}

func newExtractor() *extract.YTDLP {
	return extract.NewYTDLP(
		viper.GetString(key.ExtractBinary),
		time.Duration(viper.GetInt(key.ExtractTimeout))*time.Second,
	)
}

var probeCmd = &cobra.Command{
	Use:     "probe <url>",
	Short:   "Resolve the streams of a page the way the player would",
	Example: "  vidra probe https://youtu.be/dQw4w9WgXcQ\n  vidra probe --schema",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(encoder.Encode(extract.Schema()))
			return
		}

		if len(args) == 0 {
			handleErr(errors.New("url is required"))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		extractor := newExtractor()
		resolve := extractor.Extract
		if lo.Must(cmd.Flags().GetBool("flat")) {
			resolve = extractor.ExtractFlat
		}

		asJson := lo.Must(cmd.Flags().GetBool("json"))

		var erase func()
		if !asJson {
			erase = util.PrintErasable(fmt.Sprintf("%s Extracting %s...", icon.Get(icon.Progress), args[0]))
		}
		info, err := resolve(ctx, args[0])
		if erase != nil {
			erase()
		}
		handleErr(err)

		if asJson {
			handleErr(encoder.Encode(info))
			return
		}

		printInfo(cmd, info)
	},
}

func printInfo(cmd *cobra.Command, info *extract.Info) {
	t := style.Current()
	label := style.Fg(t.Subtext)

	cmd.Println(style.Title(info.Title))
	cmd.Println()
	cmd.Printf("  %s  %s\n", label("Duration  "), util.FormatTime(info.Duration))
	if info.Width > 0 && info.Height > 0 {
		cmd.Printf("  %s  %s\n", label("Resolution"), util.FormatResolution(info.Width, info.Height))
	}
	if info.Thumbnail != "" {
		cmd.Printf("  %s  %s\n", label("Thumbnail "), info.Thumbnail)
	}

	section := func(title string, mark icon.Icon, streams []media.Stream) {
		if len(streams) == 0 {
			return
		}
		cmd.Println()
		cmd.Println(style.Fg(t.Accent)(fmt.Sprintf("%s %s (%d)", icon.Get(mark), title, len(streams))))
		for _, s := range streams {
			line := "  " + s.String()
			if s.Language != "" {
				line += style.Faint(" [" + s.Language + "]")
			}
			if s.Bandwidth > 0 {
				line += style.Faint(fmt.Sprintf(" %.0fk", s.Bandwidth))
			}
			cmd.Println(line)
		}
	}

	section("Video", icon.Video, info.Video)
	section("Audio", icon.Audio, info.Audio)

	if len(info.Video) == 0 {
		cmd.Println()
		cmd.Println(style.Fg(t.Warning)(icon.Get(icon.Warn) + " " + extract.ErrNoStreams.Error()))
	}
}
