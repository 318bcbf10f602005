// Package cmd implements the command-line interface for vidra.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/tui"
	"github.com/vidra-player/vidra/version"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().Bool("no-thumbnails", false, "Do not fetch durations, resolutions and thumbnails for library rows")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd opens the library view, optionally playing a file right away.
var rootCmd = &cobra.Command{
	Use:   constant.App + " [file]",
	Short: "A terminal front-end for the mpv media player",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(style.HiCyan).Render("    - A terminal front-end for the mpv media player"),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()

		if lo.Must(cmd.Flags().GetBool("no-thumbnails")) {
			viper.Set(key.ThumbnailsEnabled, false)
		}

		var options tui.Options
		if len(args) == 1 {
			options.File, options.Notice = positional(args[0])
		}

		handleErr(tui.Run(&options))
	},
}

// positional resolves the command line file. A missing file becomes a notice instead of an error.
func positional(path string) (file, notice string) {
	if _, err := filesystem.API().Stat(path); err != nil {
		log.Warnf("positional file %s: %v", path, err)
		return "", fmt.Sprintf("File not found: %s", path)
	}
	return path, ""
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
