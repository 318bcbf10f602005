package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/util"
	"github.com/vidra-player/vidra/where"
)

// clearTarget is a set of files removed together by one flag.
type clearTarget struct {
	name      string
	argLong   string
	argShort  mo.Option[string]
	locations []func() string
}

var clearTargets = []clearTarget{
	{"thumbnails", "thumbnails", mo.Some("t"), []func() string{where.Thumbnails}},
	{"saved positions", "positions", mo.Some("p"), []func() string{where.Positions, where.State}},
	{"logs", "logs", mo.Some("l"), []func() string{where.Logs}},
	{"cache directory", "cache", mo.Some("c"), []func() string{where.Cache}},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}

	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

// clearLocations removes every location of target. Missing files are not an error.
func clearLocations(target clearTarget) error {
	for _, location := range target.locations {
		if err := util.Delete(location()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear %s: %w", target.name, err)
		}
	}
	return nil
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached thumbnails, saved positions and logs",
	Run: func(cmd *cobra.Command, args []string) {
		selected := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(t.argLong))
		})

		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		if !lo.Must(cmd.Flags().GetBool("yes")) {
			names := lo.Map(selected, func(t clearTarget, _ int) string { return t.name })
			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Clear %s?", util.Capitalize(joinNames(names))),
			}
			handleErr(survey.AskOne(prompt, &confirmed))
			if !confirmed {
				return
			}
		}

		for _, target := range selected {
			e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := clearLocations(target)
			e()
			handleErr(err)

			log.Infof("cleared %s", target.name)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}
	},
}

// joinNames renders names as "a, b and c".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return fmt.Sprintf("%s and %s", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
}
