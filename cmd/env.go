package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidra-player/vidra/config"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/where"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only list variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only list variables that are not set")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

// envNames lists every environment variable read by vidra, sorted.
func envNames() []string {
	names := lo.Map(config.EnvExposed, func(k string, _ int) string {
		field := config.Default[k]
		return field.Env()
	})
	names = append(names, where.EnvConfigPath)
	slices.Sort(names)
	return slices.Compact(names)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override the configuration",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		for _, env := range envNames() {
			value, present := os.LookupEnv(env)

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Print(style.New().Bold(true).Foreground(style.Purple).Render(env))
			cmd.Print("=")

			if present {
				cmd.Println(style.Fg(style.Green)(value))
			} else {
				cmd.Println(style.Fg(style.Red)("unset"))
			}
		}
	},
}
