package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/config"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/style"
)

func errUnknownKey(k string) error {
	closest := lo.MinBy(lo.Keys(config.Default), func(a string, b string) bool {
		return levenshtein.Distance(k, a) < levenshtein.Distance(k, b)
	})

	return fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(style.Red)(k),
		style.Fg(style.Yellow)(closest),
	)
}

// lookupField returns the registered field of k.
func lookupField(k string) (config.Field, error) {
	field, ok := config.Default[k]
	if !ok {
		return config.Field{}, errUnknownKey(k)
	}
	return field, nil
}

// enumerated lists the accepted values of keys that only take a fixed set.
var enumerated = map[string]func() []string{
	key.UITheme:      style.ThemeNames,
	key.IconsVariant: icon.AvailableVariants,
	key.LogsLevel: func() []string {
		return []string{"panic", "fatal", "error", "warn", "info", "debug", "trace"}
	},
}

// parseValue converts the raw command line values to the type of the field default.
func parseValue(field config.Field, raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("value is required as an argument or --value flag")
	}

	var v any
	switch field.Value.(type) {
	case string:
		v = raw[0]
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", raw[0])
		}
		if n < 0 {
			return nil, fmt.Errorf("%s must not be negative", field.Key)
		}
		v = n
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", raw[0])
		}
		v = b
	case []string:
		v = raw
	default:
		return nil, fmt.Errorf("%s cannot be set from the command line", field.Key)
	}

	if allowed, ok := enumerated[field.Key]; ok {
		s := fmt.Sprint(v)
		if !lo.Contains(allowed(), s) {
			return nil, fmt.Errorf("invalid value %s for %s, expected one of: %s",
				style.Fg(style.Red)(s),
				field.Key,
				strings.Join(allowed(), ", "),
			)
		}
	}

	return v, nil
}

// keyArg picks the key from the first argument or the --key flag.
func keyArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) >= 1 {
		return args[0], nil
	}
	if flagKey, _ := cmd.Flags().GetString("key"); flagKey != "" {
		return flagKey, nil
	}
	return "", errors.New("key is required as an argument or --key flag")
}

func completionConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		if allowed, ok := enumerated[args[0]]; ok {
			return allowed(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configCmd groups the configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage player, extraction and interface settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", []string{}, "Specify the configuration keys to retrieve information for")
	configInfoCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)

	configInfoCmd.SetOut(os.Stdout)
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the description, default and current value of configuration fields",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			keys   = lo.Must(cmd.Flags().GetStringSlice("key"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
			fields = lo.Values(config.Default)
		)

		if len(keys) > 0 {
			fields = make([]config.Field, 0, len(keys))
			for _, k := range keys {
				field, err := lookupField(k)
				handleErr(err)
				fields = append(fields, field)
			}
		}

		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		for i, field := range fields {
			cmd.Print(field.Pretty())
			if i < len(fields)-1 {
				cmd.Println()
				cmd.Println()
			}
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configSetCmd.Flags().StringP("key", "k", "", "The configuration key to update")
	configSetCmd.Flags().StringSliceP("value", "v", []string{}, "The new value to assign to the configuration key")
	_ = configSetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value]",
	Short:             "Update the value of a configuration key",
	Example:           "  vidra config set player.seek_step 5\n  vidra config set ui.theme \"Gruvbox Dark\"",
	Args:              cobra.MaximumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := keyArg(cmd, args)
		handleErr(err)

		field, err := lookupField(k)
		handleErr(err)

		raw := lo.Must(cmd.Flags().GetStringSlice("value"))
		if len(args) >= 2 {
			raw = args[1:]
		}

		v, err := parseValue(field, raw)
		handleErr(err)

		viper.Set(k, v)
		handleErr(config.Save())

		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(style.Green)(icon.Get(icon.Success)),
			style.Fg(style.Purple)(k),
			style.Fg(style.Yellow)(fmt.Sprint(v)),
		)
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.Flags().StringP("key", "k", "", "The configuration key to read")
	_ = configGetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the current value of a configuration key",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := keyArg(cmd, args)
		handleErr(err)

		_, err = lookupField(k)
		handleErr(err)

		fmt.Println(viper.Get(k))
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite the existing configuration file")
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current configuration, defaults included, to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.Path()

		if lo.Must(cmd.Flags().GetBool("force")) {
			if exists, _ := filesystem.API().Exists(path); exists {
				handleErr(filesystem.API().Remove(path))
			}
		}

		handleErr(viper.SafeWriteConfig())
		fmt.Printf(
			"%s wrote config to %s\n",
			style.Fg(style.Green)(icon.Get(icon.Success)),
			path,
		)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Remove the config file, falling back to defaults",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(config.Path()))
		fmt.Printf(
			"%s deleted config\n",
			style.Fg(style.Green)(icon.Get(icon.Success)),
		)
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)

	configResetCmd.Flags().StringP("key", "k", "", "The configuration key to restore to its default value")
	configResetCmd.Flags().BoolP("all", "a", false, "Restore every configuration key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore configuration keys to their default values",
	PreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("key") && !cmd.Flags().Changed("all") {
			handleErr(errors.New("either --key or --all must be set"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			for k, field := range config.Default {
				viper.Set(k, field.Value)
			}
			handleErr(config.Save())
			fmt.Printf("%s reset all config values\n", style.Fg(style.Green)(icon.Get(icon.Success)))
			return
		}

		k := lo.Must(cmd.Flags().GetString("key"))
		field, err := lookupField(k)
		handleErr(err)

		viper.Set(k, field.Value)
		handleErr(config.Save())

		fmt.Printf(
			"%s reset %s to default value %s\n",
			style.Fg(style.Green)(icon.Get(icon.Success)),
			style.Fg(style.Purple)(k),
			style.Fg(style.Yellow)(fmt.Sprint(field.Value)),
		)
	},
}
