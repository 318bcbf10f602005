// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/where"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// Watch re-reads the config file on change and calls onChange afterwards.
// The log level is re-applied before onChange runs.
func Watch(onChange func()) {
	if viper.ConfigFileUsed() == "" {
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("config changed: %s (%s)", e.Name, e.Op)
		log.SetLevel(viper.GetString(key.LogsLevel))
		if onChange != nil {
			onChange()
		}
	})
	viper.WatchConfig()
}

// Path is the location of the configuration file, whether or not it exists.
func Path() string {
	return filepath.Join(where.Config(), constant.App+".toml")
}

// Save writes the in-memory configuration. A missing config file is created.
func Save() error {
	if err := viper.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return viper.SafeWriteConfig()
		}
		return err
	}
	return nil
}

// SaveTheme persists the active theme name.
func SaveTheme(name string) error {
	viper.Set(key.UITheme, name)
	return Save()
}
