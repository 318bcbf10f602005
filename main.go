// Package main is the entry point for vidra.
package main

import (
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/cmd"
	"github.com/vidra-player/vidra/config"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/thumbnail"
	"github.com/vidra-player/vidra/where"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go func() {
		ttl := time.Duration(viper.GetInt(key.ThumbnailsTTL)) * 24 * time.Hour
		if _, err := thumbnail.Prune(where.Thumbnails(), ttl); err != nil {
			log.Warnf("pruning thumbnails: %v", err)
		}
	}()

	cmd.Execute()
}
