// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/config"
	"github.com/vidra-player/vidra/extract"
	"github.com/vidra-player/vidra/history"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/network"
	"github.com/vidra-player/vidra/session"
	"github.com/vidra-player/vidra/thumbnail"
	"github.com/vidra-player/vidra/where"
)

// saveTimeout bounds the final position save on exit.
const saveTimeout = 3 * time.Second

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	// File is added to the library and played once the interface is up.
	File string

	// Notice is shown in a blocking dialog on start.
	Notice string
}

// dependencies are the collaborators of the interface, replaced in tests.
type dependencies struct {
	factory   session.Factory
	store     *history.Store
	extractor extract.Extractor

	// fetch resolves row metadata. Nil disables background fetching.
	fetch thumbnail.FetchFunc
}

func defaultDependencies() dependencies {
	extractor := extract.NewYTDLP(
		viper.GetString(key.ExtractBinary),
		time.Duration(viper.GetInt(key.ExtractTimeout))*time.Second,
	)

	deps := dependencies{
		factory:   session.ConfiguredFactory(),
		store:     history.Default(),
		extractor: extractor,
	}

	if viper.GetBool(key.ThumbnailsEnabled) {
		fetcher := thumbnail.NewFetcher(
			where.Thumbnails(),
			viper.GetString(key.PlayerBinary),
			extractor,
			network.Default(),
			time.Duration(viper.GetInt(key.ThumbnailsDownloadTimeout))*time.Second,
		)
		deps.fetch = fetcher.Fetch
	}

	return deps
}

// relay forwards messages from background goroutines to the running program.
type relay struct {
	program *tea.Program
}

func (r *relay) send(msg tea.Msg) {
	if r.program != nil {
		r.program.Send(msg)
	}
}

// Run initializes and executes the primary Bubble Tea application loop.
func Run(options *Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &relay{}
	bubble := newBubble(ctx, options, defaultDependencies(), r.send)
	program := tea.NewProgram(bubble, tea.WithAltScreen())
	r.program = program

	config.Watch(func() {
		r.send(configChangedMsg{})
	})

	go bubble.runner.Run(ctx)

	_, err := program.Run()
	bubble.close(cancel)
	return err
}
