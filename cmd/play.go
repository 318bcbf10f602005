package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/filesystem"
	"github.com/vidra-player/vidra/history"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/library"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/session"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/thumbnail"
	"github.com/vidra-player/vidra/util"
)

// playSaveTimeout bounds the position save when playback is interrupted.
const playSaveTimeout = 3 * time.Second

var loopModes = map[string]session.LoopState{
	"none": session.LoopOff,
	"one":  session.RepeatOne,
	"all":  session.RepeatAll,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringP("loop", "l", "none", "Loop mode: none, one or all")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("loop", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Keys(loopModes), cobra.ShellCompDirectiveNoFileComp
	}))
}

var playCmd = &cobra.Command{
	Use:   "play <file|url>...",
	Short: "Play files and streams in mpv without the library view",
	Long: "Play files and streams in mpv without the library view.\n" +
		"Entries play in order. Saved positions are offered for resume on the terminal.",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		loop, ok := loopModes[lo.Must(cmd.Flags().GetString("loop"))]
		if !ok {
			handleErr(fmt.Errorf("unknown loop mode, expected one of: %s", "none, one, all"))
		}

		CheckDependencies()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		lib := library.New()
		for _, arg := range args {
			handleErr(enqueue(ctx, lib, arg))
		}

		handleErr(playHeadless(ctx, lib, loop))
	},
}

// enqueue adds a local file, every video of a directory, or an extracted stream to lib.
func enqueue(ctx context.Context, lib *library.Library, arg string) error {
	if thumbnail.IsURL(arg) {
		erase := util.PrintErasable(fmt.Sprintf("%s Extracting %s...", icon.Get(icon.Progress), arg))
		info, err := newExtractor().Extract(ctx, arg)
		erase()
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		lib.Add(arg, info.Title, info)
		return nil
	}

	stat, err := filesystem.API().Stat(arg)
	if err != nil {
		return fmt.Errorf("file not found: %s", arg)
	}

	if !stat.IsDir() {
		lib.Add(arg, "", nil)
		return nil
	}

	files, err := library.VideoFiles(arg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no video files in %s", arg)
	}
	for _, file := range files {
		lib.Add(file, "", nil)
	}
	return nil
}

// surveyPrompter asks on the terminal. An interrupted prompt declines.
func surveyPrompter(message string) bool {
	answer := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &answer)
	if err != nil {
		if !errors.Is(err, terminal.InterruptErr) {
			log.Warnf("resume prompt: %v", err)
		}
		return false
	}
	return answer
}

// playHeadless drives the session through lib until the last entry finishes or ctx is cancelled.
func playHeadless(ctx context.Context, lib *library.Library, loop session.LoopState) error {
	finished := make(chan bool, 1)
	failed := make(chan error, 1)

	coordinator := session.New(session.Options{
		Factory:   session.ConfiguredFactory(),
		Positions: history.Default(),
		Prompter:  session.PrompterFunc(surveyPrompter),
		Policy:    session.ConfiguredPolicy(),
		Notify: func(n session.Notification) {
			switch n := n.(type) {
			case session.PlaybackFinished:
				select {
				case finished <- n.LoopAll:
				default:
				}
			case session.EngineFailed:
				select {
				case failed <- n.Err:
				default:
				}
			case session.LoopStateChanged:
				log.Infof("loop %s", n.State)
			}
		},
	})

	runnerCtx, cancel := context.WithCancel(context.Background())
	runner := session.NewRunner(coordinator, session.DefaultQueueSize)
	go runner.Run(runnerCtx)
	defer func() {
		cancel()
		<-runner.Done()
	}()

	runner.Submit(func(c *session.Coordinator) {
		for c.Loop() != loop {
			c.CycleLoopState()
		}
	})

	load := func(index int) error {
		req, err := lib.Play(index)
		if err != nil {
			return err
		}
		row, _ := lib.Row(index)
		fmt.Printf("%s %s\n", style.Fg(style.Current().Accent)(icon.Get(icon.Play)), row.Name)

		result := make(chan error, 1)
		if !runner.Do(ctx, func(c *session.Coordinator) { result <- c.Load(req, false) }) {
			return context.Cause(ctx)
		}
		return <-result
	}

	// start plays index, moving on past entries that fail to load.
	start := func(index int, loopAll bool) (bool, error) {
		for attempts := 1; ; attempts++ {
			err := load(index)
			if err == nil {
				return true, nil
			}
			if ctx.Err() != nil {
				return false, nil
			}
			if errors.Is(err, engine.ErrNotRunning) || attempts >= lib.Len() {
				return false, err
			}

			log.Warnf("skipping entry %d: %v", index, err)
			fmt.Printf("%s %v\n", style.Fg(style.Current().Warning)(icon.Get(icon.Warn)), err)

			next, ok := lib.Next(loopAll)
			if !ok {
				return false, nil
			}
			index = next
		}
	}

	if playing, err := start(0, loop == session.RepeatAll); err != nil || !playing {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			saveCtx, done := context.WithTimeout(context.Background(), playSaveTimeout)
			runner.Do(saveCtx, func(c *session.Coordinator) { c.StopAndSave() })
			done()
			return nil
		case err := <-failed:
			return fmt.Errorf("playback engine unavailable: %w", err)
		case loopAll := <-finished:
			decision := lib.OnPlaybackFinished(loopAll)
			if !decision.Advance {
				next, ok := lib.Next(false)
				if !ok {
					return nil
				}
				decision = library.Decision{Advance: true, Index: next}
			}
			if playing, err := start(decision.Index, loopAll); err != nil || !playing {
				return err
			}
		}
	}
}
