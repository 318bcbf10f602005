package version

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/icon"
	"github.com/vidra-player/vidra/key"
	"github.com/vidra-player/vidra/log"
	"github.com/vidra-player/vidra/style"
	"github.com/vidra-player/vidra/util"
)

// Notify prints a banner when a newer release than the running one is published.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(context.Background())
	erase()
	if err != nil {
		log.Debugf("release lookup: %v", err)
		return
	}

	if newer, err := Compare(latest, constant.Version); err != nil || newer <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(style.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint(constant.Repository+"/releases/tag/v"+latest),
	)
}
