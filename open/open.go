// Package open launches URLs and files with the desktop's default handler.
package open

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/log"
)

// ErrUnsupported is returned on platforms without a known default handler.
var ErrUnsupported = errors.New("no default handler for this platform")

// launcher returns the handler invocation for input on goos.
func launcher(goos, input string) ([]string, bool) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return []string{rundll, "url.dll,FileProtocolHandler", input}, true
	case constant.Darwin:
		return []string{"open", input}, true
	case constant.Linux:
		return []string{"xdg-open", input}, true
	case constant.Android:
		return []string{"termux-open", input}, true
	default:
		return nil, false
	}
}

// Command builds the handler process for input without starting it.
func Command(input string) (*exec.Cmd, error) {
	argv, ok := launcher(runtime.GOOS, input)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, runtime.GOOS)
	}
	return exec.Command(argv[0], argv[1:]...), nil
}

// Start opens input and returns without waiting for the handler.
func Start(input string) error {
	cmd, err := Command(input)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}

	log.Infof("opened %s with %s", input, filepath.Base(cmd.Path))
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warnf("open %s: %v", input, err)
		}
	}()
	return nil
}
