package engine

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidra-player/vidra/constant"
	"github.com/vidra-player/vidra/log"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	quitGrace         = 3 * time.Second
)

// Options configure an mpv instance before it is started.
type Options struct {
	// Binary is the mpv executable, resolved through PATH when not absolute.
	Binary string

	// Headless starts mpv without audio or video output, paused. Used for probing files.
	Headless bool

	Volume int
	Hwdec  string

	// Source tags forwarded mpv log lines.
	Source string

	// Extra is appended verbatim to the generated arguments.
	Extra []string
}

// MPV drives an idle mpv process over its JSON-IPC socket.
type MPV struct {
	opts       Options
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	requestID  atomic.Int64
	listener   *listener

	mu      sync.Mutex
	started bool
	closed  bool
}

// New creates an mpv engine. Nothing is spawned until Start.
func New(opts Options) *MPV {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if opts.Source == "" {
		opts.Source = "mpv"
	}

	return &MPV{
		opts:   opts,
		exited: make(chan struct{}),
	}
}

// NewHeadless is shorthand for a paused mpv without outputs.
func NewHeadless(binary string) *MPV {
	return New(Options{Binary: binary, Headless: true, Source: "mpv-thumb"})
}

// Args returns the command line mpv is started with.
func (m *MPV) Args() []string {
	args := []string{
		"--no-terminal",
		"--idle=yes",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
	}

	if m.opts.Headless {
		args = append(args, "--vo=null", "--ao=null", "--pause=yes", "--really-quiet")
	} else {
		args = append(args,
			"--force-window=yes",
			"--keep-open=no",
			"--input-default-bindings=yes",
			"--input-vo-keyboard=yes",
			"--osc=yes",
			"--ytdl=yes",
			fmt.Sprintf("--title=%s", constant.App),
		)
		if m.opts.Volume > 0 {
			args = append(args, fmt.Sprintf("--volume=%d", m.opts.Volume))
		}
		if m.opts.Hwdec != "" {
			args = append(args, fmt.Sprintf("--hwdec=%s", m.opts.Hwdec))
		}
	}

	return append(args, m.opts.Extra...)
}

// Start spawns mpv, waits for its socket and attaches the event listener.
func (m *MPV) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	// macOS $TMPDIR is not /tmp, so always go through os.TempDir
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.App, randomBytes))

	m.cmd = exec.Command(m.opts.Binary, m.Args()...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.opts.Binary, err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing %s: socket never became ready", m.opts.Source)
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	l, err := newListener(m.socketPath, m.opts.Source)
	if err != nil {
		_ = killProcess(m.cmd)
		return err
	}
	m.listener = l
	m.listener.start()
	m.started = true

	if err := m.listener.write("request_log_messages", "warn"); err != nil {
		log.Warnf("%s: request log messages: %v", m.opts.Source, err)
	}

	log.Infof("%s started on %s", m.opts.Source, m.socketPath)
	return nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) running() bool {
	m.mu.Lock()
	ok := m.started && !m.closed
	m.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

func (m *MPV) nextID() int64 {
	return m.requestID.Add(1)
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) Play(target string) (int64, error) {
	safe, err := sanitizeMediaTarget(target)
	if err != nil {
		return 0, fmt.Errorf("invalid media target: %w", err)
	}

	reply, err := m.sendCommand([]interface{}{"loadfile", safe, "replace"})
	if err != nil {
		return 0, err
	}
	if entry, ok := replyEntry(reply); ok {
		return entry, nil
	}

	// mpv before 0.38 leaves the loadfile reply empty
	v, err := m.Get(PropFirstEntry)
	if err != nil {
		log.Debugf("%s: playlist entry of %s: %v", m.opts.Source, safe, err)
		return 0, nil
	}
	entry, _ := Int(v)
	return int64(entry), nil
}

// replyEntry reads the playlist entry id from a loadfile reply.
func replyEntry(reply any) (int64, bool) {
	data, ok := reply.(map[string]interface{})
	if !ok {
		return 0, false
	}
	entry, ok := Int(data["playlist_entry_id"])
	if !ok || entry <= 0 {
		return 0, false
	}
	return int64(entry), true
}

func (m *MPV) Stop() error {
	return m.Command("stop")
}

func (m *MPV) Command(args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}
	_, err := m.sendCommand(args)
	return err
}

func (m *MPV) Get(name string) (any, error) {
	return m.sendCommand([]interface{}{"get_property", name})
}

func (m *MPV) Set(name string, value any) error {
	_, err := m.sendCommand([]interface{}{"set_property", name, value})
	return err
}

func (m *MPV) Observe(names ...string) error {
	if !m.running() {
		return ErrNotRunning
	}
	return m.listener.observe(names...)
}

func (m *MPV) Subscribe(h Handler) {
	if m.listener == nil {
		return
	}
	m.listener.subscribe(h)
}

// Terminate asks mpv to quit and kills it when it does not exit in time.
func (m *MPV) Terminate() error {
	if !m.running() {
		return nil
	}

	_, _ = m.sendCommand([]interface{}{"quit"})

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case <-m.exited:
	case <-time.After(quitGrace):
		log.Warnf("%s did not quit in %s, killing", m.opts.Source, quitGrace)
		_ = killProcess(m.cmd)
	}

	m.listener.stop()
	_ = os.Remove(m.socketPath)
	return nil
}

// sanitizeMediaTarget validates that a target is safe to hand to loadfile.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty target")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in target")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file", "ytdl":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	abs, err := filepath.Abs(l)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", l, err)
	}
	return abs, nil
}
