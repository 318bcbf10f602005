package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/vidra-player/vidra/log"
)

// listener holds the persistent IPC connection that receives mpv events.
// Property observers are registered on this connection because mpv scopes them per client.
type listener struct {
	conn   net.Conn
	source string

	writeMu sync.Mutex
	nextObs int

	mu       sync.RWMutex
	handlers []Handler

	done chan struct{}
	once sync.Once
}

func newListener(socketPath, source string) (*listener, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("event listener connect: %w", err)
	}

	return &listener{
		conn:   conn,
		source: source,
		done:   make(chan struct{}),
	}, nil
}

func (l *listener) start() {
	go l.readLoop()
}

func (l *listener) write(command ...interface{}) error {
	payload, err := json.Marshal(struct {
		Command []interface{} `json:"command"`
	}{command})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if _, err := l.conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (l *listener) observe(names ...string) error {
	for _, name := range names {
		l.writeMu.Lock()
		l.nextObs++
		id := l.nextObs
		l.writeMu.Unlock()

		if err := l.write("observe_property", id, name); err != nil {
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}
	return nil
}

func (l *listener) subscribe(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

func (l *listener) stop() {
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}

// readLoop reads newline-delimited JSON until the connection closes.
func (l *listener) readLoop() {
	defer l.stop()

	reader := bufio.NewReaderSize(l.conn, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			l.process(line)
		}
		if err != nil {
			select {
			case <-l.done:
			default:
				log.Debugf("%s event listener closed: %v", l.source, err)
			}
			return
		}
	}
}

func (l *listener) process(line []byte) {
	event, ok := decodeEvent(line)
	if !ok {
		return
	}

	if event.Kind == LogMessage {
		log.Engine(l.source, event.Level, event.Prefix, event.Text)
		return
	}

	l.mu.RLock()
	handlers := l.handlers
	l.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
