package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

// ipcResponse is the JSON structure received from mpv's IPC socket.
type ipcResponse struct {
	Data      interface{} `json:"data"`
	Error     string      `json:"error"`
	RequestID *int64      `json:"request_id"`
	Event     string      `json:"event"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 2 * time.Second
	maxLineSize  = 1 << 20
)

const errPropertyUnavailable = "property unavailable"

// sendCommand sends a JSON-IPC command to mpv.
// Transient connection errors are retried; errors reported by mpv itself are not.
func (m *MPV) sendCommand(command []interface{}) (interface{}, error) {
	if !m.running() {
		return nil, ErrNotRunning
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		result, err := doSendCommand(m.socketPath, m.nextID(), command)
		if err == nil {
			return result, nil
		}
		if _, ok := err.(*replyError); ok {
			return nil, err
		}
		lastErr = err

		if !m.running() {
			return nil, ErrNotRunning
		}
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// replyError is an error string returned by mpv for a well-formed request.
type replyError struct {
	command string
	reason  string
}

func (e *replyError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.command, e.reason)
}

func (e *replyError) Unwrap() error {
	if e.reason == errPropertyUnavailable {
		return ErrPropertyUnavailable
	}
	return nil
}

// doSendCommand performs a single IPC command attempt on a fresh connection.
// Asynchronous events may interleave with the reply, so lines are skipped until the request id matches.
func doSendCommand(socketPath string, id int64, command []interface{}) (interface{}, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	if _, err = conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.Event != "" || resp.RequestID == nil || *resp.RequestID != id {
			continue
		}

		if resp.Error != "" && resp.Error != "success" {
			return nil, &replyError{command: fmt.Sprint(command[0]), reason: resp.Error}
		}
		return resp.Data, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed before reply")
}
