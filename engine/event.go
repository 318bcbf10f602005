package engine

import (
	"encoding/json"
	"fmt"
)

// Kind classifies an engine notification.
type Kind int

const (
	PropertyChange Kind = iota
	PlaybackRestart
	FileLoaded
	EndFile
	StartFile
	LogMessage
	Other
)

func (k Kind) String() string {
	switch k {
	case PropertyChange:
		return "property-change"
	case PlaybackRestart:
		return "playback-restart"
	case FileLoaded:
		return "file-loaded"
	case EndFile:
		return "end-file"
	case StartFile:
		return "start-file"
	case LogMessage:
		return "log-message"
	default:
		return "other"
	}
}

// Reason is the end-file reason code.
type Reason int

const (
	ReasonUnknown  Reason = -1
	ReasonEOF      Reason = 0
	ReasonStop     Reason = 2
	ReasonQuit     Reason = 3
	ReasonError    Reason = 4
	ReasonRedirect Reason = 5
)

// ParseReason maps the reason string of an IPC end-file event to its code.
func ParseReason(s string) Reason {
	switch s {
	case "eof":
		return ReasonEOF
	case "stop":
		return ReasonStop
	case "quit":
		return ReasonQuit
	case "error":
		return ReasonError
	case "redirect":
		return ReasonRedirect
	default:
		return ReasonUnknown
	}
}

func (r Reason) String() string {
	switch r {
	case ReasonEOF:
		return "eof"
	case ReasonStop:
		return "stop"
	case ReasonQuit:
		return "quit"
	case ReasonError:
		return "error"
	case ReasonRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Event is a single notification from the engine.
type Event struct {
	Kind Kind

	// Name is the property name for PropertyChange and the raw event name otherwise.
	Name string
	Data any

	// Reason is only meaningful for EndFile.
	Reason Reason

	// Entry is the playlist entry id of StartFile and EndFile, 0 when the engine did not report one.
	Entry int64

	// Level, Prefix and Text are only set for LogMessage.
	Level, Prefix, Text string
}

// Property builds a PropertyChange event.
func Property(name string, data any) Event {
	return Event{Kind: PropertyChange, Name: name, Data: data}
}

// Ended builds an EndFile event of the playlist entry.
func Ended(reason Reason, entry int64) Event {
	return Event{Kind: EndFile, Name: "end-file", Reason: reason, Entry: entry}
}

// Started builds a StartFile event of the playlist entry.
func Started(entry int64) Event {
	return Event{Kind: StartFile, Name: "start-file", Entry: entry}
}

// Loaded builds a FileLoaded event.
func Loaded() Event {
	return Event{Kind: FileLoaded, Name: "file-loaded"}
}

// Restarted builds a PlaybackRestart event.
func Restarted() Event {
	return Event{Kind: PlaybackRestart, Name: "playback-restart"}
}

// wireEvent is the JSON shape of an asynchronous IPC message.
type wireEvent struct {
	Event  string          `json:"event"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	Reason string          `json:"reason"`
	Entry  int64           `json:"playlist_entry_id"`
	Level  string          `json:"level"`
	Prefix string          `json:"prefix"`
	Text   string          `json:"text"`
}

// decodeEvent parses one line of IPC output.
// Replies to commands carry no "event" field and are reported as not ok.
func decodeEvent(line []byte) (Event, bool) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil || w.Event == "" {
		return Event{}, false
	}

	switch w.Event {
	case "property-change":
		var data any
		if len(w.Data) > 0 {
			_ = json.Unmarshal(w.Data, &data)
		}
		return Property(w.Name, data), true
	case "playback-restart":
		return Restarted(), true
	case "file-loaded":
		return Event{Kind: FileLoaded, Name: w.Event}, true
	case "start-file":
		return Started(w.Entry), true
	case "end-file":
		return Ended(ParseReason(w.Reason), w.Entry), true
	case "log-message":
		return Event{Kind: LogMessage, Name: w.Event, Level: w.Level, Prefix: w.Prefix, Text: w.Text}, true
	default:
		return Event{Kind: Other, Name: w.Event}, true
	}
}
