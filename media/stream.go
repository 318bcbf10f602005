package media

import "fmt"

// Stream is a directly playable URL resolved from a network page.
type Stream struct {
	URL        string  `json:"url"`
	Name       string  `json:"name"`
	Language   string  `json:"language,omitempty"`
	VideoCodec string  `json:"vcodec,omitempty"`
	AudioCodec string  `json:"acodec,omitempty"`
	Bandwidth  float64 `json:"bandwidth,omitempty"`
}

func (s Stream) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s/%s", s.VideoCodec, s.AudioCodec)
}

// Request is everything needed to start playing one library entry.
type Request struct {
	// Target is the file path or URL handed to the engine.
	Target string

	// FileID identifies the entry for persisted positions. Defaults to Target.
	FileID string

	Video []Stream
	Audio []Stream
}

// ID returns the persistence key of the request.
func (r Request) ID() string {
	if r.FileID != "" {
		return r.FileID
	}
	return r.Target
}
