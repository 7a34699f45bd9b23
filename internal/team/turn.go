package team

import "time"

// Turn sources that are not participant IDs.
const (
	SourceUser        = "user"
	SourceTermination = "termination"
)

// Turn is one unit of output in a run's transcript, attributed to a
// participant, the user, or the final termination marker. Once appended
// to a transcript a turn is never mutated or removed.
type Turn struct {
	Source  string         `json:"source"`
	Content string         `json:"content"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// LastTurn returns the most recent turn of a transcript.
func LastTurn(transcript []Turn) (Turn, bool) {
	if len(transcript) == 0 {
		return Turn{}, false
	}
	return transcript[len(transcript)-1], true
}

func cloneTranscript(transcript []Turn) []Turn {
	if transcript == nil {
		return nil
	}
	out := make([]Turn, len(transcript))
	copy(out, transcript)
	return out
}
