package engine

import (
	"fmt"
	"time"
)

// State identifies where the engine is in the recording lifecycle.
type State int32

const (
	// StateIdle means no recording or transcription is in progress.
	StateIdle State = iota
	// StateRecording means a capture session is active.
	StateRecording
	// StateStopping is the transient phase while the capture session
	// is being torn down.
	StateStopping
	// StateTranscribing means the audio has been handed to the backend
	// and the engine is waiting for the result.
	StateTranscribing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateTranscribing:
		return "transcribing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FormatClock renders an elapsed duration as a mm:ss wall clock,
// e.g. 83 seconds becomes "01:23". Durations of an hour or more keep
// counting minutes rather than rolling over.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
