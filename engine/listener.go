package engine

import "time"

// Listener receives engine lifecycle callbacks. Methods may be called
// from internal goroutines and must return quickly; a listener that
// needs to do real work should hand off to its own goroutine or
// channel.
type Listener interface {
	// OnState fires on every state transition.
	OnState(s State)
	// OnElapsed fires once per tick while recording.
	OnElapsed(elapsed time.Duration)
	// OnAmplitude forwards capture amplitude samples while recording.
	OnAmplitude(level float64)
	// OnResult fires when a transcription completes successfully.
	OnResult(entry HistoryEntry)
	// OnError fires when a stop or transcription fails.
	OnError(err error)
}

// NopListener implements Listener with no-ops. Embed it to implement
// only the callbacks you care about.
type NopListener struct{}

func (NopListener) OnState(State) {}

func (NopListener) OnElapsed(time.Duration) {}

func (NopListener) OnAmplitude(float64) {}

func (NopListener) OnResult(HistoryEntry) {}

func (NopListener) OnError(error) {}
