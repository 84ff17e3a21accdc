// Package engine coordinates the recording and transcription lifecycle.
//
// The Engine is a small state machine driven by a single Toggle action:
// idle it starts a capture session, recording it stops the session and
// hands the audio to a transcription backend, and while a transcription
// is in flight further toggles are ignored. Results accumulate in a
// bounded, newest-first history.
//
// Callers observe progress through the Listener interface. Listener
// methods may be invoked from internal goroutines and must not block.
package engine
