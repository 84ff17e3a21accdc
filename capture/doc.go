// Package capture owns the lifecycle of one microphone recording
// attempt.
//
// The actual byte capture is delegated to an external Recorder
// capability; Session adds permission handling, scratch file
// management, and the guarantee that a cancelled attempt leaves no
// file behind. At most one capture is live per Session: starting
// while active discards the previous attempt (last start wins).
package capture
