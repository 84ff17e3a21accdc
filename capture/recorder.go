package capture

import "context"

// PermissionStatus is the OS-level microphone permission state.
type PermissionStatus int

const (
	// PermissionUndetermined means the user has not been asked yet.
	PermissionUndetermined PermissionStatus = iota
	// PermissionGranted means capture is allowed.
	PermissionGranted
	// PermissionDenied means capture is not allowed.
	PermissionDenied
)

// Permissions is the OS permission capability.
type Permissions interface {
	// Status returns the current microphone permission state.
	Status(ctx context.Context) PermissionStatus
	// Request prompts the user and reports whether access was granted.
	Request(ctx context.Context) (bool, error)
}

// Recorder is the external microphone capture capability. It writes
// 16 kHz mono 16-bit PCM WAV to the path it is given and reports
// amplitude while capturing.
type Recorder interface {
	// Start begins writing captured audio to path.
	Start(ctx context.Context, path string) error
	// Stop finalizes and flushes the file being written.
	Stop(ctx context.Context) error
	// Amplitude returns a bounded-rate stream of level samples
	// (roughly one every 100ms while capturing). Pass-through only;
	// the channel carries no session state.
	Amplitude() <-chan float64
}
