// Package testutil provides shared test fixtures for voicekit.
//
// It builds synthetic PCM WAV buffers and scratch files so capture,
// inspection, and engine tests can run against realistic audio
// containers without any recording hardware.
package testutil
