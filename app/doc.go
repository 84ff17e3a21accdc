// Package app assembles a running voicekit instance from configuration:
// logger, optional OTLP telemetry, capture session, transcription
// client, and the engine that ties them together. It also owns the
// signal-driven shutdown sequence so embedders do not have to.
package app
