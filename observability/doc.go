// Package observability wires OpenTelemetry tracing and metrics into
// voicekit.
//
// Tracing covers each transcription round trip; metrics count recording
// sessions and transcription outcomes and record backend latency. Both
// export over OTLP/HTTP and are optional: components that receive no
// Metrics handle simply skip recording.
package observability
