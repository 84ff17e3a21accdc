// Package provider defines the pluggable backend pattern used across
// voicekit: a minimal Provider interface plus a generic registry of
// named factories and cached instances.
//
// # Usage
//
//	reg := provider.NewRegistry[transcribe.Provider]()
//	reg.RegisterFactory("whisper", whisperFactory)
//	p, err := reg.Create("whisper", cfg)
package provider
