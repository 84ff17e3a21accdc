package transcribe

import (
	"context"

	"github.com/kbukum/voicekit/provider"
)

// Provider is the interface transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends audio for transcription and returns the result.
	// A non-nil error is always a classified *Failure.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

var _ Provider = (*Client)(nil)

// NewRegistry creates a provider registry for transcription backends
// with the whisper client factory pre-registered.
func NewRegistry(opts ...Option) *provider.Registry[Provider] {
	reg := provider.NewRegistry[Provider]()
	reg.RegisterFactory(ProviderName, Factory(opts...))
	return reg
}
