package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("voicekit")
	if cfg.ServiceName != "voicekit" {
		t.Errorf("expected service name voicekit, got %s", cfg.ServiceName)
	}
	if cfg.Endpoint == "" {
		t.Error("expected a default endpoint")
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestStartSpanWithoutProvider(t *testing.T) {
	// Without an initialized provider the global no-op tracer is used;
	// spans must still be safe to start and end.
	ctx, span := StartSpan(context.Background(), "test.span")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	SetSpanAttribute(ctx, AttrBackend, "whisper")
	SetSpanError(ctx, errors.New("boom"))
	span.End()
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	// Must not panic.
	m.RecordRecording(context.Background(), "stopped")
	m.RecordTranscription(context.Background(), "whisper", "success", time.Second)
}

func TestNewMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordRecording(context.Background(), "cancelled")
	m.RecordTranscription(context.Background(), "whisper", "timeout", 250*time.Millisecond)
}
