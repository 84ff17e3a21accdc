package engine

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/voicekit/capture"
	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/observability"
	"github.com/kbukum/voicekit/transcribe"
	"github.com/kbukum/voicekit/wav"
)

// DefaultHistoryLimit caps how many transcription results the engine
// retains.
const DefaultHistoryLimit = 20

// DefaultTickInterval is how often OnElapsed fires while recording.
const DefaultTickInterval = time.Second

// HistoryEntry is one completed transcription.
type HistoryEntry struct {
	Text          string
	Language      string
	Confidence    float64
	AudioDuration time.Duration
	CreatedAt     time.Time
}

// Engine drives the record/stop/transcribe cycle. All exported methods
// are safe for concurrent use.
type Engine struct {
	session *capture.Session
	client  transcribe.Provider

	listener     Listener
	log          *logger.Logger
	metrics      *observability.Metrics
	clock        func() time.Time
	tickInterval time.Duration
	historyLimit int

	mu         sync.Mutex
	state      atomic.Int32
	elapsedMS  atomic.Int64
	history    []HistoryEntry
	tickerStop chan struct{}
	tickerDone chan struct{}

	inflight sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener sets the lifecycle listener.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listener = l
		}
	}
}

// WithHistoryLimit overrides the retained-result cap.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log.WithComponent("engine")
		}
	}
}

// WithMetrics attaches recording metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// WithTickInterval overrides the elapsed tick period, for tests.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// New builds an Engine around a capture session and a transcription
// backend.
func New(session *capture.Session, client transcribe.Provider, opts ...Option) *Engine {
	e := &Engine{
		session:      session,
		client:       client,
		listener:     NopListener{},
		log:          logger.Nop(),
		clock:        time.Now,
		tickInterval: DefaultTickInterval,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Elapsed reports how long the current recording has been running.
// It is zero outside of a recording.
func (e *Engine) Elapsed() time.Duration {
	return time.Duration(e.elapsedMS.Load()) * time.Millisecond
}

// History returns a copy of the retained results, newest first.
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// LastEntry returns the most recent result, or false when the history
// is empty.
func (e *Engine) LastEntry() (HistoryEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return HistoryEntry{}, false
	}
	return e.history[0], true
}

// ClearHistory drops every retained result.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	e.history = nil
	e.mu.Unlock()
}

// Toggle advances the lifecycle: it starts a recording when idle and
// stops one when recording. While a stop or transcription is in
// progress the call is ignored.
func (e *Engine) Toggle(ctx context.Context) error {
	e.mu.Lock()
	switch State(e.state.Load()) {
	case StateIdle:
		return e.startLocked(ctx)
	case StateRecording:
		return e.stopAndSend(ctx)
	default:
		e.mu.Unlock()
		e.log.Debug("toggle ignored", logger.Fields(logger.FieldState, e.State().String()))
		return nil
	}
}

// Cancel abandons an active recording without transcribing it. The
// scratch file is removed. Outside of a recording it is a no-op.
func (e *Engine) Cancel(ctx context.Context) {
	e.mu.Lock()
	if State(e.state.Load()) != StateRecording {
		e.mu.Unlock()
		return
	}
	stop, done := e.tickerStop, e.tickerDone
	e.setStateLocked(StateStopping)
	e.mu.Unlock()
	e.notifyState(StateStopping)
	stopTicker(stop, done)

	e.mu.Lock()
	e.session.Cancel(ctx)
	e.elapsedMS.Store(0)
	e.setStateLocked(StateIdle)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordRecording(ctx, "cancelled")
	}
	e.log.Info("recording cancelled")
	e.notifyState(StateIdle)
}

// startLocked begins a capture session. Called with e.mu held; it
// unlocks before returning.
func (e *Engine) startLocked(ctx context.Context) error {
	handle, err := e.session.Start(ctx)
	if err != nil {
		e.mu.Unlock()
		e.log.WithError(err).Error("start recording failed")
		return err
	}
	e.elapsedMS.Store(0)
	e.tickerStop = make(chan struct{})
	e.tickerDone = make(chan struct{})
	go e.tick(handle.StartedAt, e.session.Amplitude(), e.tickerStop, e.tickerDone)
	e.setStateLocked(StateRecording)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordRecording(ctx, "started")
	}
	e.log.Info("recording started", logger.Fields(logger.FieldPath, handle.Path))
	e.notifyState(StateRecording)
	return nil
}

// stopAndSend tears down the capture session and hands the audio to
// the backend. Called with e.mu held; it unlocks before returning.
func (e *Engine) stopAndSend(ctx context.Context) error {
	stop, done := e.tickerStop, e.tickerDone
	e.setStateLocked(StateStopping)
	e.mu.Unlock()
	e.notifyState(StateStopping)
	stopTicker(stop, done)

	e.mu.Lock()
	handle, err := e.session.Stop(ctx)
	e.elapsedMS.Store(0)
	if err != nil || handle == nil {
		e.setStateLocked(StateIdle)
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.RecordRecording(ctx, "failed")
		}
		if err != nil {
			e.log.WithError(err).Error("stop recording failed")
			e.notifyError(err)
		}
		e.notifyState(StateIdle)
		return err
	}
	e.setStateLocked(StateTranscribing)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordRecording(ctx, "stopped")
	}
	e.log.Info("recording stopped", logger.Fields(logger.FieldPath, handle.Path))
	e.notifyState(StateTranscribing)

	e.inflight.Add(1)
	go e.send(context.WithoutCancel(ctx), handle.Path)
	return nil
}

// send reads the scratch file, submits it, and records the outcome.
// The scratch file is removed whether or not the backend call
// succeeds.
func (e *Engine) send(ctx context.Context, path string) {
	defer e.inflight.Done()

	entry, err := e.transcribeFile(ctx, path)
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		e.log.WithError(rmErr).Warn("scratch file cleanup failed", logger.Fields(logger.FieldPath, path))
	}

	if err != nil {
		e.state.Store(int32(StateIdle))
		e.log.WithError(err).Error("transcription failed")
		e.notifyError(err)
		e.notifyState(StateIdle)
		return
	}

	e.mu.Lock()
	e.history = append([]HistoryEntry{entry}, e.history...)
	if len(e.history) > e.historyLimit {
		e.history = e.history[:e.historyLimit]
	}
	e.setStateLocked(StateIdle)
	e.mu.Unlock()

	e.log.Info("transcription complete", logger.Fields(
		logger.FieldDuration, entry.AudioDuration.Milliseconds(),
		"text_len", len(entry.Text),
	))
	e.listener.OnResult(entry)
	e.notifyState(StateIdle)
}

func (e *Engine) transcribeFile(ctx context.Context, path string) (HistoryEntry, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return HistoryEntry{}, err
	}
	audioDur, _ := wav.Duration(audio)

	result, err := e.client.Transcribe(ctx, transcribe.Request{Audio: audio})
	if err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{
		Text:          result.Text,
		Language:      result.Language,
		Confidence:    result.Confidence,
		AudioDuration: audioDur,
		CreatedAt:     e.clock(),
	}, nil
}

// tick drives elapsed-time callbacks and forwards amplitude samples
// until told to stop. It never touches e.mu, so stop paths may wait
// for it while holding the lock-free Stopping state.
func (e *Engine) tick(startedAt time.Time, amp <-chan float64, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := e.clock().Sub(startedAt)
			e.elapsedMS.Store(elapsed.Milliseconds())
			e.listener.OnElapsed(elapsed)
		case level, ok := <-amp:
			if !ok {
				amp = nil
				continue
			}
			e.listener.OnAmplitude(level)
		}
	}
}

func stopTicker(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (e *Engine) setStateLocked(s State) {
	e.state.Store(int32(s))
}

func (e *Engine) notifyState(s State) {
	e.listener.OnState(s)
}

func (e *Engine) notifyError(err error) {
	e.listener.OnError(err)
}

// Wait blocks until any in-flight transcription has settled. Intended
// for orderly shutdown.
func (e *Engine) Wait() {
	e.inflight.Wait()
}
