package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/voicekit/capture"
	"github.com/kbukum/voicekit/testutil"
	"github.com/kbukum/voicekit/transcribe"
)

type fakeRecorder struct {
	mu       sync.Mutex
	path     string
	amp      chan float64
	startErr error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{amp: make(chan float64, 8)}
}

func (r *fakeRecorder) Start(_ context.Context, path string) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
	return nil
}

func (r *fakeRecorder) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" {
		return nil
	}
	return os.WriteFile(r.path, testutil.WAVBytes(testutil.DefaultWAVSpec()), 0o600)
}

func (r *fakeRecorder) Amplitude() <-chan float64 { return r.amp }

type grantedPerms struct{}

func (grantedPerms) Status(context.Context) capture.PermissionStatus {
	return capture.PermissionGranted
}

func (grantedPerms) Request(context.Context) (bool, error) { return true, nil }

// fakeBackend is a canned transcription provider.
type fakeBackend struct {
	mu      sync.Mutex
	result  *transcribe.Result
	err     error
	gotReqs []transcribe.Request
	block   chan struct{}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) IsAvailable(context.Context) bool { return true }

func (b *fakeBackend) Transcribe(_ context.Context, req transcribe.Request) (*transcribe.Result, error) {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gotReqs = append(b.gotReqs, req)
	if b.err != nil {
		return nil, b.err
	}
	return b.result, nil
}

func (b *fakeBackend) requests() []transcribe.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]transcribe.Request, len(b.gotReqs))
	copy(out, b.gotReqs)
	return out
}

// recordingListener collects state transitions for assertions.
type recordingListener struct {
	NopListener
	mu      sync.Mutex
	states  []State
	errs    []error
	results []HistoryEntry
}

func (l *recordingListener) OnState(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *recordingListener) OnResult(e HistoryEntry) {
	l.mu.Lock()
	l.results = append(l.results, e)
	l.mu.Unlock()
}

func (l *recordingListener) snapshot() ([]State, []error, []HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...), append([]error(nil), l.errs...), append([]HistoryEntry(nil), l.results...)
}

func newTestEngine(t *testing.T, backend transcribe.Provider, opts ...Option) (*Engine, *fakeRecorder, string) {
	t.Helper()
	dir := t.TempDir()
	rec := newFakeRecorder()
	session := capture.NewSession(capture.Config{ScratchDir: dir}, rec, grantedPerms{})
	opts = append([]Option{WithTickInterval(5 * time.Millisecond)}, opts...)
	return New(session, backend, opts...), rec, dir
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()
	e.Wait()
	deadline := time.Now().Add(2 * time.Second)
	for e.State() != StateIdle {
		if time.Now().After(deadline) {
			t.Fatalf("engine never returned to idle, state = %s", e.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func scratchFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestToggleSuccessCycle(t *testing.T) {
	backend := &fakeBackend{result: &transcribe.Result{Text: "hello world", Language: "en", Confidence: 0.93}}
	listener := &recordingListener{}
	e, _, dir := newTestEngine(t, backend, WithListener(listener))
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if got := e.State(); got != StateRecording {
		t.Fatalf("state after start = %s, want recording", got)
	}
	if err := e.Toggle(ctx); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	waitIdle(t, e)

	entry, ok := e.LastEntry()
	if !ok {
		t.Fatal("no history entry after successful cycle")
	}
	if entry.Text != "hello world" || entry.Language != "en" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.AudioDuration != time.Second {
		t.Errorf("audio duration = %s, want 1s", entry.AudioDuration)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("entry timestamp not set")
	}
	if files := scratchFiles(t, dir); len(files) != 0 {
		t.Errorf("scratch files left behind: %v", files)
	}
	_, _, results := listener.snapshot()
	if len(results) != 1 {
		t.Fatalf("OnResult fired %d times, want 1", len(results))
	}
}

func TestToggleSendsCapturedAudio(t *testing.T) {
	backend := &fakeBackend{result: &transcribe.Result{Text: "ok"}}
	e, _, _ := newTestEngine(t, backend)
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	reqs := backend.requests()
	if len(reqs) != 1 {
		t.Fatalf("backend received %d requests, want 1", len(reqs))
	}
	want := testutil.WAVBytes(testutil.DefaultWAVSpec())
	if len(reqs[0].Audio) != len(want) {
		t.Errorf("audio size = %d, want %d", len(reqs[0].Audio), len(want))
	}
}

func TestToggleFailureReturnsIdleAndKeepsHistory(t *testing.T) {
	failure := &transcribe.Failure{Kind: transcribe.KindConnRefused, Message: "connection refused"}
	backend := &fakeBackend{err: failure}
	listener := &recordingListener{}
	e, _, dir := newTestEngine(t, backend, WithListener(listener))
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	if len(e.History()) != 0 {
		t.Errorf("history grew on failure: %v", e.History())
	}
	_, errs, _ := listener.snapshot()
	if len(errs) != 1 {
		t.Fatalf("OnError fired %d times, want 1", len(errs))
	}
	if !transcribe.IsConnRefused(errs[0]) {
		t.Errorf("OnError error = %v, want connection refused", errs[0])
	}
	// The scratch file is removed even when the backend call fails.
	if files := scratchFiles(t, dir); len(files) != 0 {
		t.Errorf("scratch files left behind: %v", files)
	}
}

func TestToggleIgnoredWhileTranscribing(t *testing.T) {
	backend := &fakeBackend{result: &transcribe.Result{Text: "slow"}, block: make(chan struct{})}
	e, _, _ := newTestEngine(t, backend)
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for e.State() != StateTranscribing {
		if time.Now().After(deadline) {
			t.Fatalf("never reached transcribing, state = %s", e.State())
		}
		time.Sleep(time.Millisecond)
	}

	// Extra toggles while the request is in flight do nothing.
	if err := e.Toggle(ctx); err != nil {
		t.Fatalf("toggle while transcribing: %v", err)
	}
	if got := e.State(); got != StateTranscribing {
		t.Fatalf("state after ignored toggle = %s", got)
	}

	close(backend.block)
	waitIdle(t, e)
	if len(backend.requests()) != 1 {
		t.Errorf("backend received %d requests, want 1", len(backend.requests()))
	}
}

func TestToggleStartFailure(t *testing.T) {
	rec := newFakeRecorder()
	rec.startErr = errors.New("device busy")
	session := capture.NewSession(capture.Config{ScratchDir: t.TempDir()}, rec, grantedPerms{})
	e := New(session, &fakeBackend{})

	err := e.Toggle(context.Background())
	if err == nil {
		t.Fatal("expected start error")
	}
	if got := e.State(); got != StateIdle {
		t.Errorf("state after failed start = %s, want idle", got)
	}
}

func TestCancelDiscardsRecording(t *testing.T) {
	backend := &fakeBackend{result: &transcribe.Result{Text: "nope"}}
	e, _, dir := newTestEngine(t, backend)
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	e.Cancel(ctx)

	if got := e.State(); got != StateIdle {
		t.Fatalf("state after cancel = %s, want idle", got)
	}
	if len(backend.requests()) != 0 {
		t.Error("cancel must not reach the backend")
	}
	if files := scratchFiles(t, dir); len(files) != 0 {
		t.Errorf("scratch files left behind: %v", files)
	}
	if len(e.History()) != 0 {
		t.Error("cancel must not add history")
	}
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeBackend{})
	e.Cancel(context.Background())
	if got := e.State(); got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestHistoryNewestFirstAndBounded(t *testing.T) {
	backend := &fakeBackend{}
	e, _, _ := newTestEngine(t, backend, WithHistoryLimit(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		backend.mu.Lock()
		backend.result = &transcribe.Result{Text: fmt.Sprintf("take %d", i)}
		backend.mu.Unlock()
		if err := e.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		if err := e.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		waitIdle(t, e)
	}

	hist := e.History()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	for i, want := range []string{"take 4", "take 3", "take 2"} {
		if hist[i].Text != want {
			t.Errorf("history[%d] = %q, want %q", i, hist[i].Text, want)
		}
	}
}

func TestClearHistory(t *testing.T) {
	backend := &fakeBackend{result: &transcribe.Result{Text: "gone"}}
	e, _, _ := newTestEngine(t, backend)
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	if len(e.History()) != 1 {
		t.Fatalf("history length = %d, want 1", len(e.History()))
	}
	e.ClearHistory()
	if len(e.History()) != 0 {
		t.Error("history not cleared")
	}
	if _, ok := e.LastEntry(); ok {
		t.Error("LastEntry should report empty after clear")
	}
}

func TestElapsedTicksWhileRecording(t *testing.T) {
	var ticks sync.WaitGroup
	ticks.Add(2)
	tl := &tickListener{inner: NopListener{}, onTick: ticks.Done}
	e, _, _ := newTestEngine(t, &fakeBackend{result: &transcribe.Result{}}, WithListener(tl))
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		ticks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("elapsed ticks never fired")
	}
	e.Cancel(ctx)
	if e.Elapsed() != 0 {
		t.Errorf("elapsed after cancel = %s, want 0", e.Elapsed())
	}
}

// tickListener counts OnElapsed calls on top of another listener.
type tickListener struct {
	inner  Listener
	mu     sync.Mutex
	fired  int
	onTick func()
}

func (l *tickListener) OnState(s State) { l.inner.OnState(s) }

func (l *tickListener) OnAmplitude(level float64) { l.inner.OnAmplitude(level) }

func (l *tickListener) OnResult(e HistoryEntry) { l.inner.OnResult(e) }

func (l *tickListener) OnError(err error) { l.inner.OnError(err) }

func (l *tickListener) OnElapsed(time.Duration) {
	l.mu.Lock()
	l.fired++
	fire := l.fired <= 2
	l.mu.Unlock()
	if fire && l.onTick != nil {
		l.onTick()
	}
}

func TestAmplitudeForwarding(t *testing.T) {
	got := make(chan float64, 1)
	l := &ampListener{out: got}
	e, rec, _ := newTestEngine(t, &fakeBackend{result: &transcribe.Result{}}, WithListener(l))
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	rec.amp <- 0.42
	select {
	case v := <-got:
		if v != 0.42 {
			t.Errorf("amplitude = %v, want 0.42", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("amplitude never forwarded")
	}
	e.Cancel(ctx)
}

type ampListener struct {
	NopListener
	out chan float64
}

func (l *ampListener) OnAmplitude(level float64) {
	select {
	case l.out <- level:
	default:
	}
}

// TestEndToEndWithHTTPBackend runs the full cycle against a stub
// transcription server over real HTTP.
func TestEndToEndWithHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"result":{"text":"end to end","detectedLanguage":"en","confidence":0.9}}`))
	}))
	defer srv.Close()

	client := transcribe.New(transcribe.Config{BaseURL: srv.URL})
	e, _, dir := newTestEngine(t, client)
	ctx := context.Background()

	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	entry, ok := e.LastEntry()
	if !ok || entry.Text != "end to end" {
		t.Fatalf("entry = %+v, ok = %v", entry, ok)
	}
	if files := scratchFiles(t, dir); len(files) != 0 {
		t.Errorf("scratch files left behind: %v", files)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{time.Second, "00:01"},
		{59 * time.Second, "00:59"},
		{83 * time.Second, "01:23"},
		{61 * time.Minute, "61:00"},
		{-time.Second, "00:00"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.d); got != tc.want {
			t.Errorf("FormatClock(%s) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:         "idle",
		StateRecording:    "recording",
		StateStopping:     "stopping",
		StateTranscribing: "transcribing",
		State(99):         "state(99)",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
