package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/voicekit/logger"
)

// Config holds configuration for a capture session.
type Config struct {
	// ScratchDir is where short-lived recording files are written.
	// Defaults to the OS temp directory.
	ScratchDir string `yaml:"scratch_dir" mapstructure:"scratch_dir"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.ScratchDir == "" {
		c.ScratchDir = os.TempDir()
	}
}

// Handle identifies one completed or in-progress recording.
type Handle struct {
	// Path is the recording's location on storage.
	Path string
	// StartedAt is when capture began.
	StartedAt time.Time
}

// Session drives one Recorder through start/stop/cancel and owns the
// scratch file the recorder writes to.
type Session struct {
	cfg   Config
	rec   Recorder
	perms Permissions
	log   *logger.Logger

	mu       sync.Mutex
	active   *Handle
	lastPath string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used by the session.
func WithLogger(log *logger.Logger) SessionOption {
	return func(s *Session) {
		s.log = log.WithComponent("capture")
	}
}

// NewSession creates a capture session around the given recorder and
// permission capability.
func NewSession(cfg Config, rec Recorder, perms Permissions, opts ...SessionOption) *Session {
	cfg.ApplyDefaults()
	s := &Session{
		cfg:   cfg,
		rec:   rec,
		perms: perms,
		log:   logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start begins a new capture attempt. An active attempt is stopped and
// discarded first: the most recent start always wins, nothing queues.
func (s *Session) Start(ctx context.Context) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.log.Warn("capture already active, discarding previous attempt",
			logger.Fields(logger.FieldPath, s.active.Path))
		s.discardLocked(ctx)
	}

	if !s.permitted(ctx) {
		return nil, newPermissionDenied()
	}

	path := filepath.Join(s.cfg.ScratchDir, "rec-"+uuid.NewString()+".wav")
	if err := s.rec.Start(ctx, path); err != nil {
		return nil, newDeviceError("start", err)
	}

	s.active = &Handle{Path: path, StartedAt: time.Now()}
	s.lastPath = path
	s.log.Info("capture started", logger.Fields(logger.FieldPath, path))
	return s.active, nil
}

// Stop finalizes the current capture and returns its handle. When no
// capture is active both return values are nil. The session always
// lands idle, even when the recorder fails or produced no file.
func (s *Session) Stop(ctx context.Context) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, nil
	}
	handle := s.active
	s.active = nil

	if err := s.rec.Stop(ctx); err != nil {
		s.log.Warn("recorder stop failed", logger.ErrorFields("stop", err))
	}
	if _, err := os.Stat(handle.Path); err != nil {
		return nil, newFileMissing(handle.Path)
	}

	s.log.Info("capture stopped", logger.Fields(
		logger.FieldPath, handle.Path,
		logger.FieldDuration, time.Since(handle.StartedAt).Milliseconds(),
	))
	return handle, nil
}

// Cancel aborts the current attempt and removes its file. It is safe
// to call when idle and never returns an error: cleanup failures are
// logged and swallowed so the caller can always proceed.
func (s *Session) Cancel(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked(ctx)
}

// Active reports whether a capture attempt is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Amplitude exposes the recorder's level stream for visualization.
func (s *Session) Amplitude() <-chan float64 {
	return s.rec.Amplitude()
}

// discardLocked stops any active capture and removes the last known
// file. Best effort by design: it must never block the state machine.
func (s *Session) discardLocked(ctx context.Context) {
	if s.active != nil {
		if err := s.rec.Stop(ctx); err != nil {
			s.log.Warn("recorder stop failed during discard", logger.ErrorFields("stop", err))
		}
		s.active = nil
	}
	if s.lastPath == "" {
		return
	}
	if err := os.Remove(s.lastPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("could not remove recording file", logger.ErrorFields("remove", err))
	} else {
		s.log.Debug("recording file removed", logger.Fields(logger.FieldPath, s.lastPath))
	}
	s.lastPath = ""
}

// permitted checks, and if necessary requests, microphone permission.
func (s *Session) permitted(ctx context.Context) bool {
	switch s.perms.Status(ctx) {
	case PermissionGranted:
		return true
	case PermissionDenied:
		return false
	}
	granted, err := s.perms.Request(ctx)
	if err != nil {
		s.log.Warn("permission request failed", logger.ErrorFields("request", err))
		return false
	}
	return granted
}
