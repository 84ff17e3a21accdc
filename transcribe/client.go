package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/observability"
	"github.com/kbukum/voicekit/provider"
	"github.com/kbukum/voicekit/version"
)

const (
	// ProviderName is the registered name for the whisper backend client.
	ProviderName = "whisper"

	defaultBaseURL        = "http://localhost:8387"
	defaultModelSize      = "base"
	defaultLanguage       = "auto"
	defaultConnectTimeout = 30 * time.Second
	defaultSendTimeout    = 60 * time.Second
	defaultReceiveTimeout = 120 * time.Second
)

// Config holds configuration for the transcription client.
type Config struct {
	// BaseURL is the backend base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	// ModelSize is the default model when a request does not set one.
	ModelSize string `yaml:"model_size" mapstructure:"model_size"`
	// Language is the default language hint ("auto" detects).
	Language string `yaml:"language" mapstructure:"language"`
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	// SendTimeout bounds the probe calls (health, languages, models).
	SendTimeout time.Duration `yaml:"send_timeout" mapstructure:"send_timeout"`
	// ReceiveTimeout bounds the full transcription round trip.
	// Recordings are short but backend inference may be slow.
	ReceiveTimeout time.Duration `yaml:"receive_timeout" mapstructure:"receive_timeout"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.ModelSize == "" {
		c.ModelSize = defaultModelSize
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = defaultReceiveTimeout
	}
}

// Client sends recorded audio to the transcription backend. It performs
// no retries: resubmitting a large upload silently is worse than asking
// the user to try again.
type Client struct {
	cfg     Config
	http    *http.Client
	probe   *http.Client
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.log = log.WithComponent("transcribe")
	}
}

// WithMetrics sets the metric instruments recorded per attempt.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a transcription client for the backend at cfg.BaseURL.
func New(cfg Config, opts ...Option) *Client {
	cfg.ApplyDefaults()

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReceiveTimeout,
		},
		probe: &http.Client{
			Transport: transport,
			Timeout:   cfg.SendTimeout,
		},
		log: logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Factory returns a provider.Factory that creates Clients from a
// generic config map.
func Factory(opts ...Option) provider.Factory[Provider] {
	return func(cfg map[string]any) (Provider, error) {
		cc := Config{}
		if v, ok := cfg["base_url"].(string); ok {
			cc.BaseURL = v
		}
		if v, ok := cfg["model_size"].(string); ok {
			cc.ModelSize = v
		}
		if v, ok := cfg["language"].(string); ok {
			cc.Language = v
		}
		if v, ok := cfg["connect_timeout"].(time.Duration); ok {
			cc.ConnectTimeout = v
		}
		if v, ok := cfg["send_timeout"].(time.Duration); ok {
			cc.SendTimeout = v
		}
		if v, ok := cfg["receive_timeout"].(time.Duration); ok {
			cc.ReceiveTimeout = v
		}
		return New(cc, opts...), nil
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// IsAvailable checks if the backend is reachable. Any failure is
// swallowed and reported as false: this is a probe, not an operation.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe uploads the request's audio and returns the transcript.
// A non-nil error is always a *Failure carrying the classified kind;
// there is no outcome besides a result or a classified failure.
func (c *Client) Transcribe(ctx context.Context, req Request) (*Result, error) {
	lang := req.Language
	if lang == "" {
		lang = c.cfg.Language
	}
	model := req.ModelSize
	if model == "" {
		model = c.cfg.ModelSize
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBackend, ProviderName)
	observability.SetSpanAttribute(ctx, observability.AttrModelSize, model)
	observability.SetSpanAttribute(ctx, observability.AttrLanguage, lang)
	observability.SetSpanAttribute(ctx, observability.AttrAudioBytes, len(req.Audio))

	start := time.Now()
	result, err := c.transcribeOnce(ctx, req.Audio, lang, model)
	elapsed := time.Since(start)

	if err != nil {
		var f *Failure
		if !errors.As(err, &f) {
			f = &Failure{Kind: KindUnknown, Message: err.Error(), Err: err}
		}
		observability.SetSpanError(ctx, f)
		observability.SetSpanAttribute(ctx, observability.AttrFailureKind, f.Kind.String())
		c.metrics.RecordTranscription(ctx, ProviderName, f.Kind.String(), elapsed)
		c.log.Warn("transcription failed", logger.Fields(
			logger.FieldKind, f.Kind.String(),
			logger.FieldError, f.Message,
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, f
	}

	c.metrics.RecordTranscription(ctx, ProviderName, "success", elapsed)
	c.log.Debug("transcription ok", logger.Fields(
		"language", result.Language,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return result, nil
}

// transcribeOnce performs the single multipart upload.
func (c *Client) transcribeOnce(ctx context.Context, audio []byte, lang, model string) (*Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return nil, &Failure{Kind: KindUnknown, Message: "create form file: " + err.Error(), Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return nil, &Failure{Kind: KindUnknown, Message: "write audio data: " + err.Error(), Err: err}
	}
	_ = writer.WriteField("language", lang)
	_ = writer.WriteField("model_size", model)
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transcribe", &buf)
	if err != nil {
		return nil, &Failure{Kind: KindUnknown, Message: "create request: " + err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Failure{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: serverMessage(resp.StatusCode, body),
		}
	}

	var decoded transcribeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &Failure{
			Kind:    KindMalformed,
			Status:  resp.StatusCode,
			Message: "undecodable response body",
			Err:     err,
		}
	}
	if !decoded.Success || decoded.Result == nil {
		msg := decoded.Message
		if msg == "" {
			msg = "backend reported no result"
		}
		return nil, &Failure{
			Kind:    KindMalformed,
			Status:  resp.StatusCode,
			Message: msg,
		}
	}

	return &Result{
		Text:       decoded.Result.Text,
		Language:   decoded.Result.DetectedLanguage,
		Confidence: decoded.Result.Confidence,
		Timings:    decoded.Result.Timings,
	}, nil
}

// Languages fetches the backend's supported language map. Passthrough:
// no retry, no caching, nil on failure.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	var langs map[string]string
	if err := c.getJSON(ctx, "/languages", &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Models fetches the backend's model catalog. Passthrough like Languages.
func (c *Client) Models(ctx context.Context) (map[string]ModelInfo, error) {
	var models map[string]ModelInfo
	if err := c.getJSON(ctx, "/models", &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return &Failure{Kind: KindUnknown, Message: "create request: " + err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.probe.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &Failure{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: serverMessage(resp.StatusCode, body),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Failure{Kind: KindMalformed, Status: resp.StatusCode, Message: "undecodable response body", Err: err}
	}
	return nil
}

// serverMessage extracts a caller-facing message from a non-200 body:
// the backend's JSON message when present, the trimmed body otherwise,
// and the status text as a last resort.
func serverMessage(status int, body []byte) string {
	var decoded transcribeResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Message != "" {
		return decoded.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
