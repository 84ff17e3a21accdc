package transcribe

// Request holds one transcription attempt. It is built once per
// recording and not reused.
type Request struct {
	// Audio is the complete WAV container to transcribe.
	Audio []byte
	// Language is the expected language, or "auto" for detection.
	Language string
	// ModelSize selects the backend model (e.g. "tiny", "base", "small").
	ModelSize string
}

// Result holds a successful transcription.
type Result struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Language is the detected or requested language.
	Language string `json:"language"`
	// Confidence is the backend's confidence in the transcript, 0..1.
	Confidence float64 `json:"confidence"`
	// Timings holds backend-reported phase timings in seconds.
	Timings map[string]float64 `json:"timings,omitempty"`
}

// ModelInfo describes one backend model.
type ModelInfo struct {
	// Name is the human-readable display name.
	Name string `json:"name"`
	// Size is the approximate model size (e.g. "74 MB").
	Size string `json:"size"`
	// Accuracy is the backend's accuracy tier for the model.
	Accuracy string `json:"accuracy"`
}

// --- wire types for the backend's /transcribe response ---

type transcribeResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Result  *transcribeResult `json:"result,omitempty"`
}

type transcribeResult struct {
	Text             string             `json:"text"`
	DetectedLanguage string             `json:"detectedLanguage"`
	Confidence       float64            `json:"confidence"`
	Timings          map[string]float64 `json:"timings,omitempty"`
}
