// Package transcribe talks to a speech-to-text backend over HTTP and
// classifies everything that can go wrong on the way into a fixed
// failure taxonomy.
//
// The Client uploads a recorded WAV as multipart form data to the
// backend's /transcribe endpoint and never retries: a failed upload is
// surfaced to the caller, who decides whether to re-record. Probe
// calls (health, languages, models) are best-effort passthroughs.
//
// # Usage
//
//	client := transcribe.New(transcribe.Config{BaseURL: "http://localhost:8387"})
//	result, err := client.Transcribe(ctx, transcribe.Request{Audio: wavBytes})
//	if err != nil {
//	    var f *transcribe.Failure
//	    errors.As(err, &f) // f.Kind tells you what happened
//	}
package transcribe
