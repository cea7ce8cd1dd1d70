package transcription

import "context"

// Result is what a provider returns for one clip.
type Result struct {
	Text       string
	Confidence float64
	Language   string
}

// Transcriber turns one short audio clip into text.
type Transcriber interface {
	// Transcribe runs the model over a single clip
	Transcribe(ctx context.Context, clipPath string) (Result, error)

	// Name identifies the provider ("whisper", "openai", "gcp")
	Name() string

	// Model is the model the provider runs
	Model() string

	// Available returns nil when the provider can be used right now
	Available(ctx context.Context) error
}

// Provenance is the provider string stored on transcript entries.
func Provenance(t Transcriber) string {
	if m := t.Model(); m != "" {
		return t.Name() + ":" + m
	}
	return t.Name()
}
