package speech

import "context"

// Transcriber converts a captured audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
