package llm

import "context"

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// Explain answers a student's question in a teacher-style register.
	Explain(ctx context.Context, query string) (string, error)
	// SummarizeNotes condenses an explanation into short class-notes bullets.
	SummarizeNotes(ctx context.Context, text string) ([]string, error)
	// TranscriptNotes produces class-notes bullets from a dubbed video transcript.
	TranscriptNotes(ctx context.Context, transcript string) ([]string, error)
}
