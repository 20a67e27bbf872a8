package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"askify/internal/llm"
	"askify/internal/speech"
	"askify/internal/tts"
)

// Input is one raw session request: either a typed question or a recorded
// audio clip to transcribe. Exactly one of the two should be set.
type Input struct {
	Query string
	Audio []byte
}

// SessionResult aggregates the output of one full pipeline run.
type SessionResult struct {
	Query       string
	Explanation string
	Notes       []string
	Audio       []byte
}

// Runner sequences input capture, explanation, summarization and narration
// for a single session. Sessions share no state; a Runner is safe for
// concurrent use as long as its collaborators are.
type Runner struct {
	transcriber speech.Transcriber
	llm         llm.Client
	synth       tts.Synthesizer
	log         *slog.Logger
}

func NewRunner(transcriber speech.Transcriber, llmClient llm.Client, synth tts.Synthesizer, log *slog.Logger) *Runner {
	return &Runner{
		transcriber: transcriber,
		llm:         llmClient,
		synth:       synth,
		log:         log,
	}
}

// Run executes capture → explain → {summarize, narrate} and assembles the
// session result. The first failing step aborts the run with its error kind.
// Summarization and narration both depend only on the explanation, so they
// run concurrently.
func (r *Runner) Run(ctx context.Context, in Input) (SessionResult, error) {
	query, err := r.capture(ctx, in)
	if err != nil {
		return SessionResult{}, err
	}

	r.log.Info("query captured", "query", query)

	explanation, err := r.llm.Explain(ctx, query)
	if err != nil {
		return SessionResult{}, newError(KindGeneration, "explain", err)
	}
	if strings.TrimSpace(explanation) == "" {
		return SessionResult{}, newError(KindGeneration, "explain", fmt.Errorf("empty explanation"))
	}

	var (
		notes []string
		audio []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = r.llm.SummarizeNotes(gctx, explanation)
		if err != nil {
			return newError(KindGeneration, "summarize", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		audio, err = r.synth.Synthesize(gctx, explanation)
		if err != nil {
			return newError(KindSynthesis, "narrate", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return SessionResult{}, err
	}

	r.log.Info("session complete", "notes", len(notes), "audio_bytes", len(audio))

	return SessionResult{
		Query:       query,
		Explanation: explanation,
		Notes:       notes,
		Audio:       audio,
	}, nil
}

func (r *Runner) capture(ctx context.Context, in Input) (string, error) {
	if len(in.Audio) > 0 {
		text, err := r.transcriber.Transcribe(ctx, in.Audio)
		if err != nil {
			return "", newError(KindRecognition, "capture", err)
		}
		if strings.TrimSpace(text) == "" {
			return "", newError(KindRecognition, "capture", fmt.Errorf("no speech recognized"))
		}
		return strings.TrimSpace(text), nil
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return "", newError(KindRecognition, "capture", fmt.Errorf("empty query"))
	}
	return query, nil
}
