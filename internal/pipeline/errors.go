package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies which external service a pipeline failure came from.
type Kind string

const (
	KindRecognition Kind = "RECOGNITION_ERROR"
	KindGeneration  Kind = "GENERATION_ERROR"
	KindSynthesis   Kind = "SYNTHESIS_ERROR"
)

// Error wraps an underlying service failure with its kind and the pipeline
// step that raised it. The orchestrator halts on the first Error and returns
// it unchanged; no partial session result is produced.
type Error struct {
	Kind Kind
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("pipeline: %s at %s", e.Kind, e.Step)
	}
	return fmt.Sprintf("pipeline: %s at %s: %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(kind Kind, step string, err error) *Error {
	return &Error{Kind: kind, Step: step, Err: err}
}

// KindOf reports the failure kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
