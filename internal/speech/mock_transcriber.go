package speech

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTranscriber is a mock implementation of Transcriber using testify/mock.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}
