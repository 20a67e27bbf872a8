package tts

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSynthesizer is a mock implementation of Synthesizer using testify/mock.
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
