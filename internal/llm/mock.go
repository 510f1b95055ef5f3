package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// mockModel is the model id reported by the mock backends.
const mockModel = "mock"

// MockResponse is one canned reply of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// StopReason defaults to "end".
	StopReason string
}

// MockProvider replays canned responses in order and records every
// request with the purpose it was made for. It backs tests and runs with
// no configured provider, where an empty queue makes every call fail with
// UnavailableError.
type MockProvider struct {
	mu       sync.Mutex
	queue    []MockResponse
	Calls    []Request
	purposes []string
}

// NewMockProvider creates a MockProvider that replays responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	m.purposes = append(m.purposes, PurposeFrom(ctx))

	if len(m.queue) == 0 {
		return nil, &UnavailableError{Err: errors.New("no canned response left")}
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	if next.Err != nil {
		return nil, next.Err
	}

	stop := next.StopReason
	if stop == "" {
		stop = "end"
	}
	return &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      mockModel,
		StopReason: stop,
	}, nil
}

func (m *MockProvider) ModelID() string { return mockModel }

// AddResponse queues another canned response.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// CallCount returns the number of Generate calls so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Purposes returns the purpose of each Generate call in call order.
func (m *MockProvider) Purposes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.purposes...)
}

// MockSynthesizer answers every speech request with the same PCM, or with
// Err when set.
type MockSynthesizer struct {
	mu    sync.Mutex
	PCM   []byte
	Err   error
	Calls []SpeechRequest
}

// NewMockSynthesizer returns a synthesizer that always yields pcm.
func NewMockSynthesizer(pcm []byte) *MockSynthesizer {
	return &MockSynthesizer{PCM: pcm}
}

func (m *MockSynthesizer) Synthesize(_ context.Context, req SpeechRequest) (*SpeechResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, speechFailure(mockModel, "", m.Err)
	}
	return &SpeechResponse{
		PCM:        append([]byte(nil), m.PCM...),
		SampleRate: speechSampleRate,
		Model:      mockModel,
	}, nil
}

// CallCount returns the number of Synthesize calls so far.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
