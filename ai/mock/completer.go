package mock

import (
	"context"
	"errors"
	"sync"
)

// ErrNoResponses is returned by a MockCompleter with neither responses nor a CompleteFunc.
var ErrNoResponses = errors.New("mock completer has no responses configured")

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, canned responses are returned in order.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu        sync.Mutex
	responses []string
	next      int
	prompts   []string
}

// NewMockCompleter creates a mock completer that cycles through responses.
// Note: Returns concrete type to allow test assertions.
func NewMockCompleter(responses ...string) *MockCompleter {
	return &MockCompleter{responses: responses}
}

// Complete records the prompt and returns the next canned response.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.CompleteFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, prompt)
	}
	defer m.mu.Unlock()

	if len(m.responses) == 0 {
		return "", ErrNoResponses
	}
	if m.next >= len(m.responses) {
		m.next = 0
	}
	response := m.responses[m.next]
	m.next++
	return response, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears recorded prompts, the response cursor and the custom function.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.next = 0
	m.CompleteFunc = nil
}
