package providers

import (
	"context"
	"sync"
)

// MockClient is a scripted model client for tests.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
	ModelName string
}

// NewMockClient returns a client that yields the given responses in order,
// repeating the last one once exhausted.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses, ModelName: "mock-model"}
}

// Fail makes every Generate call return err.
func (m *MockClient) Fail(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MockClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.prompts = append(m.prompts, prompt)
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", ErrEmptyResponse
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *MockClient) Model() string { return m.ModelName }
func (m *MockClient) Name() string  { return "mock" }

// Calls returns the number of Generate invocations.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns all prompts received.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
