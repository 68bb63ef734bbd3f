package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"scenario-bot/internal/domain"
)

type llmResponse struct {
	text string
	err  error
}

// mockLLM answers tone requests (JSON mode) and scenario requests from
// separate queues. The last response of a queue repeats once exhausted.
type mockLLM struct {
	mu        sync.Mutex
	tone      []llmResponse
	scenario  []llmResponse
	toneCalls int
	scnCalls  int
	requests  []domain.GenerationRequest
	panicMsg  string
}

func (m *mockLLM) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if req.JSON {
		m.toneCalls++
		return pick(m.tone, m.toneCalls)
	}
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.scnCalls++
	return pick(m.scenario, m.scnCalls)
}

func pick(responses []llmResponse, call int) (string, error) {
	if len(responses) == 0 {
		return "", errors.New("no llm response configured")
	}
	idx := call - 1
	if idx >= len(responses) {
		idx = len(responses) - 1
	}
	return responses[idx].text, responses[idx].err
}

type captureReplier struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (c *captureReplier) Reply(_ context.Context, _ domain.Command, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, text)
	return c.err
}

type mockHistory struct {
	mu      sync.Mutex
	entries map[string][]string
	err     error
}

func (m *mockHistory) Append(_ context.Context, userID, entry string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.entries == nil {
		m.entries = map[string][]string{}
	}
	m.entries[userID] = append(m.entries[userID], entry)
	return nil
}

type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string       { return e.msg }
func (e *statusError) HTTPStatusCode() int { return e.status }

func expectUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}
