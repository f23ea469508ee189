package api

import (
	"context"
	"sync"

	"github.com/neurovine/assistant/internal/chat"
)

// MockCompleter is a scriptable chat.Completer for testing
type MockCompleter struct {
	mu sync.Mutex

	// Mock return values
	Reply   string
	Replies []string // consumed in order before falling back to Reply
	Err     error

	// Block, when set, makes Complete wait until it is closed or ctx ends
	Block chan struct{}

	// Call recorders
	Calls       int
	LastRequest chat.Request
}

// Ensure MockCompleter implements chat.Completer
var _ chat.Completer = (*MockCompleter)(nil)

func (m *MockCompleter) Complete(ctx context.Context, req chat.Request) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.LastRequest = req
	m.LastRequest.Messages = append([]chat.Message(nil), req.Messages...)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) > 0 {
		reply := m.Replies[0]
		m.Replies = m.Replies[1:]
		return reply, nil
	}
	return m.Reply, nil
}

// CallCount returns how many times Complete was invoked
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// Last returns a copy of the most recent request
func (m *MockCompleter) Last() chat.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastRequest
}
