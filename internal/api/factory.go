package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neurovine/assistant/internal/chat"
	apierrors "github.com/neurovine/assistant/internal/errors"
)

// Backend names a completion provider
type Backend string

const (
	BackendGemini     Backend = "gemini"
	BackendGeminiREST Backend = "gemini-rest"
	BackendOpenAI     Backend = "openai"
	BackendEcho       Backend = "echo"
)

// AvailableBackends returns every backend name in display order
func AvailableBackends() []Backend {
	return []Backend{BackendGemini, BackendGeminiREST, BackendOpenAI, BackendEcho}
}

// ParseBackend validates a backend name
func ParseBackend(name string) (Backend, error) {
	normalized := Backend(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "" {
		return BackendGemini, nil
	}
	for _, b := range AvailableBackends() {
		if b == normalized {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q (available: %s)", apierrors.ErrUnknownBackend, name, backendList())
}

func backendList() string {
	names := make([]string, 0, len(AvailableBackends()))
	for _, b := range AvailableBackends() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}

// NeedsAPIKey reports whether the backend requires credentials
func (b Backend) NeedsAPIKey() bool {
	return b != BackendEcho
}

// Settings selects and configures a backend
type Settings struct {
	Backend Backend
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// EchoDelay slows the echo backend down so the waiting state is visible
	EchoDelay time.Duration
}

// NewCompleter builds the chat.Completer for the configured backend
func NewCompleter(ctx context.Context, s Settings) (chat.Completer, error) {
	backend, err := ParseBackend(string(s.Backend))
	if err != nil {
		return nil, err
	}

	var opts []ClientOption
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	if s.Model != "" {
		opts = append(opts, WithModel(s.Model))
	}
	if s.BaseURL != "" {
		opts = append(opts, WithBaseURL(s.BaseURL))
	}

	switch backend {
	case BackendGemini:
		return NewGeminiClient(ctx, s.APIKey, opts...)
	case BackendGeminiREST:
		return NewRESTClient(s.APIKey, opts...)
	case BackendOpenAI:
		return NewOpenAIClient(s.APIKey, opts...)
	default:
		return NewEchoClient(append(opts, WithEchoDelay(s.EchoDelay))...), nil
	}
}
