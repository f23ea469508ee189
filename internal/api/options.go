package api

import (
	"context"
	"time"

	http "github.com/bogdanfinn/fhttp"

	"github.com/neurovine/assistant/internal/chat"
)

// DefaultTimeout bounds a single completion call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// HTTPDoer is the part of an HTTP client the REST backend needs.
// tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type clientOptions struct {
	model     string
	baseURL   string
	timeout   time.Duration
	doer      HTTPDoer
	echoDelay time.Duration
}

// ClientOption is a function that configures a backend client
type ClientOption func(*clientOptions)

// WithModel sets the model used when a request does not name one
func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithBaseURL points the client at a different API host
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithTimeout bounds each completion call
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHTTPDoer replaces the REST backend's HTTP client
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(o *clientOptions) {
		o.doer = doer
	}
}

// WithEchoDelay makes the echo backend wait before replying
func WithEchoDelay(delay time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.echoDelay = delay
	}
}

func applyOptions(opts []ClientOption) clientOptions {
	o := clientOptions{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func pickModel(req chat.Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}

// geminiRole maps conversation roles to the Gemini API vocabulary.
func geminiRole(role chat.Role) string {
	if role == chat.RoleUser {
		return "user"
	}
	return "model"
}
