package api

import (
	"context"
	"strings"
	"time"

	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/models"
)

// EchoClient answers locally without any network access. It repeats the
// latest user message, which makes it useful for demos and offline runs.
type EchoClient struct {
	opts clientOptions
}

var _ chat.Completer = (*EchoClient)(nil)

// NewEchoClient creates an EchoClient
func NewEchoClient(opts ...ClientOption) *EchoClient {
	o := applyOptions(opts)
	if o.model == "" {
		o.model = models.ModelEcho.Name
	}
	return &EchoClient{opts: o}
}

// Model returns the model name reported by the client
func (c *EchoClient) Model() string {
	return c.opts.model
}

// Complete returns "Echo: <last user message>"
func (c *EchoClient) Complete(ctx context.Context, req chat.Request) (string, error) {
	if c.opts.echoDelay > 0 {
		timer := time.NewTimer(c.opts.echoDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == chat.RoleUser {
			return "Echo: " + strings.TrimSpace(req.Messages[i].Content), nil
		}
	}
	return "", nil
}
