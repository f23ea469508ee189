package chat

import (
	"context"
	"time"
)

// Request is what a completion backend receives for one turn: the whole
// transcript plus the fixed generation settings of the deployment.
type Request struct {
	Model             string
	SystemInstruction string
	Temperature       float32
	Messages          []Message
}

// Completer produces the next assistant reply for a transcript. Backends map
// RoleUser/RoleAssistant to their own role names and keep no state between
// calls.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrorRecord describes one failed completion call.
type ErrorRecord struct {
	ConversationID string
	Turn           int
	Model          string
	Elapsed        time.Duration
	Err            error
}

// Diagnostics receives failed completion calls. Report must not block for
// long; its result is ignored.
type Diagnostics interface {
	Report(ctx context.Context, rec ErrorRecord)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Report(context.Context, ErrorRecord) {}

// Profile holds the fixed, per-deployment texts and generation settings.
type Profile struct {
	Greeting           string
	SystemInstruction  string
	Temperature        float32
	Model              string
	EmptyReplyFallback string
	ErrorFallback      string
}
