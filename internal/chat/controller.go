package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// closedDone is returned by Submit when the guard rejects the call, so that
// callers can always wait on the returned channel.
var closedDone = func() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Controller owns one conversation. All methods are safe for concurrent use.
type Controller struct {
	completer Completer
	diag      Diagnostics
	profile   Profile
	now       func() time.Time

	mu       sync.Mutex
	id       string
	messages []Message
	draft    string
	awaiting bool
	closed   bool
	version  uint64
	cancel   context.CancelFunc

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Controller.
type Option func(*Controller)

// WithDiagnostics sets where failed completion calls are reported.
func WithDiagnostics(d Diagnostics) Option {
	return func(c *Controller) {
		if d != nil {
			c.diag = d
		}
	}
}

// WithID overrides the generated conversation id.
func WithID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.id = id
		}
	}
}

// WithClock sets the time source used to measure call latency.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a conversation seeded with the profile greeting.
func NewController(completer Completer, profile Profile, opts ...Option) *Controller {
	c := &Controller{
		completer: completer,
		diag:      nopDiagnostics{},
		profile:   profile,
		now:       time.Now,
		id:        uuid.NewString(),
		messages: []Message{
			{Role: RoleAssistant, Content: profile.Greeting},
		},
		subs: make(map[int]func(State)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ID returns the conversation id.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Profile returns the generation settings the controller was built with.
func (c *Controller) Profile() Profile {
	return c.profile
}

// UpdateDraft replaces the pending input.
func (c *Controller) UpdateDraft(text string) {
	c.mu.Lock()
	if c.draft == text {
		c.mu.Unlock()
		return
	}
	c.draft = text
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Submit starts a turn with the current draft. It returns ok=false and does
// nothing when the trimmed draft is empty, a reply is still pending or the
// controller is closed. Otherwise the user message is appended before Submit
// returns and done is closed once the assistant message has been appended.
func (c *Controller) Submit(ctx context.Context) (done <-chan struct{}, ok bool) {
	c.mu.Lock()
	text := strings.TrimSpace(c.draft)
	if text == "" || c.awaiting || c.closed {
		c.mu.Unlock()
		return closedDone, false
	}

	c.draft = ""
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	c.awaiting = true
	c.version++

	callCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	req := Request{
		Model:             c.profile.Model,
		SystemInstruction: c.profile.SystemInstruction,
		Temperature:       c.profile.Temperature,
		Messages:          cloneMessages(c.messages),
	}
	turn := countRole(c.messages, RoleUser)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)

	ch := make(chan struct{})
	go func() {
		defer close(ch)
		defer cancel()

		start := c.now()
		reply, err := c.complete(callCtx, req)
		c.settle(callCtx, turn, start, reply, err)
	}()

	return ch, true
}

// SubmitAndWait is Submit followed by waiting for the reply. It returns false
// when the guard rejected the submit.
func (c *Controller) SubmitAndWait(ctx context.Context) bool {
	done, ok := c.Submit(ctx)
	<-done
	return ok
}

// Send replaces the draft with text and runs one full turn.
func (c *Controller) Send(ctx context.Context, text string) bool {
	c.UpdateDraft(text)
	return c.SubmitAndWait(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// on the goroutine that made the change and must not block.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Close discards the conversation. A pending call is cancelled and its
// result is dropped; later submits are rejected.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.subMu.Lock()
	c.subs = make(map[int]func(State))
	c.subMu.Unlock()
}

// complete calls the backend and turns a panic into an error.
func (c *Controller) complete(ctx context.Context, req Request) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completer panic: %v", r)
		}
	}()

	if c.completer == nil {
		return "", errors.New("no completer configured")
	}
	return c.completer.Complete(ctx, req)
}

// settle appends the assistant message for a finished call and clears the
// awaiting flag.
func (c *Controller) settle(ctx context.Context, turn int, start time.Time, reply string, err error) {
	content := reply
	switch {
	case err != nil:
		content = c.profile.ErrorFallback
	case strings.TrimSpace(reply) == "":
		content = c.profile.EmptyReplyFallback
	}

	c.mu.Lock()
	c.awaiting = false
	c.cancel = nil
	closed := c.closed
	if !closed {
		c.messages = append(c.messages, Message{Role: RoleAssistant, Content: content})
		c.version++
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil && !(closed && errors.Is(err, context.Canceled)) {
		c.diag.Report(context.WithoutCancel(ctx), ErrorRecord{
			ConversationID: snap.ID,
			Turn:           turn,
			Model:          c.profile.Model,
			Elapsed:        c.now().Sub(start),
			Err:            err,
		})
	}

	if !closed {
		c.notify(snap)
	}
}

func (c *Controller) snapshotLocked() State {
	return State{
		ID:            c.id,
		Messages:      cloneMessages(c.messages),
		PendingInput:  c.draft,
		AwaitingReply: c.awaiting,
		Version:       c.version,
	}
}

func (c *Controller) notify(snap State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func countRole(msgs []Message, role Role) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role {
			n++
		}
	}
	return n
}
