// Package chat implements the conversation controller behind the assistant
// widget: an append-only message log, a draft buffer and a single in-flight
// completion call per user turn.
package chat

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation log. Content never changes after
// the message is appended.
type Message struct {
	Role    Role
	Content string
}

// Phase is the controller's position in its two-state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingReply
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingReply:
		return "awaiting_reply"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of a conversation.
type State struct {
	// ID correlates diagnostics for one mounted conversation.
	ID            string
	Messages      []Message
	PendingInput  string
	AwaitingReply bool
	// Version increases on every change, so a consumer receiving snapshots
	// from several goroutines can drop stale ones.
	Version uint64
}

// Phase reports the state machine position for the snapshot.
func (s State) Phase() Phase {
	if s.AwaitingReply {
		return PhaseAwaitingReply
	}
	return PhaseIdle
}

// LastAssistant returns the newest assistant message, if any.
func (s State) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Turns counts completed user/assistant pairs after the seeded greeting.
func (s State) Turns() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	if s.AwaitingReply && n > 0 {
		n--
	}
	return n
}
