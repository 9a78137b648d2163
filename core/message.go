package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the conversational function of a transcript entry. The set
// is closed: providers only ever see system/user/assistant after projection,
// while narrator marks operator-injected scene directions.
type Role string

const (
	// RoleSystem marks instruction or setup entries.
	RoleSystem Role = "system"
	// RoleUser marks entries perceived as coming from the counterpart.
	RoleUser Role = "user"
	// RoleAssistant marks entries authored by the speaking agent itself.
	RoleAssistant Role = "assistant"
	// RoleNarrator marks operator-injected scene directions added while the
	// conversation is paused.
	RoleNarrator Role = "narrator"
)

// NarratorAuthor is the author recorded on operator-injected messages.
const NarratorAuthor = "narrator"

// TokenUsage captures token counts reported (or estimated) for one provider
// exchange. Counts of zero with a nil pointer at the Message level mean the
// provider did not report usage; absence is not an error.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined input + output token count.
func (u TokenUsage) Total() int { return u.InputTokens + u.OutputTokens }

// Message is one transcript entry. After it has been appended to a
// Conversation it must be treated as immutable; ordering in the transcript is
// append order, which equals turn/causal order.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Author    string      `json:"author"` // agent name, "narrator" or "system"
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Usage     *TokenUsage `json:"usage,omitempty"`
}

// NewMessage creates a message authored now (UTC) with a fresh ID.
func NewMessage(role Role, author, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewNarratorMessage creates an operator-injected scene direction.
func NewNarratorMessage(content string) Message {
	return NewMessage(RoleNarrator, NarratorAuthor, content)
}

// NewID generates a new unique identifier for messages and conversations.
func NewID() string { return uuid.NewString() }
