package core

import "time"

// Conversation is the mutable shared state of one run: the ordered transcript,
// turn counter and control status. It is owned exclusively by the orchestrator;
// all access is serialized behind the orchestrator's state lock, so the type
// itself carries no locking. Use Snapshot to hand state to other goroutines.
type Conversation struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Transcript  []Message `json:"transcript"`
	TurnIndex   int       `json:"turn_index"`
	MaxTurns    int       `json:"max_turns"` // 0 = unbounded
	Status      Status    `json:"status"`
	ActiveAgent int       `json:"active_agent"` // index into the configured agent order
	Err         error     `json:"-"`            // terminal error when Status == StatusFailed
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// NewConversation creates an idle conversation for the given topic.
func NewConversation(topic string, maxTurns int) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:       NewID(),
		Topic:    topic,
		MaxTurns: maxTurns,
		Status:   StatusIdle,
		Created:  now,
		Updated:  now,
	}
}

// Append adds a message to the transcript. Messages are append-only during a
// run; nothing is ever reordered or removed.
func (c *Conversation) Append(msg Message) {
	c.Transcript = append(c.Transcript, msg)
	c.Updated = time.Now().UTC()
}

// TurnBudgetReached reports whether the configured turn budget is exhausted.
// A MaxTurns of zero means the conversation is unbounded.
func (c *Conversation) TurnBudgetReached() bool {
	return c.MaxTurns > 0 && c.TurnIndex >= c.MaxTurns
}

// Snapshot returns a deep copy of the conversation safe for use outside the
// orchestrator's lock. The transcript slice is copied; messages themselves are
// immutable by contract.
func (c *Conversation) Snapshot() *Conversation {
	clone := *c
	clone.Transcript = make([]Message, len(c.Transcript))
	copy(clone.Transcript, c.Transcript)
	return &clone
}
