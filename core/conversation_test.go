package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	conv := NewConversation("first contact", 8)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "first contact", conv.Topic)
	assert.Equal(t, 8, conv.MaxTurns)
	assert.Equal(t, StatusIdle, conv.Status)
	assert.Zero(t, conv.TurnIndex)
	assert.Empty(t, conv.Transcript)
}

func TestConversation_AppendPreservesOrder(t *testing.T) {
	conv := NewConversation("ordering", 0)
	for _, text := range []string{"one", "two", "three"} {
		conv.Append(NewMessage(RoleAssistant, "alice", text))
	}

	require.Len(t, conv.Transcript, 3)
	assert.Equal(t, "one", conv.Transcript[0].Content)
	assert.Equal(t, "three", conv.Transcript[2].Content)

	// Timestamps never decrease along the transcript.
	for i := 1; i < len(conv.Transcript); i++ {
		assert.False(t, conv.Transcript[i].Timestamp.Before(conv.Transcript[i-1].Timestamp))
	}
}

func TestConversation_TurnBudgetReached(t *testing.T) {
	conv := NewConversation("budget", 2)
	assert.False(t, conv.TurnBudgetReached())
	conv.TurnIndex = 2
	assert.True(t, conv.TurnBudgetReached())

	unbounded := NewConversation("open ended", 0)
	unbounded.TurnIndex = 1000
	assert.False(t, unbounded.TurnBudgetReached())
}

func TestConversation_SnapshotIsDetached(t *testing.T) {
	conv := NewConversation("snapshot", 4)
	conv.Append(NewMessage(RoleAssistant, "alice", "hello"))

	snap := conv.Snapshot()
	conv.Append(NewMessage(RoleAssistant, "bob", "hi"))
	conv.TurnIndex = 2

	assert.Len(t, snap.Transcript, 1)
	assert.Zero(t, snap.TurnIndex)
	assert.Len(t, conv.Transcript, 2)
}

func TestNewNarratorMessage(t *testing.T) {
	msg := NewNarratorMessage("a storm rolls in")
	assert.Equal(t, RoleNarrator, msg.Role)
	assert.Equal(t, NarratorAuthor, msg.Author)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestTokenUsage_Total(t *testing.T) {
	u := TokenUsage{InputTokens: 12, OutputTokens: 30}
	assert.Equal(t, 42, u.Total())
}
