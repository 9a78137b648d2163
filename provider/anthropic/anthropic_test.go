package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duologue/duologue/core"
)

func TestBuildMessages(t *testing.T) {
	history := []core.Message{
		{Role: core.RoleSystem, Content: "persona instructions"},
		{Role: core.RoleUser, Content: "hi there"},
		{Role: core.RoleAssistant, Content: "hello"},
		{Role: core.RoleNarrator, Content: "it rains"},
	}

	msgs := buildMessages(history)
	// System entries travel in the dedicated system field, not the list.
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	// Anything that is not self becomes a user entry.
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestExtractSystemBlocks(t *testing.T) {
	history := []core.Message{
		{Role: core.RoleSystem, Content: "stay in character"},
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleSystem, Content: ""},
	}

	blocks := extractSystemBlocks(history)
	require.Len(t, blocks, 1)
	assert.Equal(t, "stay in character", blocks[0].Text)
}

func TestExtractSystemBlocks_None(t *testing.T) {
	assert.Empty(t, extractSystemBlocks([]core.Message{{Role: core.RoleUser, Content: "hi"}}))
}
