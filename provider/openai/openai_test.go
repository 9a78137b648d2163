package openai

import (
	"net/http"
	"testing"
	"time"

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
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
	// Anything that is not self becomes a user entry.
	assert.NotNil(t, msgs[3].OfUser)
}

func TestRetryAfterHint(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Zero(t, retryAfterHint(resp))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfterHint(resp))

	resp.Header.Set("Retry-After", "not-a-number")
	assert.Zero(t, retryAfterHint(resp))
}
