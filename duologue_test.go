package duologue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/persona"
	"github.com/duologue/duologue/provider"
)

const rosterYAML = `
- name: Alice
  personality: endlessly curious
  provider: mock
  model: mock-model
- name: Bob
  personality: a patient explainer
  provider: mock
  model: mock-model
`

func newTestDuologue(t *testing.T) (*Duologue, *provider.MockClient) {
	t.Helper()
	d := New()
	client := provider.NewMockClient("mock")
	d.Registry().Register("mock", client, "mock-model")
	return d, client
}

func TestRunSync(t *testing.T) {
	d, _ := newTestDuologue(t)

	personas, err := d.LoadPersonas(strings.NewReader(rosterYAML))
	require.NoError(t, err)
	agents, err := d.NewAgents(personas)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conv, err := d.RunSync(ctx, agents, 4, "favorite books")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, conv.Status)
	assert.Len(t, conv.Transcript, 4)

	// The terminal snapshot landed in the default in-memory archive.
	archived, ok := d.Archive().Get(conv.ID)
	require.True(t, ok)
	assert.Equal(t, core.StatusCompleted, archived.Status)
}

func TestRunSync_FailedConversationReturnsError(t *testing.T) {
	d, client := newTestDuologue(t)
	d.opts.MaxAttempts = 1

	client.EnqueueError(core.NewError(core.KindPermanent, "bad key"))

	agents, err := d.NewAgents([]*persona.Persona{
		{Name: "Alice", Personality: "curious", Provider: "mock"},
		{Name: "Bob", Personality: "patient", Provider: "mock"},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conv, err := d.RunSync(ctx, agents, 2, "anything")
	require.Error(t, err)
	assert.Equal(t, core.KindPermanent, core.KindOf(err))
	assert.Equal(t, core.StatusFailed, conv.Status)
}

func TestNewAgent_UnknownProvider(t *testing.T) {
	d := New()
	_, err := d.NewAgent(&persona.Persona{Name: "Alice", Personality: "curious", Provider: "nope"})
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestNewConversation_ManualControl(t *testing.T) {
	d, _ := newTestDuologue(t)

	agents, err := d.NewAgents([]*persona.Persona{
		{Name: "Alice", Personality: "curious", Provider: "mock"},
		{Name: "Bob", Personality: "patient", Provider: "mock"},
	})
	require.NoError(t, err)

	o := d.NewConversation()
	require.NoError(t, o.Start(agents, 0, "topic"))
	require.Eventually(t, func() bool {
		return len(o.Snapshot().Transcript) >= 2
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, o.Stop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx))
	assert.Equal(t, core.StatusStopped, o.Status())
}
