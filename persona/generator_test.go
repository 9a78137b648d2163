package persona

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
)

func TestGenerator_Generate(t *testing.T) {
	client := provider.NewMockClient("mock")
	client.EnqueueReply(`"Maren"`)
	client.EnqueueReply("Maren dissects every claim she hears before trusting it. She keeps meticulous field notebooks and quotes them mid-argument.")

	gen := NewGenerator(client, "mock-model", rand.New(rand.NewSource(7)))
	p, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Maren", p.Name)
	assert.Contains(t, p.Personality, "field notebooks")
	assert.Contains(t, Genders, p.Gender)
	assert.GreaterOrEqual(t, p.Age, 1)
	assert.LessOrEqual(t, p.Age, 99)
	assert.NoError(t, p.Validate())
	assert.Equal(t, 2, client.Calls())
}

func TestGenerator_DeterministicAttributes(t *testing.T) {
	replies := func() *provider.MockClient {
		c := provider.NewMockClient("mock")
		c.EnqueueReply("Ada")
		c.EnqueueReply("A relentless optimizer.")
		return c
	}

	first, err := NewGenerator(replies(), "m", rand.New(rand.NewSource(42))).Generate(context.Background())
	require.NoError(t, err)
	second, err := NewGenerator(replies(), "m", rand.New(rand.NewSource(42))).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Age, second.Age)
	assert.Equal(t, first.Gender, second.Gender)
}

func TestGenerator_PropagatesProviderError(t *testing.T) {
	client := provider.NewMockClient("mock")
	client.EnqueueError(core.NewError(core.KindPermanent, "invalid key"))

	_, err := NewGenerator(client, "m", rand.New(rand.NewSource(1))).Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.KindPermanent, core.KindOf(err))
}

func TestGenerator_EmptyName(t *testing.T) {
	client := provider.NewMockClient("mock")
	client.EnqueueReply("   ")

	_, err := NewGenerator(client, "m", rand.New(rand.NewSource(1))).Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.KindTransient, core.KindOf(err))
}
