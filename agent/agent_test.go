package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/persona"
	"github.com/duologue/duologue/provider"
	"github.com/duologue/duologue/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(registry.Config{})
	require.NoError(t, err)
	reg.Register("alpha", provider.NewMockClient("alpha"), "alpha-default")
	reg.Register("beta", provider.NewMockClient("beta"), "beta-default")
	return reg
}

func testPersona(name string) *persona.Persona {
	return &persona.Persona{
		Name:        name,
		Personality: "Curious and analytical",
		Provider:    "alpha",
		Model:       "alpha-large",
		Temperature: 0.7,
	}
}

func TestNew_ResolvesPairs(t *testing.T) {
	p := testPersona("Alice")
	p.Fallbacks = []persona.Fallback{{Provider: "beta"}}

	a, err := New(p, testRegistry(t))
	require.NoError(t, err)

	pairs := a.Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, "alpha/alpha-large", pairs[0].String())
	// Fallback without an explicit model resolves through the default.
	assert.Equal(t, "beta/beta-default", pairs[1].String())
	assert.Equal(t, "Alice", a.Name())
}

func TestNew_UnresolvableProvider(t *testing.T) {
	p := testPersona("Alice")
	p.Provider = "gamma"

	_, err := New(p, testRegistry(t))
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestNew_UnresolvableFallback(t *testing.T) {
	p := testPersona("Alice")
	p.Fallbacks = []persona.Fallback{{Provider: "missing", Model: "x"}}

	_, err := New(p, testRegistry(t))
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestNew_NoProvider(t *testing.T) {
	p := testPersona("Alice")
	p.Provider = ""

	_, err := New(p, testRegistry(t))
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestGenerateOptions(t *testing.T) {
	p := testPersona("Alice")
	p.Temperature = 1.1
	p.MaxTokens = 512

	a, err := New(p, testRegistry(t))
	require.NoError(t, err)

	opts := a.GenerateOptions()
	assert.Equal(t, 1.1, opts.Temperature)
	assert.Equal(t, 512, opts.MaxTokens)
}

func TestGenerateOptions_Defaults(t *testing.T) {
	p := testPersona("Alice")
	p.Temperature = 0
	p.MaxTokens = 0

	a, err := New(p, testRegistry(t))
	require.NoError(t, err)

	opts := a.GenerateOptions()
	assert.Equal(t, provider.DefaultGenerateOptions(), opts)
}
