package testutil

import (
	"fmt"

	"github.com/duologue/duologue/agent"
	"github.com/duologue/duologue/persona"
	"github.com/duologue/duologue/provider"
	"github.com/duologue/duologue/registry"
)

// NewRegistry returns an empty registry ready for Register calls with mock
// clients.
func NewRegistry() *registry.Registry {
	reg, err := registry.New(nil)
	if err != nil {
		panic(fmt.Sprintf("testutil: empty registry: %v", err))
	}
	return reg
}

// AgentBuilder provides a fluent helper for constructing mock-backed agents
// in tests. Example:
//
//	ag := NewAgentBuilder("Alice").Primary("mock", "m1").MustBuild(reg)
//
// Chain only the parts you need; sensible defaults are applied.
type AgentBuilder struct {
	name        string
	personality string
	provider    string
	model       string
	fallbacks   []persona.Fallback
}

// NewAgentBuilder creates a builder with a default personality and the
// provider identifier "mock".
func NewAgentBuilder(name string) *AgentBuilder {
	return &AgentBuilder{
		name:        name,
		personality: "a test persona",
		provider:    "mock",
	}
}

// Personality overrides the default personality (chainable).
func (b *AgentBuilder) Personality(p string) *AgentBuilder { b.personality = p; return b }

// Primary sets the primary provider/model pair (chainable).
func (b *AgentBuilder) Primary(providerID, model string) *AgentBuilder {
	b.provider = providerID
	b.model = model
	return b
}

// Fallback appends a fallback provider/model pair (chainable).
func (b *AgentBuilder) Fallback(providerID, model string) *AgentBuilder {
	b.fallbacks = append(b.fallbacks, persona.Fallback{Provider: providerID, Model: model})
	return b
}

// Build resolves the agent against reg.
func (b *AgentBuilder) Build(reg *registry.Registry) (*agent.Agent, error) {
	p := &persona.Persona{
		Name:        b.name,
		Personality: b.personality,
		Provider:    b.provider,
		Model:       b.model,
		Fallbacks:   b.fallbacks,
	}
	return agent.New(p, reg)
}

// MustBuild is Build that panics on error, for test setup code.
func (b *AgentBuilder) MustBuild(reg *registry.Registry) *agent.Agent {
	ag, err := b.Build(reg)
	if err != nil {
		panic(fmt.Sprintf("testutil: build agent %q: %v", b.name, err))
	}
	return ag
}

// MockPair registers a fresh mock client under providerID and returns it
// together with a ready agent bound to it.
func MockPair(reg *registry.Registry, agentName, providerID string) (*agent.Agent, *provider.MockClient) {
	client := provider.NewMockClient(providerID)
	reg.Register(providerID, client, "mock-model")
	return NewAgentBuilder(agentName).Primary(providerID, "mock-model").MustBuild(reg), client
}
