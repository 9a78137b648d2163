package agent

import (
	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/persona"
	"github.com/duologue/duologue/provider"
	"github.com/duologue/duologue/registry"
)

// Pair identifies a (provider, model) combination.
type Pair struct {
	Provider string
	Model    string
}

// String renders the pair as provider/model.
func (p Pair) String() string { return p.Provider + "/" + p.Model }

// ResolvedPair is a Pair bound to a constructed client.
type ResolvedPair struct {
	Pair
	Client provider.Client
}

// Agent is a persona bound to resolved provider/model pairs for one
// conversation. The persona is shared, not owned; an agent never outlives
// the conversation that created it.
type Agent struct {
	persona *persona.Persona
	pairs   []ResolvedPair
}

// New binds p to its primary and fallback pairs using reg. Every configured
// pair must resolve; a persona whose primary or fallback cannot be served is
// rejected with a configuration error before the conversation starts.
func New(p *persona.Persona, reg *registry.Registry) (*Agent, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Provider == "" {
		return nil, core.NewErrorf(core.KindConfiguration, "persona %q has no provider", p.Name)
	}

	client, model, err := reg.Resolve(p.Provider, p.Model)
	if err != nil {
		return nil, err
	}
	pairs := []ResolvedPair{{Pair: Pair{Provider: p.Provider, Model: model}, Client: client}}

	for _, fb := range p.Fallbacks {
		client, model, err := reg.Resolve(fb.Provider, fb.Model)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ResolvedPair{Pair: Pair{Provider: fb.Provider, Model: model}, Client: client})
	}

	return &Agent{persona: p, pairs: pairs}, nil
}

// Name returns the persona name, the agent's identifier in the transcript.
func (a *Agent) Name() string { return a.persona.Name }

// Persona returns the shared persona record.
func (a *Agent) Persona() *persona.Persona { return a.persona }

// Pairs returns the ordered (primary first) resolved pairs.
func (a *Agent) Pairs() []ResolvedPair { return a.pairs }

// GenerateOptions resolves the persona's generation parameters, filling in
// defaults where the persona leaves them unset.
func (a *Agent) GenerateOptions() provider.GenerateOptions {
	opts := provider.DefaultGenerateOptions()
	if a.persona.Temperature > 0 {
		opts.Temperature = a.persona.Temperature
	}
	if a.persona.MaxTokens > 0 {
		opts.MaxTokens = a.persona.MaxTokens
	}
	return opts
}
