// Package duologue provides a high-level façade over the conversation
// orchestrator and its supporting services (provider registry, personas,
// archive & logging) enabling rapid construction of autonomous multi-agent
// conversations. Most applications interact with this package by:
//  1. Creating a Duologue via New() (optionally overriding the registry,
//     archive or logger)
//  2. Binding personas to agents (NewAgent / NewAgents)
//  3. Running a conversation synchronously (RunSync) or driving an
//     orchestrator directly (NewConversation) for pause/resume/inject control
//
// The façade delegates the turn loop to orchestrator.Orchestrator while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// configured registry and a structured logger.
package duologue

import (
	"context"
	"io"
	"time"

	"github.com/duologue/duologue/agent"
	"github.com/duologue/duologue/archive"
	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/logging"
	"github.com/duologue/duologue/orchestrator"
	"github.com/duologue/duologue/persona"
	"github.com/duologue/duologue/registry"
	"github.com/duologue/duologue/usage"
)

// Options configures the Duologue instance.
type Options struct {
	// Registry resolves provider identifiers to clients. Defaults to an
	// empty registry; most applications build one from a YAML endpoint
	// config or register clients manually.
	Registry *registry.Registry

	// Archive receives terminal conversation snapshots. Defaults to an
	// in-memory store.
	Archive archive.Store

	// Logger (defaults to a discard logger if nil).
	Logger *logging.ConversationLogger

	// Estimator fills in token usage when providers report none.
	Estimator usage.Estimator

	// MaxAttempts, BackoffBase, TurnDelay and MaxProviderCalls are passed
	// through to every orchestrator created by this instance. Zero values
	// take the orchestrator defaults.
	MaxAttempts      int
	BackoffBase      time.Duration
	TurnDelay        time.Duration
	MaxProviderCalls int
}

// Duologue is the high-level façade aggregating the registry, archive and
// orchestrator configuration.
type Duologue struct {
	opts Options
}

// New creates a new Duologue instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Duologue {
	opts := Options{
		Archive: archive.NewInMemoryStore(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		reg, err := registry.New(nil)
		if err != nil {
			// An empty config cannot fail to build.
			panic(err)
		}
		opts.Registry = reg
	}
	return &Duologue{opts: opts}
}

// Registry returns the provider registry for manual client registration.
func (d *Duologue) Registry() *registry.Registry { return d.opts.Registry }

// Archive returns the conversation archive.
func (d *Duologue) Archive() archive.Store { return d.opts.Archive }

// LoadPersonas decodes and validates a YAML persona roster.
func (d *Duologue) LoadPersonas(r io.Reader) ([]*persona.Persona, error) {
	return persona.Load(r)
}

// NewAgent binds a persona to its provider/model pairs.
func (d *Duologue) NewAgent(p *persona.Persona) (*agent.Agent, error) {
	return agent.New(p, d.opts.Registry)
}

// NewAgents binds a roster of personas, failing on the first unresolvable
// one.
func (d *Duologue) NewAgents(personas []*persona.Persona) ([]*agent.Agent, error) {
	agents := make([]*agent.Agent, 0, len(personas))
	for _, p := range personas {
		ag, err := d.NewAgent(p)
		if err != nil {
			return nil, err
		}
		agents = append(agents, ag)
	}
	return agents, nil
}

// NewConversation creates an orchestrator wired with this instance's
// registry, archive, logger and retry configuration. Use it directly when
// the application needs pause/resume/stop/inject control or observers.
func (d *Duologue) NewConversation(observers ...orchestrator.Observer) *orchestrator.Orchestrator {
	return orchestrator.New(func(o *orchestrator.Options) {
		o.MaxAttempts = d.opts.MaxAttempts
		o.BackoffBase = d.opts.BackoffBase
		o.TurnDelay = d.opts.TurnDelay
		o.MaxProviderCalls = d.opts.MaxProviderCalls
		o.Logger = d.opts.Logger
		o.Estimator = d.opts.Estimator
		o.Archive = d.opts.Archive
		o.Observers = observers
	})
}

// RunSync is a synchronous helper: it starts a conversation, waits for it to
// reach a terminal status and returns the final snapshot. The conversation
// fails with a cancelled classification if ctx expires first.
func (d *Duologue) RunSync(ctx context.Context, agents []*agent.Agent, maxTurns int, topic string, observers ...orchestrator.Observer) (*core.Conversation, error) {
	o := d.NewConversation(observers...)
	if err := o.Start(agents, maxTurns, topic); err != nil {
		return nil, err
	}
	if err := o.Wait(ctx); err != nil {
		// Abandon the run; the orchestrator discards any late result.
		_ = o.Stop()
		return o.Snapshot(), err
	}
	conv := o.Snapshot()
	if conv.Status == core.StatusFailed {
		return conv, conv.Err
	}
	return conv, nil
}
