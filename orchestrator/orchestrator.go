package orchestrator

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/duologue/duologue/agent"
	"github.com/duologue/duologue/archive"
	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/logging"
	"github.com/duologue/duologue/usage"
)

const (
	// DefaultMaxAttempts is the retry budget per provider/model pair.
	DefaultMaxAttempts = 3
	// DefaultBackoffBase is the first retry delay; it doubles each attempt.
	DefaultBackoffBase = 2 * time.Second
	// DefaultEventBuffer is the capacity of the observer dispatch queue.
	DefaultEventBuffer = 128
)

// Options configures an Orchestrator.
type Options struct {
	// MaxAttempts is the number of attempts per provider/model pair before
	// falling back to the next pair. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// BackoffBase is the delay before the first retry, doubled on each
	// subsequent attempt. A rate-limit hint from the provider overrides the
	// computed delay when larger. Defaults to DefaultBackoffBase.
	BackoffBase time.Duration

	// TurnDelay is an optional pause between committed turns, useful for
	// rate-limit friendliness or human-paced demos. Zero disables it.
	TurnDelay time.Duration

	// MaxProviderCalls caps the total number of provider calls for the
	// conversation, retries and fallback attempts included. Zero means
	// unlimited.
	MaxProviderCalls int

	// EventBuffer is the observer queue capacity. When the queue is full
	// the turn loop blocks until the dispatcher catches up; events are
	// never dropped. Defaults to DefaultEventBuffer.
	EventBuffer int

	// Logger receives structured run logs. Defaults to a discard logger.
	Logger *logging.ConversationLogger

	// Estimator fills in token usage when the provider reports none.
	// Nil disables estimation.
	Estimator usage.Estimator

	// Archive receives one snapshot when the conversation reaches a
	// terminal status. Nil disables archiving.
	Archive archive.Store

	// Observers registered before the conversation starts. More can be
	// added with AddObserver.
	Observers []Observer
}

// Orchestrator runs one conversation between two or more agents. Create it
// with New, begin the run with Start, and control it with Pause, Resume,
// Stop and InjectMessage. An Orchestrator is single-use: once its
// conversation reaches a terminal status it cannot be restarted.
type Orchestrator struct {
	opts Options

	mu        sync.Mutex
	cond      *sync.Cond
	conv      *core.Conversation
	agents    []*agent.Agent
	limiter   *core.CallLimiter
	logger    *logging.ConversationLogger
	runCancel context.CancelFunc
	started   bool

	// obsMu guards observers separately from mu so the dispatcher can read
	// the list while the turn loop holds the state lock.
	obsMu     sync.Mutex
	observers []Observer

	events     chan event
	dispatchWG sync.WaitGroup
	done       chan struct{}
}

// New creates an orchestrator with the given options.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
		EventBuffer: DefaultEventBuffer,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.LogLevelError,
			Output: io.Discard,
		})
	}

	o := &Orchestrator{
		opts:      opts,
		observers: append([]Observer(nil), opts.Observers...),
		logger:    opts.Logger,
		events:    make(chan event, opts.EventBuffer),
		done:      make(chan struct{}),
	}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// AddObserver registers an observer. Observers added after Start only see
// events dispatched from that point on.
func (o *Orchestrator) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.observers = append(o.observers, obs)
}

// Start validates the setup and begins the turn loop. Agents speak in the
// given order, round-robin; maxTurns of zero means the conversation runs
// until stopped. Start returns immediately; use Wait to block until the
// conversation finishes.
func (o *Orchestrator) Start(agents []*agent.Agent, maxTurns int, topic string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return core.NewError(core.KindConfiguration, "conversation already started")
	}
	if len(agents) < 2 {
		return core.NewErrorf(core.KindConfiguration, "need at least 2 agents, got %d", len(agents))
	}
	seen := make(map[string]struct{}, len(agents))
	for _, ag := range agents {
		if ag == nil {
			return core.NewError(core.KindConfiguration, "nil agent in turn order")
		}
		if _, dup := seen[ag.Name()]; dup {
			return core.NewErrorf(core.KindConfiguration, "duplicate agent name %q", ag.Name())
		}
		seen[ag.Name()] = struct{}{}
	}
	if maxTurns < 0 {
		return core.NewErrorf(core.KindConfiguration, "maxTurns must be >= 0, got %d", maxTurns)
	}
	if strings.TrimSpace(topic) == "" {
		return core.NewError(core.KindConfiguration, "topic must not be empty")
	}

	o.agents = append([]*agent.Agent(nil), agents...)
	o.conv = core.NewConversation(topic, maxTurns)
	o.limiter = core.NewCallLimiter(o.opts.MaxProviderCalls)
	o.logger = o.opts.Logger.WithComponent("orchestrator").WithConversation(o.conv.ID)
	o.started = true

	runCtx, cancel := context.WithCancel(context.Background())
	o.runCancel = cancel

	o.dispatchWG.Add(1)
	go o.dispatch()

	o.transitionLocked(core.StatusRunning, nil)
	o.logger.Info("conversation started: topic=%q agents=%d max_turns=%d",
		topic, len(agents), maxTurns)

	go o.run(runCtx)
	return nil
}

// Pause suspends the turn loop at the next turn boundary. A provider call
// already in flight completes and its result is appended before the loop
// suspends.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.statusLocked() != core.StatusRunning {
		return core.NewErrorf(core.KindPermanent,
			"pause requires a running conversation (status %s)", o.statusLocked())
	}
	o.transitionLocked(core.StatusPaused, nil)
	return nil
}

// Resume continues a paused conversation with the turn order position
// preserved.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.statusLocked() != core.StatusPaused {
		return core.NewErrorf(core.KindPermanent,
			"resume requires a paused conversation (status %s)", o.statusLocked())
	}
	o.transitionLocked(core.StatusRunning, nil)
	return nil
}

// Stop ends the conversation. An in-flight provider call is cancelled; a
// result that still arrives is discarded, never appended. Stopping an
// already-terminal conversation is a no-op.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return core.NewError(core.KindPermanent, "conversation not started")
	}
	if o.conv.Status.Terminal() {
		return nil
	}
	o.transitionLocked(core.StatusStopped, nil)
	return nil
}

// InjectMessage appends a narrator message to the transcript. Allowed only
// while the conversation is paused; the injection does not consume a turn or
// change whose turn is next.
func (o *Orchestrator) InjectMessage(content string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.statusLocked() != core.StatusPaused {
		return core.NewErrorf(core.KindPermanent,
			"inject requires a paused conversation (status %s)", o.statusLocked())
	}
	if strings.TrimSpace(content) == "" {
		return core.NewError(core.KindConfiguration, "narrator message must not be empty")
	}

	msg := core.NewNarratorMessage(content)
	o.conv.Append(msg)
	o.events <- event{kind: eventMessage, msg: msg}
	o.logger.Info("narrator message injected: id=%s", msg.ID)
	return nil
}

// Status returns the current conversation status.
func (o *Orchestrator) Status() core.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

// ID returns the conversation ID, or empty before Start.
func (o *Orchestrator) ID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conv == nil {
		return ""
	}
	return o.conv.ID
}

// Snapshot returns a deep copy of the conversation state, or nil before
// Start.
func (o *Orchestrator) Snapshot() *core.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conv == nil {
		return nil
	}
	return o.conv.Snapshot()
}

// CallCount returns the number of provider calls made so far, retries and
// fallback attempts included.
func (o *Orchestrator) CallCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.limiter == nil {
		return 0
	}
	return o.limiter.Count()
}

// Wait blocks until the conversation reaches a terminal status and every
// pending observer event has been delivered, or until ctx expires.
func (o *Orchestrator) Wait(ctx context.Context) error {
	select {
	case <-o.done:
	case <-ctx.Done():
		return core.NewError(core.KindCancelled, "wait abandoned").WithCause(ctx.Err())
	}
	o.dispatchWG.Wait()
	return nil
}

func (o *Orchestrator) statusLocked() core.Status {
	if o.conv == nil {
		return core.StatusIdle
	}
	return o.conv.Status
}

// transitionLocked performs a state machine transition, emits the status
// event and wakes the turn loop. On a terminal transition it cancels the run
// context and archives the final snapshot. Callers must hold o.mu and ensure
// the edge is legal.
func (o *Orchestrator) transitionLocked(next core.Status, cause error) {
	prev := o.conv.Status
	if !prev.CanTransitionTo(next) {
		return
	}
	o.conv.Status = next
	o.conv.Updated = time.Now().UTC()
	if next == core.StatusFailed {
		o.conv.Err = cause
	}

	o.events <- event{kind: eventStatus, from: prev, to: next}
	o.cond.Broadcast()

	if next.Terminal() {
		if o.runCancel != nil {
			o.runCancel()
		}
		o.logger.Info("conversation ended: status=%s turns=%d calls=%d",
			next, o.conv.TurnIndex, o.limiter.Count())
		if o.opts.Archive != nil {
			if err := o.opts.Archive.Save(o.conv); err != nil {
				o.logger.Warn("archive save failed: %v", err)
			}
		}
	}
}
