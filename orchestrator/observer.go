package orchestrator

import (
	"github.com/duologue/duologue/agent"
	"github.com/duologue/duologue/core"
)

// Observer receives lifecycle notifications from a running conversation.
// Callbacks are invoked sequentially from a dedicated dispatch goroutine in
// the order events occurred, so implementations never need internal locking
// to keep a consistent view of the transcript. A slow observer delays
// delivery of later events but never reorders them.
//
// Observer callbacks must not call back into the Orchestrator synchronously;
// doing so from the dispatch goroutine can deadlock the event queue. Spawn a
// goroutine if a callback needs to pause or stop the conversation.
type Observer interface {
	// OnMessageAppended fires after a message (agent reply or narrator
	// injection) has been committed to the transcript.
	OnMessageAppended(msg core.Message)

	// OnStatusChanged fires on every conversation status transition.
	OnStatusChanged(from, to core.Status)

	// OnFallbackTriggered fires when an agent exhausts one provider/model
	// pair and switches to the next one in its fallback chain.
	OnFallbackTriggered(agentName string, from, to agent.Pair)

	// OnUsage fires when token usage is known for a completed provider
	// call, whether reported by the provider or estimated locally.
	OnUsage(agentName string, usage core.TokenUsage)
}

// BaseObserver is a no-op implementation of Observer. Embed it to implement
// only the callbacks a consumer cares about.
type BaseObserver struct{}

func (BaseObserver) OnMessageAppended(core.Message)                     {}
func (BaseObserver) OnStatusChanged(core.Status, core.Status)           {}
func (BaseObserver) OnFallbackTriggered(string, agent.Pair, agent.Pair) {}
func (BaseObserver) OnUsage(string, core.TokenUsage)                    {}

type eventKind int

const (
	eventMessage eventKind = iota
	eventStatus
	eventFallback
	eventUsage
)

// event is a single entry in the ordered dispatch queue. Events are enqueued
// while holding the orchestrator mutex, which fixes their order; the dispatch
// goroutine drains them one at a time.
type event struct {
	kind  eventKind
	msg   core.Message
	from  core.Status
	to    core.Status
	agent string
	prev  agent.Pair
	next  agent.Pair
	usage core.TokenUsage
}

func (o *Orchestrator) dispatch() {
	defer o.dispatchWG.Done()
	for e := range o.events {
		o.obsMu.Lock()
		observers := make([]Observer, len(o.observers))
		copy(observers, o.observers)
		o.obsMu.Unlock()

		for _, obs := range observers {
			switch e.kind {
			case eventMessage:
				obs.OnMessageAppended(e.msg)
			case eventStatus:
				obs.OnStatusChanged(e.from, e.to)
			case eventFallback:
				obs.OnFallbackTriggered(e.agent, e.prev, e.next)
			case eventUsage:
				obs.OnUsage(e.agent, e.usage)
			}
		}
	}
}
