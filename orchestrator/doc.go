// Package orchestrator drives the turn-based conversation loop between
// agents. One long-running orchestration goroutine executes turns strictly in
// order; control-plane commands (pause, resume, stop, inject) are linearized
// against the state machine through a single mutex, and their effects become
// visible no later than the next turn-boundary check. Observers receive
// transcript deltas, status changes, fallback switches and usage events
// through an ordered dispatch queue without the engine depending on any
// presentation technology.
package orchestrator
