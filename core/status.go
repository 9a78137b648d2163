package core

// Status is the lifecycle state of a Conversation. Transitions are monotonic
// along the state machine: Idle -> Running -> {Paused <-> Running} ->
// {Completed | Stopped | Failed}. Completed, Stopped and Failed are terminal.
type Status int

const (
	// StatusIdle is the initial state before Start.
	StatusIdle Status = iota
	// StatusRunning means the turn loop is actively producing turns.
	StatusRunning
	// StatusPaused means the loop is suspended at a turn boundary; narrator
	// injections are permitted in this state only.
	StatusPaused
	// StatusStopped means the operator ended the run before completion.
	StatusStopped
	// StatusCompleted means the configured turn budget was reached.
	StatusCompleted
	// StatusFailed means an unrecoverable error ended the run.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal edge of
// the state machine.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case StatusIdle:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusPaused || next == StatusStopped ||
			next == StatusCompleted || next == StatusFailed
	case StatusPaused:
		return next == StatusRunning || next == StatusStopped || next == StatusFailed
	default:
		return false
	}
}
