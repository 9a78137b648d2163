package core

import "sync"

// CallLimiter enforces a maximum number of provider calls per conversation,
// counting retries and fallback attempts. A runaway retry loop cannot exceed
// the budget unnoticed.
type CallLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallLimiter creates a limiter with a max number of provider calls.
// If max == 0, unlimited calls are allowed.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Increment increases the call counter and returns a classified error once
// the budget is exceeded.
func (cl *CallLimiter) Increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return NewErrorf(KindPermanent, "exceeded max provider calls: %d", cl.max)
	}
	return nil
}

// Count returns the current number of calls made.
func (cl *CallLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.count
}

// Remaining returns how many calls are left before hitting the limit, or -1
// when unlimited.
func (cl *CallLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.max == 0 {
		return -1
	}
	return cl.max - cl.count
}
