package orchestrator

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/duologue/duologue/agent"
	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
	"github.com/duologue/duologue/usage"
)

// run is the single turn-loop goroutine. It owns all transcript mutation;
// commands only flip status flags that the loop observes at turn boundaries.
func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)
	defer close(o.events)

	for {
		o.mu.Lock()
		for o.conv.Status == core.StatusPaused {
			o.cond.Wait()
		}
		if o.conv.Status != core.StatusRunning {
			o.mu.Unlock()
			return
		}
		if o.conv.TurnBudgetReached() {
			o.transitionLocked(core.StatusCompleted, nil)
			o.mu.Unlock()
			return
		}
		ag := o.agents[o.conv.ActiveAgent]
		msgs := ag.AssembleContext(o.conv.Topic, o.conv.Transcript)
		turn := o.conv.TurnIndex
		o.mu.Unlock()

		start := time.Now()
		res, err := o.callWithPolicy(ctx, ag, msgs)

		o.mu.Lock()
		if o.conv.Status.Terminal() {
			// Stop won the race; a late result is discarded.
			o.mu.Unlock()
			return
		}
		if err != nil {
			o.transitionLocked(core.StatusFailed, err)
			o.mu.Unlock()
			return
		}

		text := cleanResponse(res.Text)
		msg := core.NewMessage(core.RoleAssistant, ag.Name(), text)
		if res.Usage != nil {
			u := *res.Usage
			msg.Usage = &u
		} else if o.opts.Estimator != nil {
			msg.Usage = usage.Estimate(o.opts.Estimator, msgs, text)
		}

		o.conv.Append(msg)
		o.conv.TurnIndex++
		o.conv.ActiveAgent = (o.conv.ActiveAgent + 1) % len(o.agents)

		o.events <- event{kind: eventMessage, msg: msg}
		if msg.Usage != nil {
			o.events <- event{kind: eventUsage, agent: ag.Name(), usage: *msg.Usage}
		}
		o.logger.LogTurn(ag.Name(), turn, time.Since(start))

		if o.conv.TurnBudgetReached() {
			o.transitionLocked(core.StatusCompleted, nil)
			o.mu.Unlock()
			return
		}
		o.mu.Unlock()

		if o.opts.TurnDelay > 0 {
			o.sleep(ctx, o.opts.TurnDelay)
		}
	}
}

// callWithPolicy walks the agent's pair chain, retrying each pair up to
// MaxAttempts before switching to the next one. The retry budget resets on
// every switch. Returns the last classified error once all pairs are
// exhausted.
func (o *Orchestrator) callWithPolicy(ctx context.Context, ag *agent.Agent, msgs []core.Message) (*provider.Result, error) {
	opts := ag.GenerateOptions()
	pairs := ag.Pairs()

	var lastErr error
	for i, pair := range pairs {
		res, err := o.callPair(ctx, pair, msgs, opts)
		if err == nil {
			return res, nil
		}
		if core.KindOf(err) == core.KindCancelled {
			return nil, err
		}
		var fatal *fatalError
		if errors.As(err, &fatal) {
			return nil, fatal.err
		}
		lastErr = err

		if i+1 < len(pairs) {
			next := pairs[i+1]
			o.logger.LogFallback(ag.Name(), pair.Provider, pair.Model, next.Provider, next.Model)
			o.events <- event{kind: eventFallback, agent: ag.Name(), prev: pair.Pair, next: next.Pair}
		}
	}
	return nil, lastErr
}

// callPair makes up to MaxAttempts calls against one provider/model pair.
// Transient and rate-limited failures are retried with exponential backoff;
// a rate-limit hint from the provider wins over the computed delay when
// larger. Permanent failures return immediately so the caller can fall back.
func (o *Orchestrator) callPair(ctx context.Context, pair agent.ResolvedPair, msgs []core.Message, opts provider.GenerateOptions) (*provider.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if err := o.limiter.Increment(); err != nil {
			return nil, &fatalError{err: err}
		}

		start := time.Now()
		res, err := pair.Client.SendMessage(ctx, msgs, pair.Model, opts)
		if err == nil && strings.TrimSpace(res.Text) == "" {
			err = core.NewError(core.KindTransient, "provider returned an empty reply").
				WithProvider(pair.Provider)
		}
		if err == nil {
			tokens := 0
			if res.Usage != nil {
				tokens = res.Usage.Total()
			}
			o.logger.LogProviderCall(pair.Provider, pair.Model, tokens, time.Since(start), true, nil)
			return res, nil
		}
		o.logger.LogProviderCall(pair.Provider, pair.Model, 0, time.Since(start), false, err)
		lastErr = err

		switch core.KindOf(err) {
		case core.KindCancelled:
			return nil, err
		case core.KindPermanent, core.KindConfiguration:
			return nil, err
		}
		if attempt == o.opts.MaxAttempts {
			break
		}

		delay := o.opts.BackoffBase << (attempt - 1)
		if hint := core.RetryAfterOf(err); hint > delay {
			delay = hint
		}
		if !o.sleep(ctx, delay) {
			return nil, core.NewError(core.KindCancelled, "retry abandoned").WithCause(ctx.Err())
		}
	}
	return nil, lastErr
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// fatalError marks a failure that must end the conversation instead of
// triggering fallback, such as the provider call budget running out.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// uiNudgePatterns match boilerplate phrases some models emit when they
// mistake the exchange for a chat UI. Replies are scrubbed before being
// committed to the transcript.
var uiNudgePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)click reply or enter to continue[.!,]?`),
	regexp.MustCompile(`(?i)click reply or enter after each message[.!,]?`),
	regexp.MustCompile(`(?i)press enter to continue[.!,]?`),
	regexp.MustCompile(`(?i)type your response below[.!,]?`),
	regexp.MustCompile(`(?i)click to respond[.!,]?`),
	regexp.MustCompile(`(?i)please respond to continue our conversation[.!,]?`),
	regexp.MustCompile(`(?i)your turn to respond[.!,]?`),
	regexp.MustCompile(`(?i)click below to respond[.!,]?`),
}

// cleanResponse strips UI boilerplate and surrounding whitespace from a
// provider reply.
func cleanResponse(text string) string {
	for _, re := range uiNudgePatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
