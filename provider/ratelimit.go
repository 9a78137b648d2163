package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/duologue/duologue/core"
)

// rateLimited decorates a Client with a client-side request rate cap so a
// fast turn loop cannot hammer a backend between its own 429 responses.
type rateLimited struct {
	next Client
	lim  *rate.Limiter
}

// WithRateLimit wraps client so outbound calls are throttled to rps requests
// per second with the given burst. A non-positive rps returns the client
// unchanged.
func WithRateLimit(client Client, rps float64, burst int) Client {
	if rps <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: client, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) Name() string { return r.next.Name() }

func (r *rateLimited) SendMessage(ctx context.Context, history []core.Message, model string, opts GenerateOptions) (*Result, error) {
	if err := r.lim.Wait(ctx); err != nil {
		return nil, core.NewError(core.KindCancelled, "rate limit wait aborted").
			WithProvider(r.next.Name()).WithCause(err)
	}
	return r.next.SendMessage(ctx, history, model, opts)
}

func (r *rateLimited) ListModels(ctx context.Context) ([]string, error) {
	if err := r.lim.Wait(ctx); err != nil {
		return nil, core.NewError(core.KindCancelled, "rate limit wait aborted").
			WithProvider(r.next.Name()).WithCause(err)
	}
	return r.next.ListModels(ctx)
}
