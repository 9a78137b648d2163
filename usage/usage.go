// Package usage fills in token counts for providers that do not report them.
// Local runtimes in particular often omit usage from their responses; an
// Estimator lets the orchestrator still emit usage events with approximate
// counts so per-conversation accounting stays complete.
package usage

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/duologue/duologue/core"
)

// DefaultEncoding is the BPE encoding used when none is specified. cl100k is
// a reasonable approximation across the chat model families we talk to.
const DefaultEncoding = "cl100k_base"

// Estimator counts tokens in a piece of text.
type Estimator interface {
	Count(text string) int
}

// TiktokenEstimator estimates token counts with a tiktoken BPE encoding.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the named encoding, or DefaultEncoding when
// name is empty. Loading may fetch the BPE ranks on first use.
func NewTiktokenEstimator(name string) (*TiktokenEstimator, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, core.NewErrorf(core.KindConfiguration, "load encoding %q", name).WithCause(err)
	}
	return &TiktokenEstimator{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (e *TiktokenEstimator) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// Estimate computes approximate usage for one exchange: input tokens over
// every message sent to the provider, output tokens over the reply.
func Estimate(est Estimator, sent []core.Message, reply string) *core.TokenUsage {
	if est == nil {
		return nil
	}
	u := &core.TokenUsage{OutputTokens: est.Count(reply)}
	for _, msg := range sent {
		u.InputTokens += est.Count(msg.Content)
	}
	return u
}
