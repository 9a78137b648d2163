package provider

import (
	"context"

	"github.com/duologue/duologue/core"
)

// GenerateOptions carries the per-call generation parameters resolved from
// the speaking agent's persona.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Result is the outcome of one successful provider call. Usage is populated
// only when the provider's response envelope carried token counts; its
// absence is not an error.
type Result struct {
	Text  string
	Model string
	Usage *core.TokenUsage
}

// Client is the uniform capability over a specific vendor or backend.
//
// Implementations must:
//   - Never mutate the history slice
//   - Apply a bounded request timeout so Stop latency stays bounded
//   - Return *core.Error values classified as configuration, transient,
//     rate-limited, permanent or cancelled; never a bare error for a
//     non-2xx status or malformed payload
//
// The history passed in is already projected into the two-party role
// vocabulary (system/user/assistant); narrator entries never reach a client.
type Client interface {
	// Name returns the provider identifier, e.g. "ollama" or "openai".
	Name() string

	// SendMessage performs one generation exchange.
	SendMessage(ctx context.Context, history []core.Message, model string, opts GenerateOptions) (*Result, error)

	// ListModels returns the identifiers of the models the backend serves.
	// It never blocks indefinitely; implementations bound it with their own
	// timeout on top of ctx.
	ListModels(ctx context.Context) ([]string, error)
}

// DefaultGenerateOptions mirrors the generation defaults of the original
// conversation clients.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Temperature: 0.7, MaxTokens: 2000}
}
