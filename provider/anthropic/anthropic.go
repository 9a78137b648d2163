// Package anthropic provides a provider.Client backed by the official
// Anthropic Go SDK. System instructions travel in the dedicated system field
// of the Messages API rather than inline in the message list.
package anthropic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
)

// Options configure the adapter.
type Options struct {
	// BaseURL overrides the API endpoint.
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
	// MaxTokensFloor is used when the caller supplies no max token option;
	// the Messages API requires an explicit value.
	MaxTokensFloor int
}

// Client wraps the Anthropic Messages API behind provider.Client.
type Client struct {
	client         *anthropic.Client
	maxTokensFloor int
}

// New creates an adapter authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{Timeout: 60 * time.Second, MaxTokensFloor: 2000}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(opts.Timeout),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)
	return &Client{client: &client, maxTokensFloor: opts.MaxTokensFloor}
}

// NewFromClient creates an adapter from an existing SDK client.
func NewFromClient(client *anthropic.Client) *Client {
	return &Client{client: client, maxTokensFloor: 2000}
}

// Name implements provider.Client.
func (c *Client) Name() string { return "anthropic" }

// SendMessage implements provider.Client.
func (c *Client) SendMessage(ctx context.Context, history []core.Message, model string, opts provider.GenerateOptions) (*provider.Result, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokensFloor
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		Messages:    buildMessages(history),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(opts.Temperature),
	}
	if systemBlocks := extractSystemBlocks(history); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(c.Name(), err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	result := &provider.Result{
		Text:  strings.TrimSpace(text.String()),
		Model: model,
	}
	if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
		result.Usage = &core.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		}
	}
	return result, nil
}

// ListModels implements provider.Client.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, classify(c.Name(), err)
	}

	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// buildMessages converts projected transcript entries to Messages API params.
// System entries are handled separately via extractSystemBlocks.
func buildMessages(history []core.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return messages
}

func extractSystemBlocks(history []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range history {
		if m.Role == core.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// classify maps an SDK error to the shared taxonomy using its HTTP status.
func classify(name string, err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		kind := core.ClassifyHTTPStatus(apierr.StatusCode)
		cerr := core.NewErrorf(kind, "api error: status %d", apierr.StatusCode).
			WithProvider(name).
			WithHTTPStatus(apierr.StatusCode).
			WithCause(err)
		if kind == core.KindRateLimited && apierr.Response != nil {
			if value := strings.TrimSpace(apierr.Response.Header.Get("Retry-After")); value != "" {
				if hint, perr := time.ParseDuration(value + "s"); perr == nil && hint > 0 {
					cerr = cerr.WithRetryAfter(hint)
				}
			}
		}
		return cerr
	}
	if errors.Is(err, context.Canceled) {
		return core.NewError(core.KindCancelled, "request aborted").WithProvider(name).WithCause(err)
	}
	return core.NewError(core.KindTransient, "request failed").WithProvider(name).WithCause(err)
}

var _ provider.Client = (*Client)(nil)
