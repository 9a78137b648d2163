// Package openai provides a provider.Client backed by the official OpenAI
// Go SDK. It adapts the projected message list into Chat Completions
// parameters and classifies SDK failures by their HTTP status.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
)

// Options configure the adapter.
type Options struct {
	// BaseURL overrides the API endpoint (useful for proxies/gateways).
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
}

// Client wraps the OpenAI Chat Completions API behind provider.Client.
type Client struct {
	client *openai.Client
}

// New creates an adapter authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{Timeout: 60 * time.Second}
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

	client := openai.NewClient(clientOpts...)
	return &Client{client: &client}
}

// NewFromClient creates an adapter from an existing SDK client.
func NewFromClient(client *openai.Client) *Client {
	return &Client{client: client}
}

// Name implements provider.Client.
func (c *Client) Name() string { return "openai" }

// SendMessage implements provider.Client.
func (c *Client) SendMessage(ctx context.Context, history []core.Message, model string, opts provider.GenerateOptions) (*provider.Result, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    buildMessages(history),
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(c.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewError(core.KindTransient, "no choices returned").WithProvider(c.Name())
	}

	result := &provider.Result{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: model,
	}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		result.Usage = &core.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		}
	}
	return result, nil
}

// ListModels implements provider.Client.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, classify(c.Name(), err)
	}

	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// buildMessages converts projected transcript entries into SDK message params.
func buildMessages(history []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// classify maps an SDK error to the shared taxonomy using its HTTP status.
func classify(name string, err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		kind := core.ClassifyHTTPStatus(apierr.StatusCode)
		cerr := core.NewErrorf(kind, "api error: status %d", apierr.StatusCode).
			WithProvider(name).
			WithHTTPStatus(apierr.StatusCode).
			WithCause(err)
		if kind == core.KindRateLimited && apierr.Response != nil {
			if hint := retryAfterHint(apierr.Response); hint > 0 {
				cerr = cerr.WithRetryAfter(hint)
			}
		}
		return cerr
	}
	if errors.Is(err, context.Canceled) {
		return core.NewError(core.KindCancelled, "request aborted").WithProvider(name).WithCause(err)
	}
	return core.NewError(core.KindTransient, "request failed").WithProvider(name).WithCause(err)
}

func retryAfterHint(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if secs, err := time.ParseDuration(value + "s"); err == nil && secs > 0 {
		return secs
	}
	return 0
}

var _ provider.Client = (*Client)(nil)
