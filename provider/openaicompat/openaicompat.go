// Package openaicompat provides a provider.Client for any backend speaking
// the OpenAI-compatible chat completions HTTP dialect, covering LM Studio,
// OpenRouter and similar self-hosted gateways. Only the request/response
// shape translation lives here; classification of failures follows the HTTP
// status of the reply.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/logging"
	"github.com/duologue/duologue/provider"
)

// Options configure the client.
type Options struct {
	// Timeout bounds one generation request.
	Timeout time.Duration
	// ListTimeout bounds a model listing request.
	ListTimeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// Logger receives request diagnostics; defaults to NoOpLogger.
	Logger logging.Logger
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	listTO  time.Duration
	logger  logging.Logger
}

// New creates a client named name (the provider identifier, e.g. "lmstudio"
// or "openrouter") for the given base URL. The API key may be empty for
// unauthenticated local backends.
func New(name, baseURL, apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout:     60 * time.Second,
		ListTimeout: 10 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
		listTO:  opts.ListTimeout,
		logger:  opts.Logger,
	}
}

// Name implements provider.Client.
func (c *Client) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage"`
	Model string     `json:"model"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendMessage implements provider.Client.
func (c *Client) SendMessage(ctx context.Context, history []core.Message, model string, opts provider.GenerateOptions) (*provider.Result, error) {
	payload := chatRequest{
		Model:       model,
		Messages:    toChatMessages(history),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, core.NewError(core.KindPermanent, "encode request").WithProvider(c.name).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewError(core.KindPermanent, "build request").WithProvider(c.name).WithCause(err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.NewError(core.KindCancelled, "request aborted").WithProvider(c.name).WithCause(ctx.Err())
		}
		return nil, core.NewError(core.KindTransient, "request failed").WithProvider(c.name).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.classifyHTTPError(resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewError(core.KindTransient, "decode response").WithProvider(c.name).WithCause(err)
	}
	if len(parsed.Choices) == 0 {
		return nil, core.NewError(core.KindTransient, "no choices returned").WithProvider(c.name)
	}

	result := &provider.Result{
		Text:  strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model: model,
	}
	if parsed.Model != "" {
		result.Model = parsed.Model
	}
	if parsed.Usage != nil {
		result.Usage = &core.TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		}
	}

	c.logger.Debug("chat completion finished", "provider", c.name, "model", result.Model, "duration", time.Since(start))
	return result, nil
}

// ListModels implements provider.Client via GET /models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTO)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, core.NewError(core.KindPermanent, "build request").WithProvider(c.name).WithCause(err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.NewError(core.KindTransient, "request failed").WithProvider(c.name).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.classifyHTTPError(resp)
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewError(core.KindTransient, "decode response").WithProvider(c.name).WithCause(err)
	}

	models := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// classifyHTTPError maps a non-2xx response to a classified error, extracting
// the server's error message and any Retry-After hint.
func (c *Client) classifyHTTPError(resp *http.Response) error {
	msg := readErrorMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	kind := core.ClassifyHTTPStatus(resp.StatusCode)
	cerr := core.NewErrorf(kind, "status %d: %s", resp.StatusCode, msg).
		WithProvider(c.name).
		WithHTTPStatus(resp.StatusCode)
	if kind == core.KindRateLimited {
		if hint := parseRetryAfter(resp.Header.Get("Retry-After")); hint > 0 {
			cerr = cerr.WithRetryAfter(hint)
		}
	}
	return cerr
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 8<<10))
	if err != nil {
		return ""
	}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

// parseRetryAfter understands the delta-seconds form of the Retry-After
// header. The HTTP-date form is rare on LLM gateways and falls back to zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func toChatMessages(history []core.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history))
	for _, m := range history {
		role := string(m.Role)
		switch m.Role {
		case core.RoleSystem, core.RoleUser, core.RoleAssistant:
		default:
			// Unknown roles degrade to user, mirroring how unprojected
			// entries are perceived by a two-party protocol.
			role = string(core.RoleUser)
		}
		out = append(out, chatMessage{Role: role, Content: m.Content})
	}
	return out
}

var _ provider.Client = (*Client)(nil)
