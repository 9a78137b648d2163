// Package ollama provides a provider.Client for a local Ollama daemon using
// its native /api/chat and /api/tags endpoints. Ollama reports token counts
// as prompt_eval_count / eval_count, which are surfaced as usage when
// present.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/logging"
	"github.com/duologue/duologue/provider"
)

// DefaultBaseURL is the daemon address Ollama listens on out of the box.
const DefaultBaseURL = "http://127.0.0.1:11434"

// Options configure the client.
type Options struct {
	Timeout     time.Duration
	ListTimeout time.Duration
	HTTPClient  *http.Client
	Logger      logging.Logger
}

// Client talks to the Ollama HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	listTO  time.Duration
	logger  logging.Logger
}

// New creates a client for the daemon at baseURL (DefaultBaseURL when empty).
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout:     60 * time.Second,
		ListTimeout: 10 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		listTO:  opts.ListTimeout,
		logger:  opts.Logger,
	}
}

// Name implements provider.Client.
func (c *Client) Name() string { return "ollama" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// SendMessage implements provider.Client.
func (c *Client) SendMessage(ctx context.Context, history []core.Message, model string, opts provider.GenerateOptions) (*provider.Result, error) {
	payload := chatRequest{
		Model:    model,
		Messages: toChatMessages(history),
		Stream:   false,
		Options: map[string]any{
			"temperature": opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		payload.Options["num_predict"] = opts.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, core.NewError(core.KindPermanent, "encode request").WithProvider(c.Name()).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewError(core.KindPermanent, "build request").WithProvider(c.Name()).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.NewError(core.KindCancelled, "request aborted").WithProvider(c.Name()).WithCause(ctx.Err())
		}
		return nil, core.NewError(core.KindTransient, "request failed").WithProvider(c.Name()).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.classifyHTTPError(resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewError(core.KindTransient, "decode response").WithProvider(c.Name()).WithCause(err)
	}

	result := &provider.Result{
		Text:  strings.TrimSpace(parsed.Message.Content),
		Model: model,
	}
	if parsed.PromptEvalCount > 0 || parsed.EvalCount > 0 {
		result.Usage = &core.TokenUsage{
			InputTokens:  parsed.PromptEvalCount,
			OutputTokens: parsed.EvalCount,
		}
	}

	c.logger.Debug("ollama chat finished", "model", model, "duration", time.Since(start))
	return result, nil
}

// ListModels implements provider.Client via GET /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTO)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, core.NewError(core.KindPermanent, "build request").WithProvider(c.Name()).WithCause(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.NewError(core.KindTransient, "request failed").WithProvider(c.Name()).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.classifyHTTPError(resp)
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewError(core.KindTransient, "decode response").WithProvider(c.Name()).WithCause(err)
	}

	models := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func (c *Client) classifyHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	msg := strings.TrimSpace(string(raw))

	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return core.NewErrorf(core.ClassifyHTTPStatus(resp.StatusCode), "status %d: %s", resp.StatusCode, msg).
		WithProvider(c.Name()).
		WithHTTPStatus(resp.StatusCode)
}

func toChatMessages(history []core.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history))
	for _, m := range history {
		role := string(m.Role)
		switch m.Role {
		case core.RoleSystem, core.RoleUser, core.RoleAssistant:
		default:
			role = string(core.RoleUser)
		}
		out = append(out, chatMessage{Role: role, Content: m.Content})
	}
	return out
}

var _ provider.Client = (*Client)(nil)
