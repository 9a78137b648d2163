// Package registry maps provider identifiers to constructed provider clients
// from endpoint/key configuration. The registry is built once before a
// conversation starts and is read-only afterwards; clients are shared across
// agents that use the same provider.
package registry

import (
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/logging"
	"github.com/duologue/duologue/provider"
	"github.com/duologue/duologue/provider/anthropic"
	"github.com/duologue/duologue/provider/ollama"
	"github.com/duologue/duologue/provider/openai"
	"github.com/duologue/duologue/provider/openaicompat"
)

// Built-in provider identifiers.
const (
	ProviderOllama     = "ollama"
	ProviderLMStudio   = "lmstudio"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

// OpenRouterBaseURL is the fixed gateway endpoint for the openrouter provider.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// EndpointConfig describes how to reach one provider.
type EndpointConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	DefaultModel      string  `yaml:"default_model"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Config maps provider identifiers to endpoint configuration.
type Config map[string]EndpointConfig

// ParseConfig decodes a YAML provider configuration document.
func ParseConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, core.NewError(core.KindConfiguration, "parse provider config").WithCause(err)
	}
	return cfg, nil
}

// Options configure registry construction.
type Options struct {
	// Logger is handed to constructed HTTP clients.
	Logger logging.Logger
}

// Registry holds constructed clients keyed by provider identifier.
type Registry struct {
	clients       map[string]provider.Client
	defaultModels map[string]string
}

// New builds clients for every configured provider identifier. Unknown
// identifiers and key-authenticated providers without a key are rejected
// with a configuration error, before any conversation can start.
func New(cfg Config, optFns ...func(o *Options)) (*Registry, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{
		clients:       make(map[string]provider.Client, len(cfg)),
		defaultModels: make(map[string]string, len(cfg)),
	}

	for id, ec := range cfg {
		client, err := build(id, ec, opts.Logger)
		if err != nil {
			return nil, err
		}
		r.clients[id] = provider.WithRateLimit(client, ec.RequestsPerSecond, 1)
		r.defaultModels[id] = ec.DefaultModel
	}
	return r, nil
}

func build(id string, ec EndpointConfig, logger logging.Logger) (provider.Client, error) {
	timeout := time.Duration(ec.TimeoutSeconds) * time.Second

	switch id {
	case ProviderOllama:
		return ollama.New(ec.BaseURL, func(o *ollama.Options) {
			o.Logger = logger
			if timeout > 0 {
				o.Timeout = timeout
			}
		}), nil

	case ProviderLMStudio:
		baseURL := ec.BaseURL
		if baseURL == "" {
			return nil, core.NewErrorf(core.KindConfiguration, "provider %q requires base_url", id)
		}
		return openaicompat.New(id, baseURL, ec.APIKey, func(o *openaicompat.Options) {
			o.Logger = logger
			if timeout > 0 {
				o.Timeout = timeout
			}
		}), nil

	case ProviderOpenRouter:
		if ec.APIKey == "" {
			return nil, core.NewErrorf(core.KindConfiguration, "provider %q requires api_key", id)
		}
		baseURL := ec.BaseURL
		if baseURL == "" {
			baseURL = OpenRouterBaseURL
		}
		return openaicompat.New(id, baseURL, ec.APIKey, func(o *openaicompat.Options) {
			o.Logger = logger
			if timeout > 0 {
				o.Timeout = timeout
			}
		}), nil

	case ProviderOpenAI:
		if ec.APIKey == "" {
			return nil, core.NewErrorf(core.KindConfiguration, "provider %q requires api_key", id)
		}
		return openai.New(ec.APIKey, func(o *openai.Options) {
			o.BaseURL = ec.BaseURL
			if timeout > 0 {
				o.Timeout = timeout
			}
		}), nil

	case ProviderAnthropic:
		if ec.APIKey == "" {
			return nil, core.NewErrorf(core.KindConfiguration, "provider %q requires api_key", id)
		}
		return anthropic.New(ec.APIKey, func(o *anthropic.Options) {
			o.BaseURL = ec.BaseURL
			if timeout > 0 {
				o.Timeout = timeout
			}
		}), nil

	default:
		return nil, core.NewErrorf(core.KindConfiguration, "unknown provider %q", id)
	}
}

// Register adds (or replaces) a client under a custom identifier. Intended
// for tests and for embedding applications that bring their own backends.
func (r *Registry) Register(id string, client provider.Client, defaultModel string) {
	r.clients[id] = client
	r.defaultModels[id] = defaultModel
}

// Client returns the client for a provider identifier.
func (r *Registry) Client(id string) (provider.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, core.NewErrorf(core.KindConfiguration, "provider %q not configured", id)
	}
	return c, nil
}

// DefaultModel returns the configured default model for a provider, or "".
func (r *Registry) DefaultModel(id string) string { return r.defaultModels[id] }

// Providers returns the configured provider identifiers in sorted order.
func (r *Registry) Providers() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve validates that every (provider, model) pair is servable: the
// provider must be configured and a model must resolve either explicitly or
// through the provider's default.
func (r *Registry) Resolve(providerID, model string) (provider.Client, string, error) {
	client, err := r.Client(providerID)
	if err != nil {
		return nil, "", err
	}
	if model == "" {
		model = r.DefaultModel(providerID)
	}
	if model == "" {
		return nil, "", core.NewErrorf(core.KindConfiguration,
			"provider %q has no model selected and no default_model", providerID)
	}
	return client, model, nil
}
