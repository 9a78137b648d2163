package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
)

func TestParseConfig(t *testing.T) {
	doc := `
ollama:
  base_url: http://127.0.0.1:11434
  default_model: llama3:8b
openrouter:
  api_key: sk-or-xyz
  default_model: meta-llama/llama-3-70b
  requests_per_second: 2
`
	cfg, err := ParseConfig(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:11434", cfg[ProviderOllama].BaseURL)
	assert.Equal(t, "sk-or-xyz", cfg[ProviderOpenRouter].APIKey)
	assert.Equal(t, 2.0, cfg[ProviderOpenRouter].RequestsPerSecond)
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("{{not yaml"))
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestNew_BuildsConfiguredProviders(t *testing.T) {
	r, err := New(Config{
		ProviderOllama:   {DefaultModel: "llama3:8b"},
		ProviderLMStudio: {BaseURL: "http://localhost:1234/v1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{ProviderLMStudio, ProviderOllama}, r.Providers())

	c, err := r.Client(ProviderOllama)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, c.Name())
	assert.Equal(t, "llama3:8b", r.DefaultModel(ProviderOllama))
}

func TestNew_MissingAPIKey(t *testing.T) {
	for _, id := range []string{ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter} {
		_, err := New(Config{id: {DefaultModel: "some-model"}})
		require.Error(t, err, id)
		assert.Equal(t, core.KindConfiguration, core.KindOf(err), id)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{"watson": {}})
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestNew_LMStudioRequiresBaseURL(t *testing.T) {
	_, err := New(Config{ProviderLMStudio: {}})
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestClient_NotConfigured(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	_, err = r.Client(ProviderOllama)
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestRegisterAndResolve(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	mock := provider.NewMockClient("mock", "mock-model")
	r.Register("mock", mock, "mock-model")

	client, model, err := r.Resolve("mock", "")
	require.NoError(t, err)
	assert.Equal(t, "mock", client.Name())
	assert.Equal(t, "mock-model", model)

	// Explicit model wins over the default.
	_, model, err = r.Resolve("mock", "other-model")
	require.NoError(t, err)
	assert.Equal(t, "other-model", model)
}

func TestResolve_NoModel(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)
	r.Register("mock", provider.NewMockClient("mock"), "")

	_, _, err = r.Resolve("mock", "")
	require.Error(t, err)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}
