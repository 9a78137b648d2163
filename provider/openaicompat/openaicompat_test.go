package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("lmstudio", srv.URL, "test-key")
}

func sampleHistory() []core.Message {
	return []core.Message{
		core.NewMessage(core.RoleSystem, "system", "You are Alice."),
		core.NewMessage(core.RoleUser, "bob", "Hello!"),
	}
}

func TestSendMessage_Success(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"model": "llama-3-8b",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  Hi Bob!  "}},
			},
			"usage": map[string]int{"prompt_tokens": 21, "completion_tokens": 4},
		})
	})

	res, err := client.SendMessage(context.Background(), sampleHistory(), "llama-3-8b", provider.DefaultGenerateOptions())
	require.NoError(t, err)

	assert.Equal(t, "Hi Bob!", res.Text)
	assert.Equal(t, "llama-3-8b", res.Model)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 21, res.Usage.InputTokens)
	assert.Equal(t, 4, res.Usage.OutputTokens)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.False(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
}

func TestSendMessage_UsageAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	})

	res, err := client.SendMessage(context.Background(), sampleHistory(), "m", provider.DefaultGenerateOptions())
	require.NoError(t, err)
	assert.Nil(t, res.Usage)
}

func TestSendMessage_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantKind   core.ErrorKind
		retryAfter string
		wantHint   time.Duration
	}{
		{name: "auth failure", status: http.StatusUnauthorized, wantKind: core.KindPermanent},
		{name: "bad request", status: http.StatusBadRequest, wantKind: core.KindPermanent},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: core.KindRateLimited, retryAfter: "30", wantHint: 30 * time.Second},
		{name: "server error", status: http.StatusInternalServerError, wantKind: core.KindTransient},
		{name: "bad gateway", status: http.StatusBadGateway, wantKind: core.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"message": "upstream says no"},
				})
			})

			_, err := client.SendMessage(context.Background(), sampleHistory(), "m", provider.DefaultGenerateOptions())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, core.KindOf(err))
			assert.Equal(t, tt.wantHint, core.RetryAfterOf(err))

			var cerr *core.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.status, cerr.HTTPStatus)
			assert.Contains(t, cerr.Message, "upstream says no")
		})
	}
}

func TestSendMessage_MalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, err := client.SendMessage(context.Background(), sampleHistory(), "m", provider.DefaultGenerateOptions())
	require.Error(t, err)
	assert.Equal(t, core.KindTransient, core.KindOf(err))
}

func TestSendMessage_DoesNotMutateHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	})

	history := []core.Message{core.NewMessage(core.RoleNarrator, core.NarratorAuthor, "scene")}
	_, err := client.SendMessage(context.Background(), history, "m", provider.DefaultGenerateOptions())
	require.NoError(t, err)
	assert.Equal(t, core.RoleNarrator, history[0].Role)
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"id": "model-a"}, {"id": "model-b"}},
		})
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"model-a", "model-b"}, models)
}

func TestListModels_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ListModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.KindPermanent, core.KindOf(err))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 15*time.Second, parseRetryAfter("15"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("garbage"))
}
