package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/duologue/duologue/core"
)

// MockClient is a lightweight in-memory Client useful for tests & examples.
// Outcomes can be scripted per call; when the script is exhausted the client
// echoes a canned reply derived from the last history entry.
type MockClient struct {
	name   string
	models []string

	mu      sync.Mutex
	script  []Outcome
	calls   int
	history [][]core.Message
}

// Outcome is one scripted SendMessage result.
type Outcome struct {
	Result *Result
	Err    error
}

// NewMockClient constructs a MockClient advertising the given models.
func NewMockClient(name string, models ...string) *MockClient {
	if len(models) == 0 {
		models = []string{"mock-model"}
	}
	return &MockClient{name: name, models: models}
}

// Enqueue appends scripted outcomes consumed in order by SendMessage.
func (m *MockClient) Enqueue(outcomes ...Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, outcomes...)
}

// EnqueueReply is shorthand for a successful text outcome.
func (m *MockClient) EnqueueReply(text string) {
	m.Enqueue(Outcome{Result: &Result{Text: text}})
}

// EnqueueError is shorthand for a failure outcome.
func (m *MockClient) EnqueueError(err error) {
	m.Enqueue(Outcome{Err: err})
}

// Calls returns how many SendMessage invocations the client has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastHistory returns the history slice passed to the most recent call.
func (m *MockClient) LastHistory() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}

// Name implements Client.
func (m *MockClient) Name() string { return m.name }

// SendMessage implements Client following the script, then echoing.
func (m *MockClient) SendMessage(ctx context.Context, history []core.Message, model string, opts GenerateOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewError(core.KindCancelled, "call abandoned").WithProvider(m.name).WithCause(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	recorded := make([]core.Message, len(history))
	copy(recorded, history)
	m.history = append(m.history, recorded)

	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		if next.Err != nil {
			return nil, next.Err
		}
		res := *next.Result
		if res.Model == "" {
			res.Model = model
		}
		return &res, nil
	}

	last := ""
	if len(history) > 0 {
		last = history[len(history)-1].Content
	}
	return &Result{Text: fmt.Sprintf("Mock response to: %s", last), Model: model}, nil
}

// ListModels implements Client.
func (m *MockClient) ListModels(ctx context.Context) ([]string, error) {
	models := make([]string, len(m.models))
	copy(models, m.models)
	return models, nil
}
