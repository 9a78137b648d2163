// Package archive persists finished conversations. The orchestrator stores a
// snapshot exactly once, when a conversation reaches a terminal status, so an
// archive never observes a half-finished transcript.
package archive

import (
	"sort"
	"sync"

	"github.com/duologue/duologue/core"
)

// Store receives one immutable snapshot per conversation at terminal state.
type Store interface {
	// Save records the terminal snapshot. Saving the same conversation ID
	// again replaces the previous record.
	Save(conv *core.Conversation) error

	// Get retrieves an archived conversation by ID.
	Get(id string) (*core.Conversation, bool)

	// List returns archived conversation IDs in lexical order.
	List() []string
}

// InMemoryStore is a thread-safe Store backed by a map. Suitable for tests,
// examples and short-lived processes; contents are lost on exit.
type InMemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*core.Conversation
}

// NewInMemoryStore creates an empty in-memory archive.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{convs: make(map[string]*core.Conversation)}
}

// Save records a snapshot of the conversation, replacing any previous record
// with the same ID. The stored copy is detached from the caller's value.
func (s *InMemoryStore) Save(conv *core.Conversation) error {
	if conv == nil || conv.ID == "" {
		return core.NewError(core.KindConfiguration, "archive: conversation must have an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = conv.Snapshot()
	return nil
}

// Get retrieves an archived conversation by ID. The returned value is a copy;
// mutating it does not affect the archive.
func (s *InMemoryStore) Get(id string) (*core.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, false
	}
	return conv.Snapshot(), true
}

// List returns the IDs of all archived conversations in lexical order.
func (s *InMemoryStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.convs))
	for id := range s.convs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of archived conversations.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}
