package testutil

import (
	"github.com/duologue/duologue/core"
)

// TranscriptBuilder provides a fluent helper for constructing transcripts in
// tests. Example:
//
//	msgs := NewTranscriptBuilder().AgentText("Alice", "hi").NarratorText("rain").Build()
type TranscriptBuilder struct {
	msgs []core.Message
}

// NewTranscriptBuilder creates an empty transcript builder.
func NewTranscriptBuilder() *TranscriptBuilder { return &TranscriptBuilder{} }

// AgentText appends an assistant entry authored by the named agent
// (chainable).
func (b *TranscriptBuilder) AgentText(author, content string) *TranscriptBuilder {
	b.msgs = append(b.msgs, core.NewMessage(core.RoleAssistant, author, content))
	return b
}

// NarratorText appends a narrator injection (chainable).
func (b *TranscriptBuilder) NarratorText(content string) *TranscriptBuilder {
	b.msgs = append(b.msgs, core.NewNarratorMessage(content))
	return b
}

// Build returns the accumulated messages.
func (b *TranscriptBuilder) Build() []core.Message { return b.msgs }
