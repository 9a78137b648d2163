// Package core provides the foundational domain types used by Duologue. It
// defines the shared vocabulary for:
//
//   - Messages (immutable transcript entries with role, author and usage)
//   - Conversations (the mutable state of one orchestrated run)
//   - Status (the conversation state machine vocabulary)
//   - Errors (the classified failure taxonomy shared by provider clients and
//     the orchestrator)
//   - CallLimiter (an optional budget on provider calls per run)
//
// The package intentionally keeps implementation concerns (provider clients,
// orchestration, persona handling) out of scope, exposing small types so the
// surrounding packages can share one vocabulary without import cycles.
package core
