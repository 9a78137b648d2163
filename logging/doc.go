// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer ConversationLogger with
// contextual helpers (conversation, turn, component) and domain specific
// logging helpers for provider calls, turns and fallback switches.
package logging
