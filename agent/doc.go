// Package agent binds a persona to live provider/model pairs for the
// duration of one conversation and assembles the per-call request context.
// Context assembly projects the shared transcript into the two-party role
// vocabulary providers understand: the agent's own prior turns become
// assistant messages and everything else becomes user messages, letting each
// agent perceive itself as the single assistant in an otherwise symmetric
// exchange.
package agent
