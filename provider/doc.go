// Package provider defines the uniform capability over heterogeneous LLM
// backends. A Client sends a projected message list and returns a reply plus
// opportunistic token usage, or a classified error; variants differ only in
// request/response shape translation. The Registry maps provider identifiers
// to constructed clients from endpoint configuration, and a rate-limit
// decorator caps outbound request rates per provider.
package provider
