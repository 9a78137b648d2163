// Package persona defines the identities that author conversation turns: a
// name, a personality used to render system instructions, and default
// provider/model/generation settings. Personas are loaded from external
// configuration before a conversation starts and are immutable during a run.
// The package also contains a generator that drafts new personas with the
// help of a provider client.
package persona
