package agent

import "github.com/duologue/duologue/core"

// KickoffPrompt seeds the very first call of a conversation, when there is
// no transcript yet for the opening agent to react to.
const KickoffPrompt = "Let's start the conversation."

// AssembleContext builds the ordered message list sent to the provider for
// this agent's next turn: one leading system entry with the persona
// instructions, then the full transcript projected into the two-party role
// vocabulary. The agent's own prior messages become assistant entries;
// everything else (other agents, narrator, system injections) becomes user
// entries, preserving transcript order. Narrator content is included
// verbatim in position. The transcript is never mutated.
func (a *Agent) AssembleContext(topic string, transcript []core.Message) []core.Message {
	context := make([]core.Message, 0, len(transcript)+2)
	context = append(context, core.Message{
		Role:    core.RoleSystem,
		Author:  "system",
		Content: a.persona.SystemPrompt(topic),
	})

	for _, msg := range transcript {
		projected := msg
		if msg.Role == core.RoleAssistant && msg.Author == a.Name() {
			projected.Role = core.RoleAssistant
		} else {
			projected.Role = core.RoleUser
		}
		context = append(context, projected)
	}

	if len(transcript) == 0 {
		context = append(context, core.Message{
			Role:    core.RoleUser,
			Author:  "system",
			Content: KickoffPrompt,
		})
	}
	return context
}
