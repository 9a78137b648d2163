package persona

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/duologue/duologue/core"
)

// Fallback names an alternate (provider, model) pair an agent may switch to
// after its primary pair is exhausted.
type Fallback struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Persona is an identity used to author turns. It is pure data: the core
// performs structural validation only and never mutates a persona during a
// conversation.
type Persona struct {
	Name        string     `yaml:"name"`
	Personality string     `yaml:"personality"`
	Age         int        `yaml:"age"`
	Gender      string     `yaml:"gender"`
	Provider    string     `yaml:"provider"`
	Model       string     `yaml:"model"`
	Temperature float64    `yaml:"temperature"`
	MaxTokens   int        `yaml:"max_tokens"`
	Fallbacks   []Fallback `yaml:"fallbacks"`
}

// Validate performs structural validation of a single persona record.
func (p *Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return core.NewError(core.KindConfiguration, "persona name must not be empty")
	}
	if strings.TrimSpace(p.Personality) == "" {
		return core.NewErrorf(core.KindConfiguration, "persona %q has no personality", p.Name)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return core.NewErrorf(core.KindConfiguration,
			"persona %q temperature %.2f outside accepted range [0, 2]", p.Name, p.Temperature)
	}
	if p.MaxTokens < 0 {
		return core.NewErrorf(core.KindConfiguration, "persona %q has negative max_tokens", p.Name)
	}
	return nil
}

// Load decodes a YAML sequence of persona records, validating each and
// rejecting duplicate names.
func Load(r io.Reader) ([]*Persona, error) {
	var records []*Persona
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		return nil, core.NewError(core.KindConfiguration, "parse personas").WithCause(err)
	}

	seen := make(map[string]bool, len(records))
	for _, p := range records {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, core.NewErrorf(core.KindConfiguration, "duplicate persona name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return records, nil
}

// SystemPrompt renders the role-play instruction block for this persona
// around the given conversation topic. The counterpart's turns arrive as
// user messages and narrator entries are scene directions, so the rules
// below keep a two-role model speaking as a single consistent character.
func (p *Persona) SystemPrompt(topic string) string {
	if topic == "" {
		topic = "free conversation"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are role-playing as the character '%s', in a conversation with another character.\n", p.Name)
	fmt.Fprintf(&b, "Your response MUST be ONLY the words spoken by '%s' in the first person.\n", p.Name)
	fmt.Fprintf(&b, "Your primary focus is discussing the topic: '%s'.\n", topic)
	b.WriteString("Messages from other characters appear as user turns; speak ONLY as yourself.\n")
	b.WriteString("Messages labeled as from 'Narrator' are scene descriptions or background information, NOT a character speaking to you; react to them as events in your world and never address the Narrator directly.\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "--- Character Profile: %s ---\n", p.Name)
	if p.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", p.Age)
	}
	if p.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", p.Gender)
	}
	fmt.Fprintf(&b, "Personality: %s\n", p.Personality)
	b.WriteString("\n--- RULES ---\n")
	fmt.Fprintf(&b, "1. NEVER break character. You are '%s'.\n", p.Name)
	b.WriteString("2. NEVER write instructions, commentary, or discuss being an AI.\n")
	b.WriteString("3. NEVER generate text for any character other than yourself.\n")
	b.WriteString("4. AVOID repeating sentences or phrases from your own previous turns; introduce new points or reactions.\n")
	b.WriteString("5. DO NOT use phrases that suggest ending the conversation; the interaction is ongoing until the session ends.\n")
	b.WriteString("6. ACTIVELY push the interaction forward: introduce new plot points, questions or motivations so the conversation never stagnates.\n")
	fmt.Fprintf(&b, "\nYou are '%s'. Now, continue the conversation naturally, pushing it forward:", p.Name)
	return b.String()
}
