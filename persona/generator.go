package persona

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/duologue/duologue/core"
	"github.com/duologue/duologue/provider"
)

// AgeRange bounds the random age picked for a character category.
type AgeRange struct {
	Min, Max int
}

// Attribute tables the generator draws from. Mirrors of the original persona
// tooling's categories.
var (
	AgeRanges = map[string]AgeRange{
		"Young Adult": {18, 29},
		"Adult":       {30, 45},
		"Middle-Aged": {46, 60},
		"Senior":      {61, 85},
		"AI Entity":   {1, 99},
	}

	CharacterTypes = []string{
		"Academic/Intellectual",
		"Artist/Creative",
		"Business Professional",
		"Scientist/Researcher",
		"Medical Professional",
		"Technology Expert",
		"Adventurer/Explorer",
		"Educator/Teacher",
		"Philosopher/Thinker",
		"Humanitarian/Activist",
		"Engineer/Builder",
		"Writer/Storyteller",
		"Historian/Archivist",
		"Diplomat/Negotiator",
		"Athlete/Physical Expert",
		"Craftsperson/Artisan",
		"AI Entity",
	}

	Genders = []string{"male", "female", "non-binary", "AI Entity"}
)

// Generator drafts new personas: attributes are sampled from the tables
// above, while the name and personality text are produced by a provider
// client so generated characters stay varied.
type Generator struct {
	client provider.Client
	model  string
	rng    *rand.Rand
}

// NewGenerator creates a generator backed by the given client and model.
// The rng may be seeded for reproducible attribute sampling; pass nil for a
// generator seeded from global randomness.
func NewGenerator(client provider.Client, model string, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Generator{client: client, model: model, rng: rng}
}

// Generate drafts one persona. Provider failures propagate classified.
func (g *Generator) Generate(ctx context.Context) (*Persona, error) {
	characterType := CharacterTypes[g.rng.Intn(len(CharacterTypes))]
	gender := Genders[g.rng.Intn(len(Genders))]
	ageRange := AgeRanges["Adult"]
	if r, ok := AgeRanges[characterType]; ok {
		ageRange = r
	}
	age := ageRange.Min + g.rng.Intn(ageRange.Max-ageRange.Min+1)

	name, err := g.generateName(ctx, characterType, age, gender)
	if err != nil {
		return nil, err
	}
	personality, err := g.generatePersonality(ctx, name, characterType, age, gender)
	if err != nil {
		return nil, err
	}

	p := &Persona{
		Name:        name,
		Personality: personality,
		Age:         age,
		Gender:      gender,
		Temperature: 0.7,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Generator) generateName(ctx context.Context, characterType string, age int, gender string) (string, error) {
	history := []core.Message{
		core.NewMessage(core.RoleSystem, "system",
			"You are a helpful assistant that generates realistic character names. Return ONLY the name with NO additional text."),
		core.NewMessage(core.RoleUser, "user",
			fmt.Sprintf("Generate one first name for a %d year old %s character of type %q.", age, gender, characterType)),
	}

	res, err := g.client.SendMessage(ctx, history, g.model, provider.GenerateOptions{Temperature: 1.0, MaxTokens: 20})
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(strings.Trim(res.Text, `"'.`))
	if name == "" {
		return "", core.NewError(core.KindTransient, "generator returned an empty name")
	}
	return name, nil
}

func (g *Generator) generatePersonality(ctx context.Context, name, characterType string, age int, gender string) (string, error) {
	history := []core.Message{
		core.NewMessage(core.RoleSystem, "system",
			"Generate distinctive personality descriptions for fictional characters focusing on cognitive, emotional, and behavioral traits."),
		core.NewMessage(core.RoleUser, "user",
			fmt.Sprintf("Write 4-6 sentences describing the personality of %s, a %d year old %s %s. Make the description distinctive and avoid generic traits. Return ONLY the description.",
				name, age, gender, characterType)),
	}

	res, err := g.client.SendMessage(ctx, history, g.model, provider.GenerateOptions{Temperature: 0.9, MaxTokens: 400})
	if err != nil {
		return "", err
	}

	personality := strings.TrimSpace(res.Text)
	if personality == "" {
		return "", core.NewError(core.KindTransient, "generator returned an empty personality")
	}
	return personality, nil
}
