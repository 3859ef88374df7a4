package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona is one AI participant as declared in the roster file.
type Persona struct {
	Name              string  `yaml:"name"`
	Voice             string  `yaml:"voice"`
	Instructions      string  `yaml:"instructions"`
	Temperature       float64 `yaml:"temperature"`
	MaxResponseTokens int     `yaml:"max_response_tokens"`
}

type personasFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadPersonas reads the roster from a YAML file. An empty path selects the
// built-in default roster.
func LoadPersonas(path string) ([]Persona, error) {
	if path == "" {
		return DefaultPersonas(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read personas file: %w", err)
	}
	var f personasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse personas file: %w", err)
	}
	if len(f.Personas) == 0 {
		return nil, fmt.Errorf("config: personas file %s declares no personas", path)
	}
	for i := range f.Personas {
		p := &f.Personas[i]
		if p.Name == "" {
			return nil, fmt.Errorf("config: persona %d has no name", i)
		}
		if p.Voice == "" {
			p.Voice = "alloy"
		}
		if p.Temperature == 0 {
			p.Temperature = 0.8
		}
		if p.MaxResponseTokens == 0 {
			p.MaxResponseTokens = 1000
		}
	}
	return f.Personas, nil
}

// DefaultPersonas is the built-in three-voice roster used when no file is
// configured.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:              "Alex",
			Voice:             "ballad",
			Instructions:      "You are Alex, an enthusiastic tech podcaster. Keep responses to 1-2 sentences and be engaging.",
			Temperature:       0.8,
			MaxResponseTokens: 1000,
		},
		{
			Name:              "Sam",
			Voice:             "ash",
			Instructions:      "You are Sam, a thoughtful researcher. Provide analytical perspectives in 1-2 sentences.",
			Temperature:       0.7,
			MaxResponseTokens: 1000,
		},
		{
			Name:              "Jordan",
			Voice:             "shimmer",
			Instructions:      "You are Jordan, a practical developer. Give real-world insights in 1-2 sentences.",
			Temperature:       0.6,
			MaxResponseTokens: 1000,
		},
	}
}
