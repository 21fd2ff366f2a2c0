package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docs_rag/internal/rag"
)

// PromptVariant overrides answer settings. Zero values leave the
// env-level setting untouched.
type PromptVariant struct {
	GroundedSystem    string   `yaml:"grounded_system"`
	GeneralSystem     string   `yaml:"general_system"`
	RefusalSentence   string   `yaml:"refusal_sentence"`
	MaxContexts       int      `yaml:"max_contexts"`
	MaxContextChars   int      `yaml:"max_context_chars"`
	DistanceThreshold *float64 `yaml:"distance_threshold"`
}

// Prompts is the root of a PROMPTS_FILE.
type Prompts struct {
	Variants map[string]PromptVariant `yaml:"variants"`
}

func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	return &p, nil
}

func (p *Prompts) Variant(name string) (PromptVariant, error) {
	v, ok := p.Variants[name]
	if !ok {
		return PromptVariant{}, fmt.Errorf("%w: prompt variant %q not found", ErrInvalid, name)
	}
	return v, nil
}

func (v PromptVariant) apply(opts *rag.Options) {
	if v.GroundedSystem != "" {
		opts.GroundedSystem = v.GroundedSystem
	}
	if v.GeneralSystem != "" {
		opts.GeneralSystem = v.GeneralSystem
	}
	if v.RefusalSentence != "" {
		opts.RefusalSentence = v.RefusalSentence
	}
	if v.MaxContexts > 0 {
		opts.MaxContexts = v.MaxContexts
	}
	if v.MaxContextChars > 0 {
		opts.MaxContextChars = v.MaxContextChars
	}
	if v.DistanceThreshold != nil {
		opts.DistanceThreshold = *v.DistanceThreshold
	}
}
