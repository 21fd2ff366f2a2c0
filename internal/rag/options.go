package rag

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultTopK              = 5
	DefaultDistanceThreshold = 0.6
	DefaultMaxContexts       = 3
	DefaultMaxContextChars   = 1200
	DefaultRefusalSentence   = "I don't know based on the provided documents."
	DefaultRefusalPrefix     = "I don't know"
)

// RefusalPlaceholder is replaced by the refusal sentence in GroundedSystem.
const RefusalPlaceholder = "{refusal}"

const DefaultGroundedSystem = `You are a company document assistant.

RULES:
- Answer using ONLY the provided CONTEXT from company documents.
- Do NOT use outside knowledge.
- If the answer is not found in the CONTEXT, reply exactly:
"{refusal}"
- Cite the context items you used like [1], [2].

Keep the answer short and accurate.`

const DefaultGeneralSystem = `You are a helpful assistant. Answer the question clearly and concisely.`

var ErrInvalidOptions = errors.New("invalid answer options")

// Options configures the orchestrator. It is resolved once at construction.
type Options struct {
	TopK              int
	DistanceThreshold float64
	MaxContexts       int
	MaxContextChars   int
	RefusalSentence   string
	RefusalPrefix     string
	GroundedSystem    string
	GeneralSystem     string
}

func DefaultOptions() Options {
	return Options{
		TopK:              DefaultTopK,
		DistanceThreshold: DefaultDistanceThreshold,
		MaxContexts:       DefaultMaxContexts,
		MaxContextChars:   DefaultMaxContextChars,
		RefusalSentence:   DefaultRefusalSentence,
		RefusalPrefix:     DefaultRefusalPrefix,
		GroundedSystem:    DefaultGroundedSystem,
		GeneralSystem:     DefaultGeneralSystem,
	}
}

func (o Options) Validate() error {
	switch {
	case o.TopK <= 0:
		return fmt.Errorf("%w: top k must be positive, got %d", ErrInvalidOptions, o.TopK)
	case o.DistanceThreshold < 0:
		return fmt.Errorf("%w: distance threshold must be >= 0, got %v", ErrInvalidOptions, o.DistanceThreshold)
	case o.MaxContexts <= 0:
		return fmt.Errorf("%w: max contexts must be positive, got %d", ErrInvalidOptions, o.MaxContexts)
	case o.MaxContextChars <= 0:
		return fmt.Errorf("%w: max context chars must be positive, got %d", ErrInvalidOptions, o.MaxContextChars)
	case strings.TrimSpace(o.RefusalSentence) == "":
		return fmt.Errorf("%w: refusal sentence is empty", ErrInvalidOptions)
	case normalize(o.RefusalPrefix) == "":
		return fmt.Errorf("%w: refusal prefix is empty", ErrInvalidOptions)
	case strings.TrimSpace(o.GroundedSystem) == "" || strings.TrimSpace(o.GeneralSystem) == "":
		return fmt.Errorf("%w: system prompts must be set", ErrInvalidOptions)
	}
	return nil
}

// groundedSystem returns the grounded system prompt with the refusal
// sentence filled in.
func (o Options) groundedSystem() string {
	return strings.ReplaceAll(o.GroundedSystem, RefusalPlaceholder, o.RefusalSentence)
}
