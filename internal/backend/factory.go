package backend

import (
	"fmt"

	"specparam/internal/types"
)

// Family identifies a backend family.
type Family string

const (
	FamilyOpenRouter Family = "openrouter"
	FamilyGemini     Family = "gemini"
)

// NewClient creates a generation client for the given family.
func NewClient(family Family, cfg Config) (types.GenerationClient, error) {
	switch family {
	case FamilyOpenRouter:
		return NewOpenRouterClient(cfg), nil
	case FamilyGemini:
		return NewGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown backend family: %s (valid: %s, %s)", family, FamilyOpenRouter, FamilyGemini)
	}
}
