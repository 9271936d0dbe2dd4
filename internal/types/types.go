// Package types holds the record types and interfaces shared across the
// extraction pipeline. Keeping them here avoids import cycles between the
// parser, the orchestrator and the consensus engine.
package types

import (
	"context"
	"strings"
)

// GenerationClient is the interface every backend family implements.
// Generate sends a rendered prompt using the supplied credential and returns
// the raw completion text. Implementations classify failures as
// backend.RequestError so the retry layer can tell transient from terminal.
type GenerationClient interface {
	Generate(ctx context.Context, prompt, credential string) (string, error)

	// Model returns the model identifier this client dispatches to.
	Model() string
}

// ParameterRecord is one candidate architectural parameter as reported by a
// single backend for a single snippet.
type ParameterRecord struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Type          string   `yaml:"type"`
	Constraints   string   `yaml:"constraints"`
	Keywords      []string `yaml:"keywords"`
	SourceSnippet string   `yaml:"source,omitempty"`
}

// Key returns the normalized merge identity for the record. Two records with
// the same key from different backends describe the same parameter.
func (p ParameterRecord) Key() string {
	return NormalizeName(p.Name)
}

// NormalizeName lowercases and trims a parameter name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Status classifies the outcome of one backend dispatch.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusParseFailure   Status = "parse_failure"
	StatusRequestFailure Status = "request_failure"
)

// BackendResult is the outcome of one (backend, snippet, strategy) dispatch.
// It is created once by the orchestrator and never mutated afterwards.
type BackendResult struct {
	BackendID  string
	StrategyID string
	SnippetID  string
	Status     Status

	// Parameters is keyed by normalized parameter name. Empty unless
	// Status == StatusSuccess.
	Parameters map[string]ParameterRecord

	// ErrorDetail is set iff Status != StatusSuccess.
	ErrorDetail string
}

// OK reports whether the dispatch produced a usable parameter set.
func (r BackendResult) OK() bool {
	return r.Status == StatusSuccess
}

// Snippet is one unit of input specification text.
type Snippet struct {
	ID   string
	Text string
}
