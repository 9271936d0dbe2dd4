// Package report serializes run results into the flat output files analysts
// review: CSV tables for manual QA and a structured YAML document for
// downstream tooling. Pure serialization, no logic of its own.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BackendDescriptor identifies one roster entry in run metadata.
type BackendDescriptor struct {
	ID     string `yaml:"id"`
	Family string `yaml:"family"`
	Model  string `yaml:"model"`
}

// Metadata describes one extraction run.
type Metadata struct {
	RunID          string
	ExtractionDate time.Time
	Strategy       string
	Backends       []BackendDescriptor
	TotalSnippets  int
}

// NewMetadata stamps a fresh run.
func NewMetadata(strategy string, backends []BackendDescriptor, totalSnippets int) Metadata {
	return Metadata{
		RunID:          uuid.NewString(),
		ExtractionDate: time.Now(),
		Strategy:       strategy,
		Backends:       backends,
		TotalSnippets:  totalSnippets,
	}
}

// agreementLabel renders "3/5 backends" for the QA tables.
func agreementLabel(agreement, total int) string {
	return fmt.Sprintf("%d/%d backends", agreement, total)
}
