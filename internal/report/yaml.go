package report

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"specparam/internal/consensus"
)

// yamlDocument is the on-disk shape of the parameters report.
type yamlDocument struct {
	Metadata   yamlMetadata    `yaml:"metadata"`
	Summary    yamlSummary     `yaml:"validation_summary"`
	Parameters []yamlParameter `yaml:"parameters"`
}

type yamlMetadata struct {
	RunID          string              `yaml:"run_id"`
	ExtractionDate string              `yaml:"extraction_date"`
	PromptStrategy string              `yaml:"prompt_strategy"`
	BackendsUsed   []BackendDescriptor `yaml:"backends_used"`
	TotalSnippets  int                 `yaml:"total_snippets"`
}

type yamlSummary struct {
	TotalParameters  int `yaml:"total_parameters"`
	HighConfidence   int `yaml:"high_confidence"`
	MediumConfidence int `yaml:"medium_confidence"`
	LowConfidence    int `yaml:"low_confidence"`
}

type yamlParameter struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Type        string         `yaml:"type"`
	Constraints string         `yaml:"constraints"`
	Source      string         `yaml:"source"`
	Keywords    []string       `yaml:"keywords"`
	Confidence  yamlConfidence `yaml:"confidence"`
	NeedsReview bool           `yaml:"needs_review"`
}

type yamlConfidence struct {
	Score     float64 `yaml:"score"`
	Level     string  `yaml:"level"`
	Agreement string  `yaml:"agreement"`
}

// WriteParametersYAML writes the final reconciled parameter document: run
// metadata, the per-tier summary, and one record per consensus entry with a
// nested confidence block.
func WriteParametersYAML(path string, entries []consensus.Entry, meta Metadata) error {
	summary := consensus.Summarize(entries)
	doc := yamlDocument{
		Metadata: yamlMetadata{
			RunID:          meta.RunID,
			ExtractionDate: meta.ExtractionDate.Format(time.RFC3339),
			PromptStrategy: meta.Strategy,
			BackendsUsed:   meta.Backends,
			TotalSnippets:  meta.TotalSnippets,
		},
		Summary: yamlSummary{
			TotalParameters:  summary.TotalParameters,
			HighConfidence:   summary.HighConfidence,
			MediumConfidence: summary.MediumConfidence,
			LowConfidence:    summary.LowConfidence,
		},
		Parameters: make([]yamlParameter, 0, len(entries)),
	}

	for _, e := range entries {
		rep := e.Representative
		doc.Parameters = append(doc.Parameters, yamlParameter{
			Name:        rep.Name,
			Description: rep.Description,
			Type:        rep.Type,
			Constraints: rep.Constraints,
			Source:      rep.SourceSnippet,
			Keywords:    rep.Keywords,
			Confidence: yamlConfidence{
				Score:     round2(e.ConfidenceScore),
				Level:     string(e.Tier),
				Agreement: agreementLabel(e.AgreementCount, e.TotalBackends),
			},
			NeedsReview: e.NeedsReview,
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
