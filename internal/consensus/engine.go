// Package consensus reconciles per-backend parameter sets into a single
// confidence-scored list. Agreement across independent backends is the only
// signal: a parameter most backends reported is probably real, one a single
// backend hallucinated is probably not.
package consensus

import (
	"fmt"
	"sort"
	"strings"

	"specparam/internal/types"
)

// Tier buckets a confidence score.
type Tier string

const (
	TierHigh   Tier = "high"   // score >= 0.70
	TierMedium Tier = "medium" // 0.50 <= score < 0.70
	TierLow    Tier = "low"    // score < 0.50
)

const (
	highBoundary   = 0.70
	mediumBoundary = 0.50
)

// DefaultThreshold is the review threshold applied when none is configured.
const DefaultThreshold = 0.70

// Entry is the merged view of one parameter across all backends for one run.
// Entries are built once and never patched; changed inputs mean a fresh
// Reconcile call.
type Entry struct {
	Representative       types.ParameterRecord
	AgreementCount       int
	TotalBackends        int
	ConfidenceScore      float64
	Tier                 Tier
	ContributingBackends []string
	NeedsReview          bool
}

// Summary counts entries per tier for one run.
type Summary struct {
	TotalParameters  int
	HighConfidence   int
	MediumConfidence int
	LowConfidence    int
}

// Engine reconciles backend results under a configured review threshold.
type Engine struct {
	threshold float64
}

// NewEngine builds an engine. The threshold must lie in [0, 1].
func NewEngine(threshold float64) (*Engine, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v out of range [0, 1]", threshold)
	}
	return &Engine{threshold: threshold}, nil
}

// contribution is one backend's version of a parameter.
type contribution struct {
	backendID string
	record    types.ParameterRecord
}

// Reconcile merges the per-backend results of one orchestration run. Every
// dispatched backend counts toward the denominator, successes and failures
// alike: a backend that failed to answer is evidence of absence. Entries
// below the threshold are flagged needs_review but kept; with zero successes
// the result is simply empty. Output order is deterministic: score
// descending, then name.
func (e *Engine) Reconcile(results []types.BackendResult) []Entry {
	total := len(results)
	if total == 0 {
		return []Entry{}
	}

	// Group records by normalized name, contributions in roster order.
	groups := make(map[string][]contribution)
	for _, res := range results {
		if !res.OK() {
			continue
		}
		for key, rec := range res.Parameters {
			groups[key] = append(groups[key], contribution{backendID: res.BackendID, record: rec})
		}
	}

	entries := make([]Entry, 0, len(groups))
	for _, contribs := range groups {
		agreement := len(contribs)
		score := float64(agreement) / float64(total)

		backends := make([]string, 0, agreement)
		for _, c := range contribs {
			backends = append(backends, c.backendID)
		}

		entries = append(entries, Entry{
			Representative:       representative(contribs),
			AgreementCount:       agreement,
			TotalBackends:        total,
			ConfidenceScore:      score,
			Tier:                 tierFor(score),
			ContributingBackends: backends,
			NeedsReview:          score < e.threshold,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConfidenceScore != entries[j].ConfidenceScore {
			return entries[i].ConfidenceScore > entries[j].ConfidenceScore
		}
		return entries[i].Representative.Key() < entries[j].Representative.Key()
	})
	return entries
}

// Threshold returns the configured review threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Summarize counts entries per tier.
func Summarize(entries []Entry) Summary {
	s := Summary{TotalParameters: len(entries)}
	for _, entry := range entries {
		switch entry.Tier {
		case TierHigh:
			s.HighConfidence++
		case TierMedium:
			s.MediumConfidence++
		default:
			s.LowConfidence++
		}
	}
	return s
}

func tierFor(score float64) Tier {
	switch {
	case score >= highBoundary:
		return TierHigh
	case score >= mediumBoundary:
		return TierMedium
	default:
		return TierLow
	}
}

// representative merges contributing records field by field: the most common
// non-empty value wins, ties broken by the earliest backend in roster order.
// Plurality avoids biasing toward a single backend's verbose phrasing.
func representative(contribs []contribution) types.ParameterRecord {
	names := make([]string, len(contribs))
	descriptions := make([]string, len(contribs))
	typeTags := make([]string, len(contribs))
	constraints := make([]string, len(contribs))
	snippets := make([]string, len(contribs))
	keywordVotes := make([]string, len(contribs))
	keywordsByVote := make(map[string][]string)

	for i, c := range contribs {
		names[i] = c.record.Name
		descriptions[i] = c.record.Description
		typeTags[i] = c.record.Type
		constraints[i] = c.record.Constraints
		snippets[i] = c.record.SourceSnippet
		if len(c.record.Keywords) > 0 {
			vote := strings.Join(c.record.Keywords, "\x1f")
			keywordVotes[i] = vote
			if _, seen := keywordsByVote[vote]; !seen {
				keywordsByVote[vote] = c.record.Keywords
			}
		}
	}

	return types.ParameterRecord{
		Name:          plurality(names),
		Description:   plurality(descriptions),
		Type:          plurality(typeTags),
		Constraints:   plurality(constraints),
		Keywords:      keywordsByVote[plurality(keywordVotes)],
		SourceSnippet: plurality(snippets),
	}
}

// plurality returns the most common non-empty value, first-seen winning ties.
func plurality(values []string) string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
		if _, ok := firstSeen[v]; !ok {
			firstSeen[v] = i
		}
	}

	best := ""
	for v, n := range counts {
		if best == "" {
			best = v
			continue
		}
		if n > counts[best] || (n == counts[best] && firstSeen[v] < firstSeen[best]) {
			best = v
		}
	}
	return best
}
