// Package extract drives parameter extraction: it fans one rendered prompt
// out across the whole backend roster, applies the retry policy and
// credential rotation around every dispatch, and parses each reply into a
// BackendResult. Failures local to one backend are absorbed here; a run
// never aborts because a single backend misbehaved.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"specparam/internal/backend"
	"specparam/internal/credential"
	"specparam/internal/parser"
	"specparam/internal/prompt"
	"specparam/internal/retry"
	"specparam/internal/types"
)

// Backend is one roster entry: a generation client plus the credential pool
// for its family.
type Backend struct {
	ID          string
	Client      types.GenerationClient
	Credentials *credential.Rotator
}

// Orchestrator runs extraction over a fixed backend roster. Roster order
// comes from configuration and is preserved in the result slice.
type Orchestrator struct {
	roster []Backend
	policy retry.Policy
	logger *zap.Logger
}

// NewOrchestrator validates the roster and builds an orchestrator. Every
// entry needs an ID, a client and a non-empty credential pool; anything less
// is a configuration error caught before the first dispatch.
func NewOrchestrator(roster []Backend, policy retry.Policy, logger *zap.Logger) (*Orchestrator, error) {
	if len(roster) == 0 {
		return nil, errors.New("backend roster is empty")
	}
	for i, b := range roster {
		if b.ID == "" {
			return nil, fmt.Errorf("roster entry %d has no ID", i)
		}
		if b.Client == nil {
			return nil, fmt.Errorf("backend %s has no client", b.ID)
		}
		if b.Credentials == nil || b.Credentials.IsEmpty() {
			return nil, fmt.Errorf("backend %s has no credentials", b.ID)
		}
	}
	if policy.Retryable == nil {
		policy.Retryable = backend.Retryable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Orchestrator{roster: roster, policy: policy, logger: logger}, nil
}

// RosterIDs returns the backend identifiers in roster order.
func (o *Orchestrator) RosterIDs() []string {
	ids := make([]string, len(o.roster))
	for i, b := range o.roster {
		ids[i] = b.ID
	}
	return ids
}

// Run extracts parameters from one snippet with one strategy across the full
// roster. Backends dispatch concurrently; each one's retry backoff and
// inter-request delay are local to its own call sequence. The returned slice
// is in roster order and always has one entry per backend.
func (o *Orchestrator) Run(ctx context.Context, snip types.Snippet, strategy prompt.Strategy) ([]types.BackendResult, error) {
	promptText, err := prompt.Render(strategy, snip.Text)
	if err != nil {
		return nil, err
	}

	results := make([]types.BackendResult, len(o.roster))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range o.roster {
		g.Go(func() error {
			results[i] = o.dispatch(ctx, b, promptText, string(strategy), snip.ID)
			return nil
		})
	}
	// Dispatch goroutines absorb their own failures.
	_ = g.Wait()

	return results, nil
}

// RunAll runs extraction over a snippet set in the given (stable) order.
// Snippets are independent of each other.
func (o *Orchestrator) RunAll(ctx context.Context, snippets []types.Snippet, strategy prompt.Strategy) ([][]types.BackendResult, error) {
	all := make([][]types.BackendResult, 0, len(snippets))
	for _, snip := range snippets {
		o.logger.Info("processing snippet",
			zap.String("snippet", snip.ID),
			zap.String("strategy", string(strategy)))
		results, err := o.Run(ctx, snip, strategy)
		if err != nil {
			return nil, err
		}
		all = append(all, results)
	}
	return all, nil
}

// dispatch performs one backend's full call sequence: retry loop with a
// freshly rotated credential per attempt, then response parsing. All failure
// modes collapse into the result's status.
func (o *Orchestrator) dispatch(ctx context.Context, b Backend, promptText, strategyID, snippetID string) types.BackendResult {
	result := types.BackendResult{
		BackendID:  b.ID,
		StrategyID: strategyID,
		SnippetID:  snippetID,
	}

	operation := fmt.Sprintf("%s/%s", b.ID, snippetID)
	raw, err := o.policy.Do(ctx, operation, func(ctx context.Context) (string, error) {
		// Fresh credential on every attempt, not just the first.
		return b.Client.Generate(ctx, promptText, b.Credentials.Next())
	})
	if err != nil {
		o.logger.Warn("dispatch failed",
			zap.String("backend", b.ID),
			zap.String("snippet", snippetID),
			zap.Error(err))
		result.Status = types.StatusRequestFailure
		result.ErrorDetail = err.Error()
		return result
	}

	records, err := parser.Parse(raw)
	if err != nil {
		o.logger.Warn("response unparseable",
			zap.String("backend", b.ID),
			zap.String("snippet", snippetID),
			zap.Error(err))
		result.Status = types.StatusParseFailure
		result.ErrorDetail = err.Error()
		return result
	}

	for key, rec := range records {
		rec.SourceSnippet = snippetID
		records[key] = rec
	}

	o.logger.Debug("backend completed",
		zap.String("backend", b.ID),
		zap.String("snippet", snippetID),
		zap.Int("parameters", len(records)))

	result.Status = types.StatusSuccess
	result.Parameters = records
	return result
}
