package consensus

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"specparam/internal/types"
)

func success(backendID string, records ...types.ParameterRecord) types.BackendResult {
	params := make(map[string]types.ParameterRecord, len(records))
	for _, rec := range records {
		params[rec.Key()] = rec
	}
	return types.BackendResult{
		BackendID:  backendID,
		StrategyID: "few_shot",
		SnippetID:  "s1.txt",
		Status:     types.StatusSuccess,
		Parameters: params,
	}
}

func failure(backendID string) types.BackendResult {
	return types.BackendResult{
		BackendID:   backendID,
		Status:      types.StatusRequestFailure,
		ErrorDetail: "rate limited",
	}
}

func record(name string) types.ParameterRecord {
	return types.ParameterRecord{Name: name, Description: "about " + name}
}

func mustEngine(t *testing.T, threshold float64) *Engine {
	t.Helper()
	e, err := NewEngine(threshold)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewEngine_ThresholdRange(t *testing.T) {
	for _, bad := range []float64{-0.1, 1.01, 2} {
		if _, err := NewEngine(bad); err == nil {
			t.Errorf("threshold %v accepted", bad)
		}
	}
	for _, ok := range []float64{0, 0.5, 0.7, 1} {
		if _, err := NewEngine(ok); err != nil {
			t.Errorf("threshold %v rejected: %v", ok, err)
		}
	}
}

func TestReconcile_SevenOfTen(t *testing.T) {
	// 7 of 10 backends report cache_block_size, no failures.
	var results []types.BackendResult
	for i := 0; i < 7; i++ {
		results = append(results, success(fmt.Sprintf("b%d", i), record("cache_block_size")))
	}
	for i := 7; i < 10; i++ {
		results = append(results, success(fmt.Sprintf("b%d", i)))
	}

	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.ConfidenceScore != 0.7 {
		t.Errorf("score = %v, want 0.7", e.ConfidenceScore)
	}
	if e.Tier != TierHigh {
		t.Errorf("tier = %s, want high", e.Tier)
	}
	if e.NeedsReview {
		t.Error("needs_review = true at threshold 0.70")
	}
	if e.AgreementCount != 7 || e.TotalBackends != 10 {
		t.Errorf("agreement %d/%d, want 7/10", e.AgreementCount, e.TotalBackends)
	}
}

func TestReconcile_FailuresCountAgainstAgreement(t *testing.T) {
	// 5 dispatched, 2 failed, 3 successes all reporting X.
	results := []types.BackendResult{
		success("b1", record("X")),
		failure("b2"),
		success("b3", record("X")),
		failure("b4"),
		success("b5", record("X")),
	}

	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.TotalBackends != 5 || e.AgreementCount != 3 {
		t.Errorf("agreement %d/%d, want 3/5", e.AgreementCount, e.TotalBackends)
	}
	if e.ConfidenceScore != 0.6 {
		t.Errorf("score = %v, want 0.6", e.ConfidenceScore)
	}
	if e.Tier != TierMedium {
		t.Errorf("tier = %s, want medium", e.Tier)
	}
	if !e.NeedsReview {
		t.Error("0.6 < 0.70 should need review")
	}
	wantBackends := []string{"b1", "b3", "b5"}
	if diff := cmp.Diff(wantBackends, e.ContributingBackends); diff != "" {
		t.Errorf("contributing backends mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_ZeroSuccesses(t *testing.T) {
	results := []types.BackendResult{failure("b1"), failure("b2"), failure("b3")}
	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	if entries == nil {
		t.Fatal("expected empty list, got nil")
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

func TestReconcile_EmptyInput(t *testing.T) {
	if got := mustEngine(t, DefaultThreshold).Reconcile(nil); len(got) != 0 {
		t.Fatalf("got %d entries for no results", len(got))
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	results := []types.BackendResult{
		success("b1", record("alpha"), record("beta")),
		success("b2", record("alpha")),
		failure("b3"),
	}

	engine := mustEngine(t, DefaultThreshold)
	first := engine.Reconcile(results)
	second := engine.Reconcile(results)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reconcile is not idempotent (-first +second):\n%s", diff)
	}
}

func TestReconcile_RepresentativePlurality(t *testing.T) {
	// Two backends agree on the short description, one is verbose. Plurality
	// must not pick the eccentric phrasing.
	results := []types.BackendResult{
		success("b1", types.ParameterRecord{Name: "vlen", Description: "vector length", Type: "optional"}),
		success("b2", types.ParameterRecord{Name: "vlen", Description: "an elaborate description of the vector register length in bits", Type: "optional"}),
		success("b3", types.ParameterRecord{Name: "vlen", Description: "vector length", Type: "implementation-defined"}),
	}

	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	rep := entries[0].Representative
	if rep.Description != "vector length" {
		t.Errorf("description = %q, want plurality value", rep.Description)
	}
	if rep.Type != "optional" {
		t.Errorf("type = %q, want optional", rep.Type)
	}
}

func TestReconcile_TieBrokenByRosterOrder(t *testing.T) {
	results := []types.BackendResult{
		success("b1", types.ParameterRecord{Name: "asid_bits", Type: "optional"}),
		success("b2", types.ParameterRecord{Name: "asid_bits", Type: "implementation-defined"}),
	}

	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	if got := entries[0].Representative.Type; got != "optional" {
		t.Errorf("type = %q, want first-seen value on tie", got)
	}
}

func TestReconcile_EmptyFieldsLoseToNonEmpty(t *testing.T) {
	results := []types.BackendResult{
		success("b1", types.ParameterRecord{Name: "pmp_count"}),
		success("b2", types.ParameterRecord{Name: "pmp_count", Constraints: "up to 64 entries"}),
	}

	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	if got := entries[0].Representative.Constraints; got != "up to 64 entries" {
		t.Errorf("constraints = %q, want the only non-empty value", got)
	}
}

func TestReconcile_OutputOrderDeterministic(t *testing.T) {
	results := []types.BackendResult{
		success("b1", record("zeta"), record("alpha"), record("mid")),
		success("b2", record("alpha"), record("mid")),
		success("b3", record("alpha")),
	}

	entries := mustEngine(t, DefaultThreshold).Reconcile(results)
	var names []string
	for _, e := range entries {
		names = append(names, e.Representative.Name)
	}
	// Score descending, names ascending within equal scores.
	want := []string{"alpha", "mid", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("output order mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Tier: TierHigh}, {Tier: TierHigh},
		{Tier: TierMedium},
		{Tier: TierLow}, {Tier: TierLow}, {Tier: TierLow},
	}
	s := Summarize(entries)
	if s.TotalParameters != 6 || s.HighConfidence != 2 || s.MediumConfidence != 1 || s.LowConfidence != 3 {
		t.Errorf("summary = %+v", s)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Tier
	}{
		{1.0, TierHigh},
		{0.70, TierHigh},
		{0.69, TierMedium},
		{0.50, TierMedium},
		{0.49, TierLow},
		{0.0, TierLow},
	}
	for _, tc := range cases {
		if got := tierFor(tc.score); got != tc.want {
			t.Errorf("tierFor(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
