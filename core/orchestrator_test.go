package core

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// sampleSnapshot scores 0.8 for maintainers, 0.5 for correctness,
// 0.75 for bus factor and 0.5 for PR review.
func sampleSnapshot() *schema.Snapshot {
	t0 := fixedNow.Add(-60 * 24 * time.Hour)
	return &schema.Snapshot{
		URL: "https://github.com/acme/widget",
		Commits: []schema.Commit{
			{Author: "a", Time: t0},
			{Author: "b", Time: t0.Add(time.Hour)},
			{Author: "c", Time: t0.Add(2 * time.Hour)},
			{Author: "d", Time: t0.Add(3 * time.Hour)},
		},
		Issues: []schema.Issue{
			{Number: 1, State: schema.ClosedState, CreatedAt: t0, ClosedAt: t0.Add(24 * time.Hour)},
			{Number: 2, State: schema.OpenState, CreatedAt: t0},
		},
		PullRequests: []schema.PullRequest{
			{Number: 3, CreatedAt: t0, ClosedAt: t0.Add(48 * time.Hour), Reviewed: true},
			{Number: 4, CreatedAt: t0},
		},
		FetchedAt: fixedNow,
	}
}

func newTestOrchestrator(t *testing.T, opts OrchestratorOptions) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(opts)
	require.NoError(t, err)
	o.now = func() time.Time { return fixedNow }
	return o
}

func scoreOf(t *testing.T, r *schema.Report, kind schema.MetricKind) float64 {
	t.Helper()
	res, ok := r.Result(kind)
	require.True(t, ok, "missing %s", kind)
	require.True(t, res.OK(), "%s failed: %s", kind, res.Err)
	return res.Score
}

func TestOrchestratorRun(t *testing.T) {
	o := newTestOrchestrator(t, OrchestratorOptions{})

	report, err := o.Run(context.Background(), schema.ScoringInput{
		RunID:       "run-1",
		URL:         "https://github.com/acme/widget",
		Snapshot:    sampleSnapshot(),
		LicenseText: "MIT License",
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, schema.DoneState, report.State)
	assert.Equal(t, "https://github.com/acme/widget", report.RepoURL)

	require.Len(t, report.Results, len(schema.AllMetrics))
	for i, kind := range schema.AllMetrics {
		assert.Equal(t, kind, report.Results[i].Kind, "results keep report order")
		assert.GreaterOrEqual(t, report.Results[i].LatencyMs, 0.0)
	}

	assert.InDelta(t, 0.0, scoreOf(t, report, schema.RampUpMetric), 1e-9)
	assert.InDelta(t, 0.5, scoreOf(t, report, schema.CorrectnessMetric), 1e-9)
	assert.InDelta(t, 0.75, scoreOf(t, report, schema.BusFactorMetric), 1e-9)
	assert.InDelta(t, 0.8, scoreOf(t, report, schema.ResponsiveMetric), 1e-9)
	assert.InDelta(t, 1.0, scoreOf(t, report, schema.LicenseMetric), 1e-9)
	assert.InDelta(t, 0.5, scoreOf(t, report, schema.PullRequestMetric), 1e-9)

	// 0.4*0.8 + 0.3*0.5 + 0.1*0.75 + 0.1*0 + 0.1*0.5
	assert.InDelta(t, 0.595, report.NetScore, 1e-9)

	assert.Equal(t, 4, report.Maintainer.ActiveMaintainers)
	assert.True(t, report.Maintainer.FastResponse)
	assert.False(t, report.Maintainer.HealthyRatio)
	assert.Equal(t, []string{"a"}, report.KeyAuthors, "the first author owns the history")
}

func TestOrchestratorLatencies(t *testing.T) {
	o, err := NewOrchestrator(OrchestratorOptions{})
	require.NoError(t, err)

	report, err := o.Run(context.Background(), schema.ScoringInput{URL: "https://github.com/acme/widget", Snapshot: sampleSnapshot()})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.AggregateMs, 0.0)
	assert.LessOrEqual(t, report.AggregateMs, report.NetLatencyMs, "aggregation is part of the run")
}

func TestOrchestratorReadmeText(t *testing.T) {
	o := newTestOrchestrator(t, OrchestratorOptions{})
	report, err := o.Run(context.Background(), schema.ScoringInput{
		URL:         "https://github.com/acme/widget",
		Snapshot:    sampleSnapshot(),
		LicenseText: "MIT License",
		ReadmeText:  "# Widget\n\nThe cat sat on the mat. It is a good cat.\n",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, scoreOf(t, report, schema.RampUpMetric))
	assert.InDelta(t, 0.695, report.NetScore, 1e-9)
}

func TestOrchestratorGeneratesRunID(t *testing.T) {
	o := newTestOrchestrator(t, OrchestratorOptions{})
	report, err := o.Run(context.Background(), schema.ScoringInput{URL: "https://github.com/acme/widget", Snapshot: sampleSnapshot()})
	require.NoError(t, err)
	assert.Len(t, report.RunID, 36)
}

func TestOrchestratorLicenseGate(t *testing.T) {
	o := newTestOrchestrator(t, OrchestratorOptions{})

	report, err := o.Run(context.Background(), schema.ScoringInput{
		URL:         "https://github.com/acme/widget",
		Snapshot:    sampleSnapshot(),
		LicenseText: "Apache License 2.0",
	})
	require.NoError(t, err)
	assert.Zero(t, scoreOf(t, report, schema.LicenseMetric))
	assert.Zero(t, report.NetScore)
}

func TestOrchestratorFailedMetric(t *testing.T) {
	snap := sampleSnapshot()
	snap.Commits = nil

	t.Run("counts as zero", func(t *testing.T) {
		o := newTestOrchestrator(t, OrchestratorOptions{})
		report, err := o.Run(context.Background(), schema.ScoringInput{URL: "https://github.com/acme/widget", Snapshot: snap, LicenseText: "MIT License"})
		require.NoError(t, err)

		failures := report.Failures()
		require.Len(t, failures, 1)
		assert.Equal(t, schema.BusFactorMetric, failures[0].Kind)
		assert.Contains(t, failures[0].Err, "insufficient data")
		assert.Equal(t, schema.NotComputed, report.Record().BusFactor)

		// Without commits nobody counts as a maintainer: 0.4 + 0.3
		assert.InDelta(t, 0.4*0.7+0.3*0.5+0.1*0.5, report.NetScore, 1e-9)
	})

	t.Run("fail fast aborts", func(t *testing.T) {
		o := newTestOrchestrator(t, OrchestratorOptions{FailFast: true})
		report, err := o.Run(context.Background(), schema.ScoringInput{URL: "https://github.com/acme/widget", Snapshot: snap})
		require.ErrorIs(t, err, ErrMetricFailed)
		assert.Contains(t, err.Error(), string(schema.BusFactorMetric))
		assert.Nil(t, report)
	})
}

func TestOrchestratorMetricTimeout(t *testing.T) {
	registry := &contract.MockRegistryClient{}
	registry.On("FetchPackage", mock.Anything, "slow").
		After(300*time.Millisecond).
		Return(&schema.PackageMetadata{Name: "slow"}, nil)

	o := newTestOrchestrator(t, OrchestratorOptions{Registry: registry, MetricTimeout: 20 * time.Millisecond})
	report, err := o.Run(context.Background(), schema.ScoringInput{
		URL:      "https://www.npmjs.com/package/slow",
		Snapshot: &schema.Snapshot{},
	})
	require.NoError(t, err)

	res, ok := report.Result(schema.RampUpMetric)
	require.True(t, ok)
	assert.Contains(t, res.Err, "deadline exceeded")
	assert.Less(t, res.LatencyMs, 300.0)
}

func TestOrchestratorCancelled(t *testing.T) {
	o := newTestOrchestrator(t, OrchestratorOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, schema.ScoringInput{URL: "https://github.com/acme/widget", Snapshot: sampleSnapshot()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrchestratorRequiresSnapshot(t *testing.T) {
	o := newTestOrchestrator(t, OrchestratorOptions{})
	_, err := o.Run(context.Background(), schema.ScoringInput{URL: "https://github.com/acme/widget"})
	require.Error(t, err)
}

func TestNetScore(t *testing.T) {
	weights := schema.DefaultNetWeights()
	all := func(score float64) []schema.MetricResult {
		results := make([]schema.MetricResult, 0, len(schema.AllMetrics))
		for _, kind := range schema.AllMetrics {
			results = append(results, schema.MetricResult{Kind: kind, Score: score})
		}
		return results
	}

	tests := []struct {
		name     string
		results  []schema.MetricResult
		weights  schema.NetWeights
		expected float64
	}{
		{name: "all perfect", results: all(1), weights: weights, expected: 1},
		{name: "all zero", results: all(0), weights: weights, expected: 0},
		{name: "half", results: all(0.5), weights: weights, expected: 0.25},
		{name: "no results", results: nil, weights: weights, expected: 0},
		{
			name: "license gates everything",
			results: []schema.MetricResult{
				{Kind: schema.ResponsiveMetric, Score: 1},
				{Kind: schema.CorrectnessMetric, Score: 1},
				{Kind: schema.LicenseMetric, Score: 0},
			},
			weights:  weights,
			expected: 0,
		},
		{
			name: "failed metric contributes nothing",
			results: []schema.MetricResult{
				{Kind: schema.ResponsiveMetric, Score: 1},
				{Kind: schema.CorrectnessMetric, Score: 1, Err: "boom"},
				{Kind: schema.LicenseMetric, Score: 1},
			},
			weights:  weights,
			expected: 0.4,
		},
		{
			name: "failed license zeroes the sum",
			results: []schema.MetricResult{
				{Kind: schema.ResponsiveMetric, Score: 1},
				{Kind: schema.LicenseMetric, Score: 1, Err: "boom"},
			},
			weights:  weights,
			expected: 0,
		},
		{
			name:     "custom weights",
			results:  all(1),
			weights:  schema.NetWeights{schema.CorrectnessMetric: 0.5},
			expected: 0.5,
		},
		{
			name:     "clamped",
			results:  all(1),
			weights:  schema.NetWeights{schema.CorrectnessMetric: 2},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, NetScore(tt.results, tt.weights), 1e-9)
		})
	}
}
