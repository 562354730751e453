package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/trustscore/core/metric"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
)

// ErrMetricFailed wraps the first calculator failure of a fail-fast run.
var ErrMetricFailed = errors.New("metric failed")

// calcOutcome is what a single calculator hands back to the join.
type calcOutcome struct {
	score      float64
	maintainer *schema.MaintainerBreakdown
	keyAuthors []string
	err        error
}

// calcFunc computes one metric over the immutable scoring input.
type calcFunc func(ctx context.Context, in *schema.ScoringInput) calcOutcome

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Registry      contract.RegistryClient // Used by ramp-up for npm packages
	Weights       schema.NetWeights       // Nil means schema.DefaultNetWeights
	License       *metric.LicenseChecker  // Nil means the default patterns
	MetricTimeout time.Duration           // 0 disables the per-metric deadline
	FailFast      bool                    // Abort the run on the first failed metric
	Logger        *zap.SugaredLogger
}

// Orchestrator runs every calculator concurrently and combines the scores.
type Orchestrator struct {
	rampUp        *metric.RampUpCalculator
	license       *metric.LicenseChecker
	weights       schema.NetWeights
	metricTimeout time.Duration
	failFast      bool
	logger        *zap.SugaredLogger
	now           func() time.Time
}

// NewOrchestrator wires the calculators from opts.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	checker := opts.License
	if checker == nil {
		var err error
		if checker, err = metric.NewLicenseChecker(nil); err != nil {
			return nil, err
		}
	}
	weights := opts.Weights
	if weights == nil {
		weights = schema.DefaultNetWeights()
	}
	return &Orchestrator{
		rampUp:        metric.NewRampUpCalculator(opts.Registry, logger),
		license:       checker,
		weights:       weights,
		metricTimeout: opts.MetricTimeout,
		failFast:      opts.FailFast,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// calculators maps every metric to its calculator.
func (o *Orchestrator) calculators() map[schema.MetricKind]calcFunc {
	return map[schema.MetricKind]calcFunc{
		schema.RampUpMetric: func(ctx context.Context, in *schema.ScoringInput) calcOutcome {
			return calcOutcome{score: o.rampUp.Score(ctx, in.URL, in.CheckoutPath, in.ReadmeText)}
		},
		schema.CorrectnessMetric: func(_ context.Context, in *schema.ScoringInput) calcOutcome {
			return calcOutcome{score: metric.CorrectnessFromIssues(in.Snapshot.Issues)}
		},
		schema.BusFactorMetric: func(_ context.Context, in *schema.ScoringInput) calcOutcome {
			score, err := metric.BusFactor(in.Snapshot.Commits)
			return calcOutcome{score: score, keyAuthors: metric.KeyAuthors(in.Snapshot.Commits), err: err}
		},
		schema.ResponsiveMetric: func(_ context.Context, in *schema.ScoringInput) calcOutcome {
			s := in.Snapshot
			b := metric.Maintainer(s.Contributors, s.Issues, s.PullRequests, s.Commits, o.now())
			return calcOutcome{score: b.Score, maintainer: &b}
		},
		schema.LicenseMetric: func(_ context.Context, in *schema.ScoringInput) calcOutcome {
			return calcOutcome{score: o.license.Score(o.licenseText(in))}
		},
		schema.PullRequestMetric: func(_ context.Context, in *schema.ScoringInput) calcOutcome {
			return calcOutcome{score: metric.PullRequestReview(in.Snapshot.PullRequests)}
		},
	}
}

// licenseText prefers the checkout files and falls back to the pre-resolved text.
func (o *Orchestrator) licenseText(in *schema.ScoringInput) string {
	text, err := metric.FindLicenseText(in.CheckoutPath)
	if err != nil {
		o.logger.Warnw("license files unreadable", "dir", in.CheckoutPath, "error", err)
	}
	if text == "" {
		return in.LicenseText
	}
	return text
}

// Run scores one package. Calculators run concurrently and each writes only
// its own result slot. A failed metric scores 0 in the net score unless the
// orchestrator is fail-fast, in which case the run is aborted.
func (o *Orchestrator) Run(ctx context.Context, in schema.ScoringInput) (*schema.Report, error) {
	if in.Snapshot == nil {
		return nil, fmt.Errorf("no activity snapshot for %s", in.URL)
	}

	start := o.now()
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &schema.Report{
		RunID:     runID,
		URL:       in.URL,
		RepoURL:   in.Snapshot.URL,
		State:     schema.InitializedState,
		StartedAt: start,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	report.State = schema.RunningState
	calcs := o.calculators()
	results := make([]schema.MetricResult, len(schema.AllMetrics))
	outcomes := make([]calcOutcome, len(schema.AllMetrics))

	var (
		wg        sync.WaitGroup
		abortOnce sync.Once
		abortErr  error
	)
	for i, kind := range schema.AllMetrics {
		fn := calcs[kind]
		wg.Go(func() {
			results[i], outcomes[i] = o.runMetric(runCtx, kind, fn, &in)
			if o.failFast && !results[i].OK() {
				abortOnce.Do(func() {
					abortErr = fmt.Errorf("%w: %s: %s", ErrMetricFailed, kind, results[i].Err)
					cancel()
				})
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		report.State = schema.FailedState
		return nil, fmt.Errorf("run %s for %s cancelled: %w", runID, in.URL, err)
	}
	if abortErr != nil {
		report.State = schema.FailedState
		o.logger.Warnw("run aborted", "run_id", runID, "url", in.URL, "error", abortErr)
		return nil, abortErr
	}

	aggStart := time.Now()
	report.Results = results
	for _, out := range outcomes {
		if out.maintainer != nil {
			report.Maintainer = *out.maintainer
		}
		if out.keyAuthors != nil {
			report.KeyAuthors = out.keyAuthors
		}
	}

	report.State = schema.AggregatedState
	report.NetScore = NetScore(results, o.weights)
	report.AggregateMs = schema.Millis(time.Since(aggStart))
	report.NetLatencyMs = schema.Millis(o.now().Sub(start))
	report.FinishedAt = o.now()
	report.State = schema.DoneState

	o.logger.Debugw("run finished",
		"run_id", runID,
		"url", in.URL,
		"net_score", report.NetScore,
		"failures", len(report.Failures()),
		"latency_ms", report.NetLatencyMs)
	return report, nil
}

// runMetric times one calculator and converts its outcome into a result.
// With a metric timeout the calculator is abandoned once its deadline passes.
func (o *Orchestrator) runMetric(ctx context.Context, kind schema.MetricKind, fn calcFunc, in *schema.ScoringInput) (schema.MetricResult, calcOutcome) {
	start := time.Now()
	if o.metricTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.metricTimeout)
		defer cancel()
	}

	done := make(chan calcOutcome, 1)
	go func() { done <- fn(ctx, in) }()

	var out calcOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = calcOutcome{err: ctx.Err()}
	}

	res := schema.MetricResult{Kind: kind, LatencyMs: schema.Millis(time.Since(start))}
	if out.err != nil {
		res.Err = out.err.Error()
		o.logger.Warnw("metric failed", "metric", kind, "url", in.URL, "error", out.err)
		return res, out
	}
	res.Score = schema.Clamp01(out.score)
	return res, out
}

// NetScore combines the results with weights and gates the sum by the
// license result. Failed metrics contribute 0.
func NetScore(results []schema.MetricResult, weights schema.NetWeights) float64 {
	license := 0.0
	sum := 0.0
	for _, res := range results {
		if !res.OK() {
			continue
		}
		if res.Kind == schema.LicenseMetric {
			license = res.Score
			continue
		}
		sum += weights[res.Kind] * res.Score
	}
	return schema.Clamp01(license * sum)
}
