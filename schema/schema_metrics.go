package schema

import (
	"strings"
	"time"
)

// MetricResult is the outcome of one calculator within a run.
type MetricResult struct {
	Kind      MetricKind `json:"kind" yaml:"kind"`
	Score     float64    `json:"score" yaml:"score"`
	LatencyMs float64    `json:"latency_ms" yaml:"latency_ms"`
	Err       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the calculator finished without error.
func (m MetricResult) OK() bool {
	return m.Err == ""
}

// WireScore returns the score, or NotComputed when the metric failed.
func (m MetricResult) WireScore() float64 {
	if !m.OK() {
		return NotComputed
	}
	return m.Score
}

// MaintainerBreakdown holds the sub-signals of maintainer responsiveness.
type MaintainerBreakdown struct {
	AvgResponseHours  float64 `json:"avg_response_hours" yaml:"avg_response_hours"`
	AvgClosureHours   float64 `json:"avg_closure_hours" yaml:"avg_closure_hours"`
	OpenIssues        int     `json:"open_issues" yaml:"open_issues"`
	ClosedIssues      int     `json:"closed_issues" yaml:"closed_issues"`
	ActiveMaintainers int     `json:"active_maintainers" yaml:"active_maintainers"`
	RecentAuthors     int     `json:"recent_authors" yaml:"recent_authors"` // Last 30 days, informational
	FastResponse      bool    `json:"fast_response" yaml:"fast_response"`
	FastClosure       bool    `json:"fast_closure" yaml:"fast_closure"`
	HealthyRatio      bool    `json:"healthy_ratio" yaml:"healthy_ratio"`
	EnoughMaintainers bool    `json:"enough_maintainers" yaml:"enough_maintainers"`
	Score             float64 `json:"score" yaml:"score"`
}

// Report is the full outcome of one scoring run.
type Report struct {
	RunID        string              `json:"run_id" yaml:"run_id"`
	URL          string              `json:"url" yaml:"url"`
	RepoURL      string              `json:"repo_url,omitempty" yaml:"repo_url,omitempty"`
	State        RunState            `json:"state" yaml:"state"`
	NetScore     float64             `json:"net_score" yaml:"net_score"`
	NetLatencyMs float64             `json:"net_latency_ms" yaml:"net_latency_ms"` // Whole run, calculators included
	AggregateMs  float64             `json:"aggregate_latency_ms" yaml:"aggregate_latency_ms"`
	Results      []MetricResult      `json:"results" yaml:"results"`
	KeyAuthors   []string            `json:"key_authors,omitempty" yaml:"key_authors,omitempty"`
	Maintainer   MaintainerBreakdown `json:"maintainer" yaml:"maintainer"`
	StartedAt    time.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time           `json:"finished_at" yaml:"finished_at"`
}

// Result returns the result for the given metric.
func (r *Report) Result(kind MetricKind) (MetricResult, bool) {
	for _, res := range r.Results {
		if res.Kind == kind {
			return res, true
		}
	}
	return MetricResult{}, false
}

// Failures returns the results that carry an error.
func (r *Report) Failures() []MetricResult {
	var failed []MetricResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Record converts the report into the fixed-key wire record.
func (r *Report) Record() NetScoreRecord {
	rec := NetScoreRecord{
		URL:             r.URL,
		NetScore:        r.NetScore,
		NetScoreLatency: r.NetLatencyMs,
		RampUp:          NotComputed,
		Correctness:     NotComputed,
		BusFactor:       NotComputed,
		Responsive:      NotComputed,
		License:         NotComputed,
	}
	for _, res := range r.Results {
		switch res.Kind {
		case RampUpMetric:
			rec.RampUp, rec.RampUpLatency = res.WireScore(), res.LatencyMs
		case CorrectnessMetric:
			rec.Correctness, rec.CorrectnessLatency = res.WireScore(), res.LatencyMs
		case BusFactorMetric:
			rec.BusFactor, rec.BusFactorLatency = res.WireScore(), res.LatencyMs
		case ResponsiveMetric:
			rec.Responsive, rec.ResponsiveLatency = res.WireScore(), res.LatencyMs
		case LicenseMetric:
			rec.License, rec.LicenseLatency = res.WireScore(), res.LatencyMs
		}
	}
	return rec
}

// NetScoreRecord is the wire format emitted per package, one JSON object per line.
// Key names are fixed.
type NetScoreRecord struct {
	URL                string  `json:"URL"`
	NetScore           float64 `json:"NetScore"`
	NetScoreLatency    float64 `json:"NetScore_Latency"`
	RampUp             float64 `json:"RampUp"`
	RampUpLatency      float64 `json:"RampUp_Latency"`
	Correctness        float64 `json:"Correctness"`
	CorrectnessLatency float64 `json:"Correctness_Latency"`
	BusFactor          float64 `json:"BusFactor"`
	BusFactorLatency   float64 `json:"BusFactor_Latency"`
	Responsive         float64 `json:"ResponsiveMaintainer"`
	ResponsiveLatency  float64 `json:"ResponsiveMaintainer_Latency"`
	License            float64 `json:"License"`
	LicenseLatency     float64 `json:"License_Latency"`
}

// NetWeights maps each weighted sub-metric to its share of the net score.
// License is not in the map: it gates the sum instead of contributing to it.
type NetWeights map[MetricKind]float64

// DefaultNetWeights returns the stock weights, which sum to 1.
func DefaultNetWeights() NetWeights {
	return NetWeights{
		ResponsiveMetric:  0.4,
		CorrectnessMetric: 0.3,
		BusFactorMetric:   0.1,
		RampUpMetric:      0.1,
		PullRequestMetric: 0.1,
	}
}

// MetricDefinition describes a metric for the metrics command and API.
type MetricDefinition struct {
	Kind        MetricKind `json:"kind" yaml:"kind"`
	Name        string     `json:"name" yaml:"name"`
	Formula     string     `json:"formula" yaml:"formula"`
	Description string     `json:"description" yaml:"description"`
}

// MetricDefinitions documents how every score is computed.
var MetricDefinitions = []MetricDefinition{
	{
		Kind:        RampUpMetric,
		Name:        "Ramp-Up",
		Formula:     "clamp(FleschReadingEase(README) / 100)",
		Description: "How approachable the README is. npm packages without a linked repository use maintainers / 10.",
	},
	{
		Kind:        CorrectnessMetric,
		Name:        "Correctness",
		Formula:     "closedIssues / totalIssues (1 when there are no issues)",
		Description: "Share of reported issues that have been resolved.",
	},
	{
		Kind:        BusFactorMetric,
		Name:        "Bus Factor",
		Formula:     "1 - commits(top ceil(authors/100) authors) / totalCommits",
		Description: "How much of the history depends on the most prolific authors.",
	},
	{
		Kind:        ResponsiveMetric,
		Name:        "Responsive Maintainer",
		Formula:     "0.4*[response<96h] + 0.3*[closure<336h] + 0.2*[open/closed<1] + 0.1*[maintainers>3]",
		Description: "Whether maintainers answer, close issues and keep the backlog in check.",
	},
	{
		Kind:        LicenseMetric,
		Name:        "License",
		Formula:     "1 if the license text matches an allowed pattern, else 0",
		Description: "Compatibility gate: MIT and LGPL v2.0/v2.1/v3.0 are accepted.",
	},
	{
		Kind:        PullRequestMetric,
		Name:        "PR Review",
		Formula:     "reviewedPRs / totalPRs (0 when there are no PRs)",
		Description: "Share of pull requests that received at least one review.",
	},
	{
		Kind:        NetScoreMetric,
		Name:        "Net Score",
		Formula:     "license * (0.4*maintainer + 0.3*correctness + 0.1*busFactor + 0.1*rampUp + 0.1*prReview)",
		Description: "Weighted composite, zeroed by an incompatible license.",
	},
}

// MetricName returns the display name of a metric kind.
func MetricName(kind MetricKind) string {
	for _, def := range MetricDefinitions {
		if def.Kind == kind {
			return def.Name
		}
	}
	return strings.ReplaceAll(string(kind), "_", " ")
}
