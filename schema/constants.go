package schema

// Custom string types for type safety.
type (
	// MetricKind identifies one sub-metric of the net score.
	MetricKind string

	// OutputMode represents the format of the output.
	OutputMode string

	// IssueState is the lifecycle state of an issue.
	IssueState string

	// URLKind is the classification of a package URL.
	URLKind string

	// RunState is the lifecycle state of a scoring run.
	RunState string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string
)

// Sub-metrics computed for every package.
const (
	RampUpMetric      MetricKind = "ramp_up"
	CorrectnessMetric MetricKind = "correctness"
	BusFactorMetric   MetricKind = "bus_factor"
	ResponsiveMetric  MetricKind = "responsive_maintainer"
	LicenseMetric     MetricKind = "license"
	PullRequestMetric MetricKind = "pr_review"
	NetScoreMetric    MetricKind = "net_score"
)

// NotComputed is the wire value for a metric that failed.
const NotComputed = -1.0

// AllMetrics lists the sub-metrics in report order.
var AllMetrics = []MetricKind{
	RampUpMetric,
	CorrectnessMetric,
	BusFactorMetric,
	ResponsiveMetric,
	LicenseMetric,
	PullRequestMetric,
}

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json" // NDJSON, one record per package
	CSVOut  OutputMode = "csv"
	YAMLOut OutputMode = "yaml"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
	YAMLOut: {},
}

// Issue states.
const (
	OpenState   IssueState = "open"
	ClosedState IssueState = "closed"
)

// URL kinds.
const (
	GitHubURL      URLKind = "github"
	NpmURL         URLKind = "npm"
	UnsupportedURL URLKind = "unsupported"
)

// Run states, in the order a run moves through them.
const (
	InitializedState RunState = "initialized"
	RunningState     RunState = "running"
	AggregatedState  RunState = "aggregated"
	DoneState        RunState = "done"
	FailedState      RunState = "failed"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
