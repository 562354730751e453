// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/trustscore/schema"
)

// GitClient defines the git operations needed to score a repository checkout.
// This allows the rating logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command inside repoPath and returns its output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// Clone creates a working copy of repoURL at dest with full history and
	// lazily fetched blobs.
	Clone(ctx context.Context, repoURL string, dest string) error

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetCommitLog returns the raw author log of the repository, earliest commit first.
	GetCommitLog(ctx context.Context, repoPath string) ([]byte, error)
}

// ActivitySource fetches the issue, pull request and contributor activity of a hosted repository.
type ActivitySource interface {
	FetchSnapshot(ctx context.Context, owner, repo string) (*schema.Snapshot, error)
}

// RegistryClient fetches package metadata from a package registry.
type RegistryClient interface {
	FetchPackage(ctx context.Context, name string) (*schema.PackageMetadata, error)
}

// PackageRater scores a single package URL.
type PackageRater interface {
	Rate(ctx context.Context, rawURL string) (*schema.Report, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSnapshotStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking scoring runs and their metric results.
type HistoryStore interface {
	// BeginRun records the start of a scoring run
	BeginRun(runID string, url string, startTime time.Time, configParams map[string]any) error

	// EndRun stores the final state and net score of a run
	EndRun(runID string, endTime time.Time, report *schema.Report) error

	// RecordMetric stores the outcome of one calculator
	RecordMetric(runID string, result schema.MetricResult) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllMetrics returns every recorded metric result
	GetAllMetrics() ([]schema.MetricRecord, error)

	// Close closes the underlying connection
	Close() error
}
