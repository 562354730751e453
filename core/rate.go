package core

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/trustscore/core/metric"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/internal/source"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
)

// RaterDeps are the collaborators a Rater talks to.
type RaterDeps struct {
	Git      contract.GitClient
	Source   contract.ActivitySource
	Registry contract.RegistryClient
	Manager  contract.CacheManager // Optional snapshot cache and run history
	Logger   *zap.SugaredLogger
}

// Rater turns a package URL into a scored report.
type Rater struct {
	cfg          *contract.Config
	git          contract.GitClient
	source       contract.ActivitySource
	registry     contract.RegistryClient
	mgr          contract.CacheManager
	orchestrator *Orchestrator
	logger       *zap.SugaredLogger
}

var _ contract.PackageRater = &Rater{} // Compile-time check

// RateResult is the outcome of rating one URL.
type RateResult struct {
	URL    string
	Report *schema.Report
	Err    error
}

// NewRater validates the scoring settings in cfg and wires the orchestrator.
func NewRater(cfg *contract.Config, deps RaterDeps) (*Rater, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("an activity source is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	checker, err := metric.NewLicenseChecker(cfg.LicensePatterns)
	if err != nil {
		return nil, err
	}
	orch, err := NewOrchestrator(OrchestratorOptions{
		Registry:      deps.Registry,
		Weights:       cfg.Weights,
		License:       checker,
		MetricTimeout: cfg.MetricTimeout,
		FailFast:      cfg.FailFast,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &Rater{
		cfg:          cfg,
		git:          deps.Git,
		source:       deps.Source,
		registry:     deps.Registry,
		mgr:          deps.Manager,
		orchestrator: orch,
		logger:       logger,
	}, nil
}

// target is a URL resolved to the repository that backs it.
type target struct {
	owner, repo string
	meta        *schema.PackageMetadata // Set for npm packages
}

// resolve classifies rawURL and finds its GitHub repository. An npm package
// without a GitHub link resolves to a target with no repository.
func (r *Rater) resolve(ctx context.Context, rawURL string) (target, error) {
	switch contract.ClassifyURL(rawURL) {
	case schema.GitHubURL:
		owner, repo, err := contract.ParseGitHubRepo(rawURL)
		return target{owner: owner, repo: repo}, err

	case schema.NpmURL:
		if r.registry == nil {
			return target{}, fmt.Errorf("no registry client configured for %s", rawURL)
		}
		name, err := contract.NpmPackageName(rawURL)
		if err != nil {
			return target{}, err
		}
		meta, err := r.registry.FetchPackage(ctx, name)
		if err != nil {
			return target{}, fmt.Errorf("failed to fetch npm metadata for %s: %w", name, err)
		}
		t := target{meta: meta}
		if contract.ClassifyURL(meta.RepositoryURL) == schema.GitHubURL {
			if t.owner, t.repo, err = contract.ParseGitHubRepo(meta.RepositoryURL); err != nil {
				r.logger.Warnw("unusable repository link", "package", name, "repository", meta.RepositoryURL, "error", err)
			}
		}
		return t, nil

	default:
		return target{}, fmt.Errorf("%w: %s", contract.ErrUnsupportedURL, rawURL)
	}
}

// Rate scores one package URL. The run is recorded in the history store when
// one is configured, whether it succeeds or not.
func (r *Rater) Rate(ctx context.Context, rawURL string) (*schema.Report, error) {
	runID := uuid.NewString()
	ctx = withRunID(ctx, runID)
	started := time.Now()

	history := r.historyStore()
	if history != nil {
		if err := history.BeginRun(runID, rawURL, started, r.cfg.ConfigParams()); err != nil {
			r.logger.Warnw("run tracking initialization failed", "run_id", runID, "error", err)
			history = nil
		}
	}

	report, err := r.rate(ctx, runID, rawURL)

	if history != nil {
		if report != nil {
			for _, res := range report.Results {
				if herr := history.RecordMetric(runID, res); herr != nil {
					r.logger.Warnw("failed to record metric", "run_id", runID, "metric", res.Kind, "error", herr)
				}
			}
		}
		if herr := history.EndRun(runID, time.Now(), report); herr != nil {
			r.logger.Warnw("failed to finalize run tracking", "run_id", runID, "error", herr)
		}
	}
	return report, err
}

func (r *Rater) rate(ctx context.Context, runID, rawURL string) (*schema.Report, error) {
	t, err := r.resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	in := schema.ScoringInput{RunID: runID, URL: rawURL}
	if t.meta != nil {
		in.LicenseText = t.meta.License
		in.ReadmeText = t.meta.Readme
	}

	if t.owner == "" {
		r.logger.Warnw("package has no GitHub repository, scoring registry data only", "url", rawURL)
		in.Snapshot = &schema.Snapshot{URL: rawURL, FetchedAt: time.Now()}
		return r.orchestrator.Run(ctx, in)
	}

	checkout, cleanup := r.checkout(ctx, t.owner, t.repo)
	defer cleanup()
	in.CheckoutPath = checkout

	headHash := ""
	if checkout != "" {
		if headHash, err = r.git.GetRepoHash(ctx, checkout); err != nil {
			r.logger.Warnw("cannot read checkout HEAD", "dir", checkout, "error", err)
		}
	}

	snap, err := r.cachedSnapshot(ctx, t.owner, t.repo, headHash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity for %s/%s: %w", t.owner, t.repo, err)
	}
	in.Snapshot = r.withLocalHistory(ctx, snap, checkout)
	// Repository files from the API take precedence over registry metadata
	if snap.LicenseText != "" {
		in.LicenseText = snap.LicenseText
	}
	if snap.Readme != "" {
		in.ReadmeText = snap.Readme
	}

	return r.orchestrator.Run(ctx, in)
}

// checkout clones owner/repo into a temporary directory when cloning is
// enabled. The returned cleanup removes the directory and is always safe to call.
func (r *Rater) checkout(ctx context.Context, owner, repo string) (string, func()) {
	noop := func() {}
	if !r.cfg.CloneRepos || r.git == nil {
		return "", noop
	}

	dir, err := os.MkdirTemp(r.cfg.CheckoutDir, "trustscore-*")
	if err != nil {
		r.logger.Warnw("cannot create checkout directory", "error", err)
		return "", noop
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	if err := r.git.Clone(ctx, contract.GitHubRepoURL(owner, repo)+".git", dir); err != nil {
		r.logger.Warnw("clone failed, scoring without a checkout", "repo", owner+"/"+repo, "error", err)
		cleanup()
		return "", noop
	}
	return dir, cleanup
}

// withLocalHistory replaces the API commits with the full local history when a
// checkout is available. The cached snapshot itself is never modified.
func (r *Rater) withLocalHistory(ctx context.Context, snap *schema.Snapshot, checkout string) *schema.Snapshot {
	if checkout == "" {
		return snap
	}
	out, err := r.git.GetCommitLog(ctx, checkout)
	if err != nil {
		r.logger.Warnw("cannot read commit log, using API commits", "dir", checkout, "error", err)
		return snap
	}
	commits, skipped := source.ParseCommitLog(out)
	if skipped > 0 {
		r.logger.Debugw("skipped malformed commit log lines", "dir", checkout, "count", skipped)
	}
	if len(commits) == 0 {
		return snap
	}

	merged := *snap
	merged.Commits = source.MergeLogins(commits, snap.Commits)
	return &merged
}

func (r *Rater) historyStore() contract.HistoryStore {
	if r.mgr == nil {
		return nil
	}
	return r.mgr.GetHistoryStore()
}

// RateAll rates urls with a pool of cfg.Workers goroutines. Results keep the
// input order.
func (r *Rater) RateAll(ctx context.Context, urls []string) []RateResult {
	results := make([]RateResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	indexCh := make(chan int, len(urls))
	var wg sync.WaitGroup

	// Start worker pool
	for range min(max(r.cfg.Workers, 1), len(urls)) {
		wg.Go(func() {
			for i := range indexCh {
				report, err := r.Rate(ctx, urls[i])
				if err != nil {
					r.logger.Errorw("rating failed", "url", urls[i], "error", err)
				}
				// Each worker writes a unique index
				results[i] = RateResult{URL: urls[i], Report: report, Err: err}
			}
		})
	}

	for i := range urls {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	return results
}
