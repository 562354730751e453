// Package core has core logic for resolving, scoring and reporting packages.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/internal/outwriter"
	"github.com/huangsam/trustscore/internal/source"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
)

// ErrRunsFailed is returned when at least one package could not be scored.
var ErrRunsFailed = errors.New("some packages could not be scored")

// BuildRater wires the production collaborators from cfg: the GitHub API,
// the npm registry and the local git executable.
func BuildRater(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *zap.SugaredLogger) (*Rater, error) {
	gh, err := source.NewGitHubSource(ctx, source.GitHubOptions{
		Token:    cfg.GitHubToken,
		BaseURL:  cfg.GitHubAPIURL,
		MaxPages: cfg.MaxPages,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return NewRater(cfg, RaterDeps{
		Git:      contract.NewLocalGitClient(),
		Source:   gh,
		Registry: source.NewNpmRegistry(cfg.RegistryURL, logger),
		Manager:  mgr,
		Logger:   logger,
	})
}

// ExecuteRate scores every URL in cfg and prints the reports in input order.
// Packages that fail are logged and left out of the output.
func ExecuteRate(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *zap.SugaredLogger) error {
	start := time.Now()
	rater, err := BuildRater(ctx, cfg, mgr, logger)
	if err != nil {
		return err
	}
	return rateAndPrint(ctx, rater, cfg, start)
}

func rateAndPrint(ctx context.Context, rater *Rater, cfg *contract.Config, start time.Time) error {
	results := rater.RateAll(ctx, cfg.URLs)

	reports, failed := SplitResults(results)
	if err := outwriter.PrintReports(reports, cfg, time.Since(start)); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRunsFailed, failed, len(results))
	}
	return nil
}

// SplitResults returns the successful reports in order and the number of failures.
func SplitResults(results []RateResult) ([]*schema.Report, int) {
	reports := make([]*schema.Report, 0, len(results))
	failed := 0
	for _, res := range results {
		if res.Err != nil || res.Report == nil {
			failed++
			continue
		}
		reports = append(reports, res.Report)
	}
	return reports, failed
}

// ExecuteMetrics prints the metric definitions with the active weights.
func ExecuteMetrics(_ context.Context, cfg *contract.Config) error {
	return outwriter.PrintMetricsDefinitions(cfg.Weights, cfg)
}
