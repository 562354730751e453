package metric

import (
	"strings"
	"time"

	"github.com/huangsam/trustscore/schema"
)

// Maintainer responsiveness weights and thresholds.
const (
	responseWeight    = 0.4
	closureWeight     = 0.3
	ratioWeight       = 0.2
	maintainersWeight = 0.1

	responseLimit  = 96 * time.Hour  // 4 days
	closureLimit   = 336 * time.Hour // 2 weeks
	minMaintainers = 3               // strictly more are needed
	recentWindow   = 30 * 24 * time.Hour
)

// Maintainer scores maintainer responsiveness from four binary signals.
// The active maintainer count covers the whole history; authors within the
// last 30 days before now are only reported.
func Maintainer(contributors []schema.Contributor, issues []schema.Issue, prs []schema.PullRequest, commits []schema.Commit, now time.Time) schema.MaintainerBreakdown {
	var b schema.MaintainerBreakdown

	// Response time over issues and pull requests alike
	var spans []time.Duration
	for _, i := range issues {
		if d, ok := resolvedIn(i.CreatedAt, i.ClosedAt); ok {
			spans = append(spans, d)
		}
	}
	issueSpans := len(spans)
	for _, pr := range prs {
		if d, ok := resolvedIn(pr.CreatedAt, pr.ClosedAt); ok {
			spans = append(spans, d)
		}
	}
	b.AvgResponseHours = averageHours(spans)
	b.AvgClosureHours = averageHours(spans[:issueSpans])
	b.FastResponse = b.AvgResponseHours < responseLimit.Hours()
	b.FastClosure = b.AvgClosureHours < closureLimit.Hours()

	for _, i := range issues {
		switch i.State {
		case schema.ClosedState:
			b.ClosedIssues++
		case schema.OpenState:
			b.OpenIssues++
		}
	}
	switch {
	case b.OpenIssues == 0:
		b.HealthyRatio = true
	case b.ClosedIssues == 0:
		b.HealthyRatio = false
	default:
		b.HealthyRatio = float64(b.OpenIssues)/float64(b.ClosedIssues) < 1
	}

	b.ActiveMaintainers = countMaintainers(contributors, commits)
	b.RecentAuthors = countRecentAuthors(commits, now.Add(-recentWindow))
	b.EnoughMaintainers = b.ActiveMaintainers > minMaintainers

	b.Score = schema.Clamp01(
		responseWeight*indicator(b.FastResponse) +
			closureWeight*indicator(b.FastClosure) +
			ratioWeight*indicator(b.HealthyRatio) +
			maintainersWeight*indicator(b.EnoughMaintainers),
	)
	return b
}

// resolvedIn returns how long an item stayed open, when both ends are known.
func resolvedIn(created, closed time.Time) (time.Duration, bool) {
	if created.IsZero() || closed.IsZero() {
		return 0, false
	}
	return closed.Sub(created), true
}

func averageHours(spans []time.Duration) float64 {
	if len(spans) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range spans {
		total += d
	}
	return total.Hours() / float64(len(spans))
}

// countMaintainers counts distinct contributors. Commit authors are counted
// only when the contributor list is empty, since logins and commit names are
// different identities for the same person.
func countMaintainers(contributors []schema.Contributor, commits []schema.Commit) int {
	ids := make(map[string]struct{})
	for _, c := range contributors {
		id := c.Login
		if id == "" {
			id = c.Name
		}
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			ids[id] = struct{}{}
		}
	}
	if len(contributors) > 0 {
		return len(ids)
	}
	for _, c := range commits {
		if id := strings.ToLower(strings.TrimSpace(c.Identity())); id != "" {
			ids[id] = struct{}{}
		}
	}
	return len(ids)
}

func countRecentAuthors(commits []schema.Commit, since time.Time) int {
	ids := make(map[string]struct{})
	for _, c := range commits {
		if c.Time.After(since) {
			ids[strings.ToLower(c.Identity())] = struct{}{}
		}
	}
	return len(ids)
}

func indicator(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
