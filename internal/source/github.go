// Package source adapts remote services into the inputs of the scoring pipeline.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// perPage is the page size requested from every GitHub listing.
const perPage = 100

// GitHubSource fetches repository activity through the GitHub REST API.
type GitHubSource struct {
	client   *github.Client
	maxPages int
	logger   *zap.SugaredLogger
}

var _ contract.ActivitySource = &GitHubSource{} // Compile-time check

// GitHubOptions configures a GitHubSource.
type GitHubOptions struct {
	Token    string // Empty means unauthenticated requests
	BaseURL  string // Empty means api.github.com
	MaxPages int    // Page cap per listing, <= 0 means one page
	Logger   *zap.SugaredLogger
}

// NewGitHubSource builds an API client authenticated with a static token.
func NewGitHubSource(ctx context.Context, opts GitHubOptions) (*GitHubSource, error) {
	httpClient := http.DefaultClient
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)

	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = base
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &GitHubSource{client: client, maxPages: max(opts.MaxPages, 1), logger: logger}, nil
}

// FetchSnapshot collects issues, pull requests, contributors and commits.
// Commits are returned earliest first.
func (s *GitHubSource) FetchSnapshot(ctx context.Context, owner, repo string) (*schema.Snapshot, error) {
	start := time.Now()

	issues, err := s.fetchIssues(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues of %s/%s: %w", owner, repo, err)
	}
	prs, err := s.fetchPullRequests(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests of %s/%s: %w", owner, repo, err)
	}
	contributors, err := s.fetchContributors(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors of %s/%s: %w", owner, repo, err)
	}
	commits, err := s.fetchCommits(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits of %s/%s: %w", owner, repo, err)
	}
	licenseText := s.fetchLicense(ctx, owner, repo)
	readme := s.fetchReadme(ctx, owner, repo)

	s.logger.Debugw("fetched repository activity",
		"repo", owner+"/"+repo,
		"issues", len(issues),
		"pull_requests", len(prs),
		"contributors", len(contributors),
		"commits", len(commits),
		"license", licenseText != "",
		"readme", readme != "",
		"elapsed", time.Since(start))

	return &schema.Snapshot{
		URL:          contract.GitHubRepoURL(owner, repo),
		Commits:      commits,
		Issues:       issues,
		PullRequests: prs,
		Contributors: contributors,
		LicenseText:  licenseText,
		Readme:       readme,
		FetchedAt:    time.Now(),
	}, nil
}

// paginate calls fetch page by page until the listing ends or maxPages is reached.
func paginate[T any](ctx context.Context, maxPages int, fetch func(ctx context.Context, opts github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	opts := github.ListOptions{PerPage: perPage, Page: 1}
	for range maxPages {
		items, resp, err := fetch(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (s *GitHubSource) fetchIssues(ctx context.Context, owner, repo string) ([]schema.Issue, error) {
	raw, err := paginate(ctx, s.maxPages, func(ctx context.Context, lo github.ListOptions) ([]*github.Issue, *github.Response, error) {
		return s.client.Issues.ListByRepo(ctx, owner, repo, &github.IssueListByRepoOptions{State: "all", ListOptions: lo})
	})
	if err != nil {
		return nil, err
	}

	issues := make([]schema.Issue, 0, len(raw))
	for _, is := range raw {
		// The issues endpoint also returns pull requests
		if is.IsPullRequest() {
			continue
		}
		issue := schema.Issue{
			Number:    is.GetNumber(),
			State:     schema.OpenState,
			CreatedAt: is.GetCreatedAt().Time,
		}
		if is.GetState() == string(schema.ClosedState) {
			issue.State = schema.ClosedState
			issue.ClosedAt = is.GetClosedAt().Time
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func (s *GitHubSource) fetchPullRequests(ctx context.Context, owner, repo string) ([]schema.PullRequest, error) {
	raw, err := paginate(ctx, s.maxPages, func(ctx context.Context, lo github.ListOptions) ([]*github.PullRequest, *github.Response, error) {
		return s.client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{State: "all", ListOptions: lo})
	})
	if err != nil {
		return nil, err
	}

	prs := make([]schema.PullRequest, 0, len(raw))
	for _, pr := range raw {
		reviews, _, err := s.client.PullRequests.ListReviews(ctx, owner, repo, pr.GetNumber(), &github.ListOptions{PerPage: 1})
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews of #%d: %w", pr.GetNumber(), err)
		}
		prs = append(prs, schema.PullRequest{
			Number:    pr.GetNumber(),
			CreatedAt: pr.GetCreatedAt().Time,
			ClosedAt:  pr.GetClosedAt().Time,
			Reviewed:  len(reviews) > 0,
		})
	}
	return prs, nil
}

func (s *GitHubSource) fetchContributors(ctx context.Context, owner, repo string) ([]schema.Contributor, error) {
	raw, err := paginate(ctx, s.maxPages, func(ctx context.Context, lo github.ListOptions) ([]*github.Contributor, *github.Response, error) {
		return s.client.Repositories.ListContributors(ctx, owner, repo, &github.ListContributorsOptions{ListOptions: lo})
	})
	if err != nil {
		return nil, err
	}

	contributors := make([]schema.Contributor, 0, len(raw))
	for _, c := range raw {
		contributors = append(contributors, schema.Contributor{
			Login:         c.GetLogin(),
			Name:          c.GetName(),
			Contributions: c.GetContributions(),
		})
	}
	return contributors, nil
}

func (s *GitHubSource) fetchCommits(ctx context.Context, owner, repo string) ([]schema.Commit, error) {
	raw, err := paginate(ctx, s.maxPages, func(ctx context.Context, lo github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
		return s.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{ListOptions: lo})
	})
	if err != nil {
		return nil, err
	}

	commits := make([]schema.Commit, 0, len(raw))
	for _, rc := range raw {
		author := rc.GetCommit().GetAuthor()
		commits = append(commits, schema.Commit{
			Author: author.GetName(),
			Login:  rc.GetAuthor().GetLogin(),
			Email:  author.GetEmail(),
			Time:   author.GetDate().Time,
		})
	}

	// The API lists newest first
	slices.Reverse(commits)
	return commits, nil
}

// fetchLicense returns the detected license name followed by the license file
// body. A repository without a license yields empty text.
func (s *GitHubSource) fetchLicense(ctx context.Context, owner, repo string) string {
	lic, resp, err := s.client.Repositories.License(ctx, owner, repo)
	if err != nil {
		if !isNotFound(resp) {
			s.logger.Warnw("cannot fetch license", "repo", owner+"/"+repo, "error", err)
		}
		return ""
	}
	body, err := (&github.RepositoryContent{Content: lic.Content, Encoding: lic.Encoding}).GetContent()
	if err != nil {
		s.logger.Warnw("cannot decode license", "repo", owner+"/"+repo, "error", err)
	}
	return strings.TrimSpace(lic.GetLicense().GetName() + "\n" + body)
}

// fetchReadme returns the decoded README of the default branch, or empty text.
func (s *GitHubSource) fetchReadme(ctx context.Context, owner, repo string) string {
	content, resp, err := s.client.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		if !isNotFound(resp) {
			s.logger.Warnw("cannot fetch README", "repo", owner+"/"+repo, "error", err)
		}
		return ""
	}
	text, err := content.GetContent()
	if err != nil {
		s.logger.Warnw("cannot decode README", "repo", owner+"/"+repo, "error", err)
		return ""
	}
	return text
}

func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
