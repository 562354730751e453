// Package schema has the models and constants shared by all parts of trustscore.
package schema

import "time"

// Commit is a single commit as seen by the scoring pipeline.
type Commit struct {
	Author string    `json:"author" yaml:"author"`                   // Author display name
	Login  string    `json:"login,omitempty" yaml:"login,omitempty"` // Hosting login, when known
	Email  string    `json:"email,omitempty" yaml:"email,omitempty"` // Author email, when known
	Time   time.Time `json:"time" yaml:"time"`                       // Author timestamp
}

// Identity returns the key used to group commits by author.
// Logins win over display names since they are stable across machines.
func (c Commit) Identity() string {
	if c.Login != "" {
		return c.Login
	}
	return c.Author
}

// Issue is a tracked issue. ClosedAt is zero while the issue is open.
type Issue struct {
	Number    int        `json:"number" yaml:"number"`
	State     IssueState `json:"state" yaml:"state"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	ClosedAt  time.Time  `json:"closed_at,omitzero" yaml:"closed_at,omitempty"`
}

// Closed reports whether the issue is closed.
func (i Issue) Closed() bool {
	return i.State == ClosedState
}

// PullRequest is a pull request with its review flag.
type PullRequest struct {
	Number    int       `json:"number" yaml:"number"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	ClosedAt  time.Time `json:"closed_at,omitzero" yaml:"closed_at,omitempty"`
	Reviewed  bool      `json:"reviewed" yaml:"reviewed"`
}

// Contributor is one entry of the repository contributor listing.
type Contributor struct {
	Login         string `json:"login" yaml:"login"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Contributions int    `json:"contributions" yaml:"contributions"`
}

// Snapshot is the repository activity consumed by the calculators.
// Commits are ordered chronologically, earliest first. Nothing in the
// pipeline mutates a snapshot after it is built.
type Snapshot struct {
	URL          string        `json:"url"`
	Commits      []Commit      `json:"commits"`
	Issues       []Issue       `json:"issues"`
	PullRequests []PullRequest `json:"pull_requests"`
	Contributors []Contributor `json:"contributors"`
	LicenseText  string        `json:"license_text,omitempty"` // License name and file body from the API
	Readme       string        `json:"readme,omitempty"`       // README of the default branch
	FetchedAt    time.Time     `json:"fetched_at"`
}

// PackageMetadata is the subset of npm registry metadata used for scoring.
type PackageMetadata struct {
	Name          string   `json:"name"`
	License       string   `json:"license,omitempty"`
	Maintainers   []string `json:"maintainers,omitempty"`
	RepositoryURL string   `json:"repository_url,omitempty"`
	Readme        string   `json:"readme,omitempty"`
}

// ScoringInput is everything the orchestrator needs for one run.
type ScoringInput struct {
	RunID        string    // Generated when empty
	URL          string    // URL as given by the caller
	Snapshot     *Snapshot // Activity of the resolved repository (never nil)
	CheckoutPath string    // Local working copy, empty when unavailable
	LicenseText  string    // Pre-resolved license text, used when the checkout has none
	ReadmeText   string    // Pre-resolved README, used when the checkout has none
}
