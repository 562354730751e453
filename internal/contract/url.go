package contract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/huangsam/trustscore/schema"
)

// ErrUnsupportedURL is returned for URLs that are neither GitHub nor npm.
var ErrUnsupportedURL = errors.New("unsupported package URL")

// ClassifyURL tells GitHub and npm URLs apart by substring match.
func ClassifyURL(raw string) schema.URLKind {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "github.com"):
		return schema.GitHubURL
	case strings.Contains(lower, "npmjs.com"), strings.Contains(lower, "npmjs.org"):
		return schema.NpmURL
	default:
		return schema.UnsupportedURL
	}
}

// GitHubRepoURL builds the canonical web URL of a repository.
func GitHubRepoURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// ParseGitHubRepo extracts owner and repository name from any GitHub URL form,
// including clone URLs like git@github.com:owner/repo.git.
func ParseGitHubRepo(raw string) (owner, repo string, err error) {
	normalized := NormalizeRepositoryURL(raw)
	u, err := url.Parse(normalized)
	if err != nil {
		return "", "", fmt.Errorf("invalid GitHub URL %q: %w", raw, err)
	}
	if !strings.EqualFold(u.Hostname(), "github.com") && !strings.EqualFold(u.Hostname(), "www.github.com") {
		return "", "", fmt.Errorf("%w: %q is not a GitHub URL", ErrUnsupportedURL, raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || strings.TrimSuffix(parts[1], ".git") == "" {
		return "", "", fmt.Errorf("GitHub URL %q must name an owner and a repository", raw)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// NpmPackageName extracts the package name from an npm package page or registry URL.
// Scoped names like @scope/pkg are supported.
func NpmPackageName(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid npm URL %q: %w", raw, err)
	}
	path, err := url.PathUnescape(u.EscapedPath())
	if err != nil {
		return "", fmt.Errorf("invalid npm URL %q: %w", raw, err)
	}
	path = strings.Trim(path, "/")
	path = strings.TrimPrefix(path, "package/")

	parts := strings.Split(path, "/")
	var name string
	switch {
	case len(parts) >= 2 && strings.HasPrefix(parts[0], "@"):
		name = parts[0] + "/" + parts[1]
	case len(parts) >= 1:
		name = parts[0]
	}
	if name == "" || name == "package" {
		return "", fmt.Errorf("npm URL %q does not name a package", raw)
	}
	return name, nil
}

// NormalizeRepositoryURL turns the repository notations found in package
// metadata into https URLs. Unknown notations are returned trimmed.
func NormalizeRepositoryURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	switch {
	case strings.HasPrefix(s, "github:"):
		s = "https://github.com/" + strings.TrimPrefix(s, "github:")
	case strings.HasPrefix(s, "git@github.com:"):
		s = "https://github.com/" + strings.TrimPrefix(s, "git@github.com:")
	case strings.HasPrefix(s, "git://"):
		s = "https://" + strings.TrimPrefix(s, "git://")
	case strings.HasPrefix(s, "ssh://git@"):
		s = "https://" + strings.TrimPrefix(s, "ssh://git@")
	case strings.HasPrefix(s, "github.com/"), strings.HasPrefix(s, "www.github.com/"):
		s = "https://" + s
	case !strings.Contains(s, ":") && strings.Count(s, "/") == 1:
		s = "https://github.com/" + s // owner/repo shorthand
	}
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}
