package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommitLogFormat is the pretty format used by GetCommitLog: author|email|date.
const CommitLogFormat = "--pretty=format:%an|%ae|%aI"

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	return runGit(ctx, repoPath, fullArgs...)
}

// Clone implements the GitClient interface.
func (c *LocalGitClient) Clone(ctx context.Context, repoURL string, dest string) error {
	_, err := runGit(ctx, dest, "clone", "--quiet", "--filter=blob:none", repoURL, dest)
	return err
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetCommitLog implements the GitClient interface.
func (c *LocalGitClient) GetCommitLog(ctx context.Context, repoPath string) ([]byte, error) {
	return c.Run(ctx, repoPath, "log", "--reverse", "--no-merges", CommitLogFormat)
}

func runGit(ctx context.Context, where string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s", where, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}
