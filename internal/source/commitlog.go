package source

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/trustscore/schema"
)

// ParseCommitLog parses git log output written with contract.CommitLogFormat.
// Lines keep their order, so a log produced with --reverse is earliest first.
// Malformed lines are skipped and counted in the returned number.
func ParseCommitLog(out []byte) ([]schema.Commit, int) {
	var commits []schema.Commit
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		commit, err := parseCommitLine(line)
		if err != nil {
			skipped++
			continue
		}
		commits = append(commits, commit)
	}
	return commits, skipped
}

// parseCommitLine splits from the right, since author names may contain '|'.
func parseCommitLine(line string) (schema.Commit, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		return schema.Commit{}, fmt.Errorf("expected author|email|date, got %q", line)
	}
	n := len(parts)
	when, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[n-1]))
	if err != nil {
		return schema.Commit{}, fmt.Errorf("bad commit date in %q: %w", line, err)
	}
	return schema.Commit{
		Author: strings.TrimSpace(strings.Join(parts[:n-2], "|")),
		Email:  strings.TrimSpace(parts[n-2]),
		Time:   when,
	}, nil
}

// MergeLogins copies hosting logins onto local commits whose email matches
// a commit from the API, so both sources group authors the same way.
func MergeLogins(local, remote []schema.Commit) []schema.Commit {
	logins := make(map[string]string)
	for _, c := range remote {
		if c.Login != "" && c.Email != "" {
			logins[strings.ToLower(c.Email)] = c.Login
		}
	}
	if len(logins) == 0 {
		return local
	}

	merged := make([]schema.Commit, len(local))
	for i, c := range local {
		if c.Login == "" {
			c.Login = logins[strings.ToLower(c.Email)]
		}
		merged[i] = c
	}
	return merged
}
