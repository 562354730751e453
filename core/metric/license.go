package metric

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultLicensePatterns are the licenses compatible with the project, tried in order.
var DefaultLicensePatterns = []string{
	`(?i)\bMIT License\b`,
	`(?i)^\s*MIT\s*$`, // SPDX identifier from registry metadata
	`(?i)GNU Lesser General Public License,? v(ersion)?\s?2\.0`,
	`(?i)GNU Lesser General Public License,? v(ersion)?\s?2\.1`,
	`(?i)GNU Lesser General Public License,? v(ersion)?\s?3\.0`,
	`(?i)\bLGPL-(2\.0|2\.1|3\.0)(-only|-or-later)?\b`,
}

// LicenseChecker tests license text against an ordered list of patterns.
type LicenseChecker struct {
	patterns []*regexp.Regexp
}

// NewLicenseChecker compiles the given patterns. An empty list selects DefaultLicensePatterns.
func NewLicenseChecker(patterns []string) (*LicenseChecker, error) {
	if len(patterns) == 0 {
		patterns = DefaultLicensePatterns
	}
	c := &LicenseChecker{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid license pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// Check returns true when any pattern matches. Empty text never matches.
func (c *LicenseChecker) Check(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, re := range c.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Score is Check as 1 or 0.
func (c *LicenseChecker) Score(text string) float64 {
	return indicator(c.Check(text))
}

// licenseFilePrefixes are tried in priority order when gathering license text.
var licenseFilePrefixes = []string{"license", "licence", "copying", "readme"}

// FindLicenseText concatenates the license and README files at the top of dir.
// A missing directory or missing files yield empty text.
func FindLicenseText(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var matched []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if licenseRank(e.Name()) >= 0 {
			matched = append(matched, e.Name())
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return licenseRank(matched[i]) < licenseRank(matched[j])
	})

	var sb strings.Builder
	for _, name := range matched {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func licenseRank(name string) int {
	lower := strings.ToLower(name)
	for i, prefix := range licenseFilePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return i
		}
	}
	return -1
}
