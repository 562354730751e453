package metric

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
)

// maintainerScale is the maintainer count that earns a full ramp-up score
// for npm packages without a linked repository.
const maintainerScale = 10.0

// readmeNames are tried in order, case-insensitively.
var readmeNames = []string{"readme.md", "readme.markdown", "readme", "readme.txt", "readme.rst"}

// RampUpCalculator scores how quickly a newcomer can get going with a package.
type RampUpCalculator struct {
	registry contract.RegistryClient
	logger   *zap.SugaredLogger
}

// NewRampUpCalculator creates a calculator that resolves npm packages through registry.
func NewRampUpCalculator(registry contract.RegistryClient, logger *zap.SugaredLogger) *RampUpCalculator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RampUpCalculator{registry: registry, logger: logger}
}

// Score returns the ramp-up score for pkgURL using the README found in
// checkoutPath, or readmeText when the checkout has none. Every failure is
// logged and scores 0.
func (c *RampUpCalculator) Score(ctx context.Context, pkgURL, checkoutPath, readmeText string) float64 {
	switch contract.ClassifyURL(pkgURL) {
	case schema.GitHubURL:
		return c.readme(checkoutPath, readmeText)

	case schema.NpmURL:
		name, err := contract.NpmPackageName(pkgURL)
		if err != nil {
			c.logger.Errorw("cannot parse npm URL", "url", pkgURL, "error", err)
			return 0
		}
		if c.registry == nil {
			c.logger.Errorw("no registry client configured", "url", pkgURL)
			return 0
		}
		meta, err := c.registry.FetchPackage(ctx, name)
		if err != nil {
			c.logger.Errorw("registry lookup failed", "package", name, "error", err)
			return 0
		}
		if contract.ClassifyURL(meta.RepositoryURL) == schema.GitHubURL {
			if readmeText == "" {
				readmeText = meta.Readme
			}
			return c.readme(checkoutPath, readmeText)
		}
		return schema.Clamp01(float64(len(meta.Maintainers)) / maintainerScale)

	default:
		c.logger.Errorw("unsupported URL for ramp-up", "url", pkgURL)
		return 0
	}
}

func (c *RampUpCalculator) readme(dir, fallback string) float64 {
	path, ok, err := FindReadme(dir)
	if err != nil {
		c.logger.Warnw("README unavailable", "dir", dir, "error", err)
	}
	if ok {
		data, err := os.ReadFile(path)
		if err == nil {
			return TextScore(data)
		}
		c.logger.Warnw("README unreadable", "path", path, "error", err)
	}
	if strings.TrimSpace(fallback) == "" {
		return 0
	}
	return TextScore([]byte(fallback))
}

// TextScore is the Flesch reading ease of Markdown text divided by 100,
// clamped to [0, 1].
func TextScore(markdown []byte) float64 {
	return schema.Clamp01(FleschReadingEase(MarkdownToText(markdown)) / 100)
}

// FindReadme locates the README at the top of dir.
func FindReadme(dir string) (string, bool, error) {
	if dir == "" {
		return "", false, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}

	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			byName[strings.ToLower(e.Name())] = e.Name()
		}
	}
	for _, candidate := range readmeNames {
		if name, ok := byName[candidate]; ok {
			return filepath.Join(dir, name), true, nil
		}
	}
	return "", false, nil
}
