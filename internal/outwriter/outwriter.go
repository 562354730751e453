// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReports prints scoring reports using the configured output format.
func (ow *OutWriter) WriteReports(reports []*schema.Report, cfg *contract.Config, duration time.Duration) error {
	return PrintReports(reports, cfg, duration)
}

// WriteMetrics prints metric definitions using the configured output format.
func (ow *OutWriter) WriteMetrics(weights schema.NetWeights, cfg *contract.Config) error {
	return PrintMetricsDefinitions(weights, cfg)
}

// getMaxTableURLWidth calculates the maximum width for package URLs in table output
// based on terminal width and table configuration.
func getMaxTableURLWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Net + Label + six metric columns with borders/padding
	baseWidth := 75

	// Responsiveness, maintainers and key authors
	if cfg.Detail {
		baseWidth += 45
	}

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 60 {
		return 60
	}
	return available
}
