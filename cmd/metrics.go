package cmd

import (
	"github.com/huangsam/trustscore/core"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd displays the formal definitions of all metrics.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display formulas and weights for every metric",
	Long: `Show how each metric is computed and how the net score combines them.

Custom weights from .trustscore.yaml are applied, so this also validates
a weights configuration before it is used for scoring.

No network access is performed - this is purely informational.

Examples:
  # Show default formulas and weights
  trustscore metrics

  # View with custom weights from config file
  trustscore metrics --config .trustscore.yaml --output yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
