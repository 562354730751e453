package cmd

import (
	"errors"

	"github.com/huangsam/trustscore/core"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/spf13/cobra"
)

// rateCmd scores one or more packages.
var rateCmd = &cobra.Command{
	Use:   "rate <url-or-file>...",
	Short: "Score packages by URL or from a file of URLs.",
	Long: `Score GitHub repositories and npm packages and print one report per package.

Each argument is either a package URL or a file with one URL per line
(blank lines and lines starting with # are skipped). Reports are printed
in input order. Packages that cannot be scored are logged and skipped,
and the command exits non-zero at the end.

Scores:
- Ramp up, correctness, bus factor, responsive maintainer, PR review in [0, 1]
- License compatibility, 0 or 1, which gates the net score
- A metric that failed is shown as ERR in text output and -1 in JSON and CSV

Examples:
  # Score a repository and an npm package
  trustscore rate https://github.com/expressjs/express https://www.npmjs.com/package/lodash

  # Score a URL file with local clones for README and history metrics
  trustscore rate urls.txt --clone --detail

  # Emit NDJSON for other tools
  trustscore rate urls.txt --output json --output-file scores.ndjson`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if len(cfg.URLs) == 0 {
			contract.LogFatal("Cannot rate packages", errors.New("no package URLs given"))
		}
		if err := core.ExecuteRate(rootCtx, cfg, cacheManager, logger); err != nil {
			contract.LogFatal("Cannot rate packages", err)
		}
	},
}
