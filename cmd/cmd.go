// Package cmd defines the command-line interface for trustscore.
package cmd

import (
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Bool("detail", false, "Print response times, maintainer count and key authors")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or yaml")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of packages scored concurrently")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long a cached GitHub snapshot stays fresh")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug, info, warn, error, or 0 (silent), 1 (info), 2 (debug)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("registry-url", contract.DefaultRegistryURL, "Base URL of the npm registry")
	rootCmd.PersistentFlags().String("github-api-url", "", "Base URL of the GitHub API (empty = api.github.com)")
	rootCmd.PersistentFlags().Bool("clone", false, "Clone GitHub repositories for README, license and commit history")
	rootCmd.PersistentFlags().String("checkout-dir", "", "Parent directory for temporary clones (empty = OS temp dir)")
	rootCmd.PersistentFlags().Int("max-pages", contract.DefaultMaxPages, "Page cap per GitHub listing (100 items per page)")
	rootCmd.PersistentFlags().String("metric-timeout", "", "Deadline for each metric, e.g. 30s (empty = none)")
	rootCmd.PersistentFlags().Bool("fail-fast", false, "Abort a package on its first failed metric")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address for the HTTP API to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
