package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/internal/iocache"
	"github.com/huangsam/trustscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromConfig reads and validates the history backend settings.
// An empty backend is treated as disabled.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("history-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup() error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	// No snapshot cache for history commands
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on run history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage run history tracking and exports",
	Long: `Manage the history of scoring runs.

When --history-backend is set, every run stores:
- Run metadata (URL, timestamps, configuration, net score)
- Each metric result with its latency and error

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all run history
  migrate - Run database schema migrations`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run history",
	Long: `Delete all stored runs and metric results.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		path := sqliteFilePath(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, path, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyStatusCmd shows run history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run history statistics and connection details",
	Long:    `Show the backend, connection state, run count, newest and oldest runs and table sizes.`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get run history status", errors.New("run history is disabled"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all runs and metric results to Parquet.

Writes <output-file>.runs.parquet and <output-file>.metric_results.parquet.

Requires: --output-file parameter

Examples:
  trustscore history export --output-file trust
  duckdb -c "SELECT url, net_score FROM read_parquet('trust.runs.parquet')"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportHistory(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  trustscore history migrate --history-backend sqlite
  trustscore history migrate --history-backend postgresql --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, target); err != nil {
			contract.LogFatal("Failed to migrate run history", err)
		}
	},
}
