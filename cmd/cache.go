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

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No run history for cache commands
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// sqliteFilePath returns the SQLite file a backend writes to, or defaultPath
// when no connection string is configured.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by scoring commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the GitHub snapshot cache",
	Long: `Manage the cache of GitHub activity snapshots that speeds up repeated scoring.

Snapshots are keyed by repository, page cap and local HEAD, and expire after --cache-ttl.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached GitHub snapshots",
	Long: `Delete all cached snapshots from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  trustscore cache clear
  TRUSTSCORE_CACHE_BACKEND=mysql TRUSTSCORE_CACHE_DB_CONNECT="..." trustscore cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite file before removing it
		iocache.CloseStores()
		path := sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, path, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, connection state, entry count, newest and oldest entries
and the size of the snapshot cache.`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetSnapshotStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("snapshot cache is disabled"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
