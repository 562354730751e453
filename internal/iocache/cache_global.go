package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
)

// snapshotTable is the name of the table for snapshot caching.
const snapshotTable = "snapshot_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStores initializes the global manager with the snapshot cache and run history stores.
// An empty cacheBackend disables the cache; an empty historyBackend disables run tracking.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var snapshotStore contract.CacheStore
		if cacheBackend != "" {
			snapshotStore, err = NewCacheStore(snapshotTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize snapshot caching: %w", err)
				return
			}
		}

		var historyStore contract.HistoryStore
		if historyBackend != "" {
			historyStore, err = NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if snapshotStore != nil {
					_ = snapshotStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.snapshot = snapshotStore
		Manager.history = historyStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.snapshot != nil {
			_ = Manager.snapshot.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache clears the snapshot cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, snapshotTable)
}

// ClearHistory clears the run history for the specified backend.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, metricResultsTable, runsTable)
}

// clearBackend removes the SQLite file or drops the given tables.
func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driver, _ := driverName(backend)
		for _, table := range tables {
			if err := clearSQLTable(driver, connStr, table, backend); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend, "":
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driver, connStr, tableName string, backend schema.DatabaseBackend) error {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
