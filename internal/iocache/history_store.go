package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
)

// Table names for run tracking.
const (
	runsTable          = "trustscore_runs"
	metricResultsTable = "trustscore_metric_results"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
// The tables are created from the embedded migrations when missing.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables applies every up migration in order. The statements
// use IF NOT EXISTS so this is safe on a migrated database.
func createHistoryTables(db *sql.DB) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	slices.Sort(files)
	for _, file := range files {
		stmt, err := migrationsFS.ReadFile(file)
		if err != nil {
			return err
		}
		if _, err := db.Exec(strings.TrimSpace(string(stmt))); err != nil {
			return fmt.Errorf("failed to apply %s: %w", file, err)
		}
	}
	return nil
}

// disabled reports whether tracking is a no-op.
func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun records the start of a scoring run.
func (hs *HistoryStoreImpl) BeginRun(runID string, url string, startTime time.Time, configParams map[string]any) error {
	if hs.disabled() {
		return nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, package_url, started_at, state, config_params) VALUES (%s)`,
		quoteTableName(runsTable, hs.backend), placeholders(hs.backend, 5))
	if _, err := hs.db.Exec(query, runID, url, startTime.UnixMilli(), string(schema.RunningState), string(configJSON)); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", runID, err)
	}
	return nil
}

// EndRun stores the final state and net score of a run. A nil report marks
// the run as failed.
func (hs *HistoryStoreImpl) EndRun(runID string, endTime time.Time, report *schema.Report) error {
	if hs.disabled() {
		return nil
	}

	state := string(schema.FailedState)
	var netScore, netLatency sql.NullFloat64
	if report != nil {
		state = string(report.State)
		netScore = sql.NullFloat64{Float64: report.NetScore, Valid: true}
		netLatency = sql.NullFloat64{Float64: report.NetLatencyMs, Valid: true}
	}

	b := hs.backend
	query := fmt.Sprintf(`UPDATE %s SET ended_at = %s, net_score = %s, net_latency_ms = %s, state = %s WHERE run_id = %s`,
		quoteTableName(runsTable, b), placeholder(b, 1), placeholder(b, 2), placeholder(b, 3), placeholder(b, 4), placeholder(b, 5))
	if _, err := hs.db.Exec(query, endTime.UnixMilli(), netScore, netLatency, state, runID); err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	return nil
}

// RecordMetric stores the outcome of one calculator.
func (hs *HistoryStoreImpl) RecordMetric(runID string, result schema.MetricResult) error {
	if hs.disabled() {
		return nil
	}

	var errText sql.NullString
	if !result.OK() {
		errText = sql.NullString{String: result.Err, Valid: true}
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, metric_name, score, latency_ms, error_message) VALUES (%s)`,
		quoteTableName(metricResultsTable, hs.backend), placeholders(hs.backend, 5))
	if _, err := hs.db.Exec(query, runID, string(result.Kind), result.WireScore(), result.LatencyMs, errText); err != nil {
		return fmt.Errorf("failed to insert %s result for run %s: %w", result.Kind, runID, err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	runs := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastMs, oldestMs int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, started_at FROM %s ORDER BY started_at DESC, run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID, &lastMs); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT MIN(started_at) FROM %s", runs)).Scan(&oldestMs); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = time.UnixMilli(lastMs)
		status.OldestRunTime = time.UnixMilli(oldestMs)
	}

	for _, table := range []string{runsTable, metricResultsTable} {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, package_url, started_at, ended_at, net_score, net_latency_ms, state, config_params
		FROM %s ORDER BY started_at, run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var (
			record     schema.RunRecord
			startedMs  int64
			endedMs    sql.NullInt64
			netScore   sql.NullFloat64
			netLatency sql.NullFloat64
			params     sql.NullString
		)
		if err := rows.Scan(&record.RunID, &record.URL, &startedMs, &endedMs, &netScore, &netLatency, &record.State, &params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = time.UnixMilli(startedMs)
		if endedMs.Valid {
			end := time.UnixMilli(endedMs.Int64)
			record.EndTime = &end
		}
		if netScore.Valid {
			record.NetScore = &netScore.Float64
		}
		if netLatency.Valid {
			record.NetLatencyMs = &netLatency.Float64
		}
		if params.Valid {
			record.ConfigParams = &params.String
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllMetrics retrieves every stored metric result.
func (hs *HistoryStoreImpl) GetAllMetrics() ([]schema.MetricRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, metric_name, score, latency_ms, error_message FROM %s ORDER BY run_id, metric_name`,
		quoteTableName(metricResultsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MetricRecord
	for rows.Next() {
		var record schema.MetricRecord
		var errText sql.NullString
		if err := rows.Scan(&record.RunID, &record.Metric, &record.Score, &record.LatencyMs, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan metric result: %w", err)
		}
		if errText.Valid {
			record.ErrorText = &errText.String
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric results: %w", err)
	}
	return results, nil
}
