package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteHistory(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*HistoryStoreImpl)
}

func sampleReport(runID string, finished time.Time) *schema.Report {
	return &schema.Report{
		RunID:        runID,
		URL:          "https://github.com/lodash/lodash",
		State:        schema.DoneState,
		NetScore:     0.72,
		NetLatencyMs: 812.125,
		FinishedAt:   finished,
	}
}

func TestHistoryStoreLifecycle(t *testing.T) {
	store := newSQLiteHistory(t)
	start := time.UnixMilli(1714564800000)
	end := start.Add(2 * time.Second)

	require.NoError(t, store.BeginRun("run-1", "https://github.com/lodash/lodash", start, map[string]any{"max_pages": 3}))
	require.NoError(t, store.RecordMetric("run-1", schema.MetricResult{Kind: schema.LicenseMetric, Score: 1, LatencyMs: 0.5}))
	require.NoError(t, store.RecordMetric("run-1", schema.MetricResult{Kind: schema.BusFactorMetric, LatencyMs: 0.1, Err: "insufficient data"}))
	require.NoError(t, store.EndRun("run-1", end, sampleReport("run-1", end)))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, "https://github.com/lodash/lodash", run.URL)
	assert.Equal(t, string(schema.DoneState), run.State)
	assert.Equal(t, start.UnixMilli(), run.StartTime.UnixMilli())
	require.NotNil(t, run.EndTime)
	assert.Equal(t, end.UnixMilli(), run.EndTime.UnixMilli())
	require.NotNil(t, run.NetScore)
	assert.InDelta(t, 0.72, *run.NetScore, 1e-9)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"max_pages":3}`, *run.ConfigParams)

	metrics, err := store.GetAllMetrics()
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	// Sorted by metric name
	assert.Equal(t, "bus_factor", metrics[0].Metric)
	assert.Equal(t, schema.NotComputed, metrics[0].Score)
	require.NotNil(t, metrics[0].ErrorText)
	assert.Equal(t, "insufficient data", *metrics[0].ErrorText)
	assert.Equal(t, "license", metrics[1].Metric)
	assert.Nil(t, metrics[1].ErrorText)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, "run-1", status.LastRunID)
	assert.Equal(t, int64(1), status.TableSizes[runsTable])
	assert.Equal(t, int64(2), status.TableSizes[metricResultsTable])

	var buf bytes.Buffer
	PrintHistoryStatus(&buf, status)
	assert.Contains(t, buf.String(), "Last Run ID: run-1")
	assert.Contains(t, buf.String(), "trustscore_metric_results: 2 rows")
}

func TestHistoryStoreFailedRun(t *testing.T) {
	store := newSQLiteHistory(t)
	start := time.UnixMilli(1714564800000)

	require.NoError(t, store.BeginRun("run-failed", "https://www.npmjs.com/package/ghost", start, nil))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, string(schema.RunningState), runs[0].State)
	assert.Nil(t, runs[0].EndTime)

	require.NoError(t, store.EndRun("run-failed", start.Add(time.Second), nil))
	runs, err = store.GetAllRuns()
	require.NoError(t, err)
	assert.Equal(t, string(schema.FailedState), runs[0].State)
	assert.Nil(t, runs[0].NetScore)
	assert.NotNil(t, runs[0].EndTime)
}

func TestHistoryStoreLatestRun(t *testing.T) {
	store := newSQLiteHistory(t)
	base := time.UnixMilli(1714564800000)

	require.NoError(t, store.BeginRun("older", "https://github.com/a/b", base, nil))
	require.NoError(t, store.BeginRun("newer", "https://github.com/a/b", base.Add(time.Hour), nil))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, "newer", status.LastRunID)
	assert.Equal(t, base.UnixMilli(), status.OldestRunTime.UnixMilli())
}

func TestHistoryStoreDuplicateMetric(t *testing.T) {
	store := newSQLiteHistory(t)
	require.NoError(t, store.BeginRun("r", "https://github.com/a/b", time.Now(), nil))
	res := schema.MetricResult{Kind: schema.RampUpMetric, Score: 0.5}
	require.NoError(t, store.RecordMetric("r", res))
	assert.Error(t, store.RecordMetric("r", res), "one result per metric per run")
}

func TestHistoryStoreNoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.BeginRun("r", "u", time.Now(), nil))
	assert.NoError(t, store.RecordMetric("r", schema.MetricResult{Kind: schema.LicenseMetric}))
	assert.NoError(t, store.EndRun("r", time.Now(), nil))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateHistory(t *testing.T) {
	t.Run("none backend", func(t *testing.T) {
		err := MigrateHistory(&bytes.Buffer{}, schema.NoneBackend, "", -1)
		assert.Error(t, err)
	})

	t.Run("up and down", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "history.db")

		var buf bytes.Buffer
		require.NoError(t, MigrateHistory(&buf, schema.SQLiteBackend, dbPath, -1))
		assert.Contains(t, buf.String(), "from version 0 to version 2")

		buf.Reset()
		require.NoError(t, MigrateHistory(&buf, schema.SQLiteBackend, dbPath, -1))
		assert.Contains(t, buf.String(), "No migration needed")

		buf.Reset()
		require.NoError(t, MigrateHistory(&buf, schema.SQLiteBackend, dbPath, 1))
		assert.Contains(t, buf.String(), "from version 2 to version 1")

		buf.Reset()
		require.NoError(t, MigrateHistory(&buf, schema.SQLiteBackend, dbPath, 0))
		assert.Contains(t, buf.String(), "to version 0")

		buf.Reset()
		require.NoError(t, MigrateHistory(&buf, schema.SQLiteBackend, dbPath, 2))
		assert.Contains(t, buf.String(), "from version 0 to version 2")

		// Store opens cleanly on a migrated database
		store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.BeginRun("r", "https://github.com/a/b", time.Now(), nil))
		require.NoError(t, store.Close())
	})
}

func TestExportHistory(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		assert.Error(t, ExportHistory(&bytes.Buffer{}, newSQLiteHistory(t), ""))
		assert.Error(t, ExportHistory(&bytes.Buffer{}, nil, "out"))
		assert.Error(t, ExportHistory(&bytes.Buffer{}, newSQLiteHistory(t), "out"), "no runs")
	})

	t.Run("writes parquet files", func(t *testing.T) {
		store := newSQLiteHistory(t)
		start := time.UnixMilli(1714564800000)
		require.NoError(t, store.BeginRun("run-1", "https://github.com/lodash/lodash", start, nil))
		require.NoError(t, store.RecordMetric("run-1", schema.MetricResult{Kind: schema.LicenseMetric, Score: 1}))
		require.NoError(t, store.EndRun("run-1", start.Add(time.Second), sampleReport("run-1", start)))

		prefix := filepath.Join(t.TempDir(), "export")
		var buf bytes.Buffer
		require.NoError(t, ExportHistory(&buf, store, prefix))

		assert.FileExists(t, prefix+".runs.parquet")
		assert.FileExists(t, prefix+".metric_results.parquet")
		assert.Contains(t, buf.String(), "Exported 1 runs")
		assert.Contains(t, buf.String(), "Exported 1 metric results")
	})
}
