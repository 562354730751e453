package schema

import "time"

// CacheStatus represents the status of the snapshot cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord is a row from the trustscore_runs table.
type RunRecord struct {
	RunID        string
	URL          string
	StartTime    time.Time
	EndTime      *time.Time
	NetScore     *float64
	NetLatencyMs *float64
	State        string
	ConfigParams *string
}

// MetricRecord is a row from the trustscore_metric_results table.
type MetricRecord struct {
	RunID     string
	Metric    string
	Score     float64
	LatencyMs float64
	ErrorText *string
}
