// Package parquet exports trustscore run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/trustscore/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one scoring run. It maps to the trustscore_runs table.
type Run struct {
	RunID string `parquet:"run_id,snappy"`

	PackageURL string `parquet:"package_url,snappy"`

	// StartTime is when scoring began (TIMESTAMP, nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is empty while a run is in flight
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	NetScore     *float64 `parquet:"net_score,optional,snappy"`
	NetLatencyMs *float64 `parquet:"net_latency_ms,optional,snappy"`

	// State is the final lifecycle state (done or failed)
	State string `parquet:"state,snappy"`

	// ConfigParams contains the JSON-encoded settings that influenced scores
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// MetricResult is one calculator outcome. It maps to the trustscore_metric_results table.
type MetricResult struct {
	RunID     string  `parquet:"run_id,snappy"`
	Metric    string  `parquet:"metric_name,snappy"`
	Score     float64 `parquet:"score,snappy"` // -1 when the metric failed
	LatencyMs float64 `parquet:"latency_ms,snappy"`
	ErrorText *string `parquet:"error_message,optional,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMetricResultsParquet writes metric results to a Parquet file.
func WriteMetricResultsParquet(data []MetricResult, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows of T using a schema inferred from the struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts history rows for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:        record.RunID,
			PackageURL:   record.URL,
			StartTime:    record.StartTime,
			EndTime:      record.EndTime,
			NetScore:     record.NetScore,
			NetLatencyMs: record.NetLatencyMs,
			State:        record.State,
			ConfigParams: record.ConfigParams,
		}
	}
	return result
}

// ConvertMetricRecords converts metric rows for Parquet export.
func ConvertMetricRecords(records []schema.MetricRecord) []MetricResult {
	result := make([]MetricResult, len(records))
	for i, record := range records {
		result[i] = MetricResult{
			RunID:     record.RunID,
			Metric:    record.Metric,
			Score:     record.Score,
			LatencyMs: record.LatencyMs,
			ErrorText: record.ErrorText,
		}
	}
	return result
}
