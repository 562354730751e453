package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/internal/parquet"
)

// ExportHistory writes every run and metric result in store to two Parquet
// files prefixed by outputFile, reporting progress to w.
func ExportHistory(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is not enabled. Set --history-backend to track runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total metric records: %d\n", status.TableSizes[metricResultsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	metrics, err := store.GetAllMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve metric results: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetMetrics := parquet.ConvertMetricRecords(metrics)
	metricsFile := outputFile + ".metric_results.parquet"
	if err := parquet.WriteMetricResultsParquet(parquetMetrics, metricsFile); err != nil {
		return fmt.Errorf("failed to write metric results: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d metric results to: %s\n", len(parquetMetrics), metricsFile)

	return nil
}
