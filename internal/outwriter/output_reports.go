package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// failedCell is shown in place of a metric that could not be computed.
const failedCell = "ERR"

// metricHeaders are the short column titles of schema.AllMetrics, in order.
var metricHeaders = map[schema.MetricKind]string{
	schema.RampUpMetric:      "RampUp",
	schema.CorrectnessMetric: "Correct",
	schema.BusFactorMetric:   "Bus",
	schema.ResponsiveMetric:  "Maint",
	schema.LicenseMetric:     "License",
	schema.PullRequestMetric: "PR",
}

// PrintReports writes the scoring reports to cfg.OutputFile, or stdout when it is empty.
func PrintReports(reports []*schema.Report, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteReports(w, reports, cfg, duration)
	}, "Wrote "+string(cfg.Output))
}

// WriteReports outputs the scoring reports, dispatching based on the output format configured.
func WriteReports(w io.Writer, reports []*schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeNDJSONReports(w, reports); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVReports(w, reports, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeYAML(w, reports); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeReportTable(reports, cfg, fmtFloat, intFmt, duration, w)
	}
	return nil
}

// writeNDJSONReports writes one fixed-key record per package.
func writeNDJSONReports(w io.Writer, reports []*schema.Report) error {
	records := make([]schema.NetScoreRecord, len(reports))
	for i, r := range reports {
		records[i] = r.Record()
	}
	return writeNDJSON(w, records)
}

// formatMetric renders a metric score, or failedCell when it was not computed.
func formatMetric(r *schema.Report, kind schema.MetricKind, fmtFloat func(float64) string) string {
	res, ok := r.Result(kind)
	if !ok || !res.OK() {
		return failedCell
	}
	return fmtFloat(res.Score)
}

// writeReportTable generates and writes the human-readable table.
func writeReportTable(reports []*schema.Report, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"#", "URL", "Net", "Label"}
	for _, kind := range schema.AllMetrics {
		headers = append(headers, metricHeaders[kind])
	}
	if cfg.Detail {
		headers = append(headers, "Resp h", "Close h", "Maintainers", "Key Authors")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelFn := contract.GetPlainLabel
	if cfg.UseColors {
		labelFn = contract.GetColorLabel
	}

	// 2. Populate Rows
	var data [][]string
	failures := 0
	for i, r := range reports {
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncateURL(r.URL, getMaxTableURLWidth(cfg)),
			fmtFloat(r.NetScore),
			labelFn(r.NetScore),
		}
		for _, kind := range schema.AllMetrics {
			row = append(row, formatMetric(r, kind, fmtFloat))
		}
		if cfg.Detail {
			m := r.Maintainer
			row = append(
				row,
				fmtFloat(m.AvgResponseHours),
				fmtFloat(m.AvgClosureHours),
				fmt.Sprintf(intFmt, m.ActiveMaintainers),
				schema.FormatAuthors(r.KeyAuthors),
			)
		}
		failures += len(r.Failures())
		data = append(data, row)
	}

	// 3. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Scored %d packages (%d failed metrics)\n", len(reports), failures); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Scoring completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeCSVReports writes one row per package with every metric and its latency.
func writeCSVReports(w io.Writer, reports []*schema.Report, fmtFloat func(float64) string) error {
	header := []string{"run_id", "url", "repo_url", "net_score", "label", "net_latency_ms"}
	for _, kind := range schema.AllMetrics {
		header = append(header, string(kind), string(kind)+"_latency_ms")
	}
	header = append(header, "key_authors")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			rec := []string{
				r.RunID,
				r.URL,
				r.RepoURL,
				fmtFloat(r.NetScore),
				contract.GetPlainLabel(r.NetScore),
				fmtFloat(r.NetLatencyMs),
			}
			for _, kind := range schema.AllMetrics {
				res, ok := r.Result(kind)
				if !ok {
					res = schema.MetricResult{Kind: kind, Err: "missing"}
				}
				rec = append(rec, fmtFloat(res.WireScore()), fmtFloat(res.LatencyMs))
			}
			rec = append(rec, strings.Join(r.KeyAuthors, "|"))
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
