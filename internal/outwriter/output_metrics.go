package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
)

// metricsRenderModel is the processed view of the metric definitions.
type metricsRenderModel struct {
	Title       string                    `json:"title" yaml:"title"`
	Description string                    `json:"description" yaml:"description"`
	Metrics     []schema.MetricDefinition `json:"metrics" yaml:"metrics"`
	Weights     map[string]float64        `json:"weights" yaml:"weights"`
	Formula     string                    `json:"formula" yaml:"formula"`
}

// PrintMetricsDefinitions displays the formal definitions of every metric.
// This is a static display that does not require any network access.
func PrintMetricsDefinitions(weights schema.NetWeights, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteMetricsDefinitions(w, weights, cfg)
	}, "Wrote metrics")
}

// WriteMetricsDefinitions writes the metric definitions in the configured format.
func WriteMetricsDefinitions(w io.Writer, weights schema.NetWeights, cfg *contract.Config) error {
	renderModel := buildMetricsRenderModel(weights)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, renderModel)
	case schema.CSVOut:
		return writeCSVMetrics(w, renderModel)
	case schema.YAMLOut:
		return writeYAML(w, renderModel)
	default:
		return printMetricsText(w, renderModel)
	}
}

// buildMetricsRenderModel fills the net score formula with the active weights.
func buildMetricsRenderModel(weights schema.NetWeights) *metricsRenderModel {
	if weights == nil {
		weights = schema.DefaultNetWeights()
	}
	display := make(map[string]float64, len(weights))
	for kind, w := range weights {
		display[string(kind)] = w
	}
	return &metricsRenderModel{
		Title:       "Trust Score Metrics",
		Description: "Every metric is a score in [0, 1]. Failed metrics are reported as -1 and count as 0.",
		Metrics:     schema.MetricDefinitions,
		Weights:     display,
		Formula:     formatWeights(weights),
	}
}

// formatWeights renders the net score formula in report order.
func formatWeights(weights schema.NetWeights) string {
	var parts []string
	for _, kind := range schema.AllMetrics {
		if w, ok := weights[kind]; ok && w > 0 {
			parts = append(parts, fmt.Sprintf("%.2f*%s", w, kind))
		}
	}
	return "license * (" + strings.Join(parts, " + ") + ")"
}

// printMetricsText displays metrics in human-readable text format.
func printMetricsText(w io.Writer, renderModel *metricsRenderModel) error {
	if _, err := fmt.Fprintf(w, "🛡️  %s\n", renderModel.Title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n\n%s\n\n", strings.Repeat("=", len(renderModel.Title)+4), renderModel.Description); err != nil {
		return err
	}

	for _, def := range renderModel.Metrics {
		if _, err := fmt.Fprintf(w, "%s (%s): %s\n", def.Name, def.Kind, def.Description); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Formula: %s\n\n", def.Formula); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Active weights: NetScore = %s\n", renderModel.Formula); err != nil {
		return err
	}
	return nil
}

// writeCSVMetrics writes the metric definitions in CSV format.
func writeCSVMetrics(w io.Writer, renderModel *metricsRenderModel) error {
	header := []string{"kind", "name", "weight", "formula", "description"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, def := range renderModel.Metrics {
			weight := ""
			if v, ok := renderModel.Weights[string(def.Kind)]; ok {
				weight = fmt.Sprintf("%.2f", v)
			}
			record := []string{string(def.Kind), def.Name, weight, def.Formula, def.Description}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
