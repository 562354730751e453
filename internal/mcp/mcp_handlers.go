package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/trustscore/core"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxBatchURLs caps a single rate_packages call.
const maxBatchURLs = 20

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	rater   contract.PackageRater
}

// metricsDescription is the payload of describe_metrics.
type metricsDescription struct {
	Metrics []schema.MetricDefinition `json:"metrics"`
	Weights schema.NetWeights         `json:"weights"`
}

func (h *toolHandler) handleRatePackage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(request.GetString("url", ""))
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	if contract.ClassifyURL(url) == schema.UnsupportedURL {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported URL %q: expected a github.com or npmjs.com URL", url)), nil
	}
	if request.GetBool("fresh", false) {
		ctx = core.WithFreshSnapshot(ctx)
	}

	report, err := h.rater.Rate(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rating failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRatePackages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urls := splitURLs(request.GetString("urls", ""))
	if len(urls) == 0 {
		return mcp.NewToolResultError("urls is required"), nil
	}
	if len(urls) > maxBatchURLs {
		return mcp.NewToolResultError(fmt.Sprintf("too many URLs: %d (max %d)", len(urls), maxBatchURLs)), nil
	}

	var lines []string
	for _, url := range urls {
		report, err := h.rater.Rate(ctx, url)
		if err != nil {
			lines = append(lines, fmt.Sprintf(`{"URL":%q,"error":%q}`, url, err.Error()))
			continue
		}
		data, _ := json.Marshal(report.Record())
		lines = append(lines, string(data))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (h *toolHandler) handleDescribeMetrics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weights := h.baseCfg.Weights
	if weights == nil {
		weights = schema.DefaultNetWeights()
	}
	jsonData, _ := json.MarshalIndent(metricsDescription{
		Metrics: schema.MetricDefinitions,
		Weights: weights,
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// splitURLs accepts commas, whitespace and newlines as separators.
func splitURLs(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
}
