package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/huangsam/trustscore/internal/contract"
	mcp_internal "github.com/huangsam/trustscore/internal/mcp"
	"github.com/huangsam/trustscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRater scores every URL 0.5 except those listed in failing.
type fakeRater struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool
}

func (f *fakeRater) Rate(_ context.Context, rawURL string) (*schema.Report, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()
	if f.failing[rawURL] {
		return nil, errors.New("repository not found")
	}
	return &schema.Report{
		RunID:    "run-" + rawURL,
		URL:      rawURL,
		State:    schema.DoneState,
		NetScore: 0.5,
		Results:  []schema.MetricResult{{Kind: schema.LicenseMetric, Score: 1}},
	}, nil
}

func callTool(t *testing.T, rater contract.PackageRater, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(&contract.Config{}, rater)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func textOf(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	rater := &fakeRater{}

	t.Run("rate_package missing url", func(t *testing.T) {
		res := callTool(t, rater, "rate_package", map[string]any{"url": ""})
		assert.True(t, res.IsError)
		assert.Contains(t, textOf(res), "url is required")
	})

	t.Run("rate_package unsupported url", func(t *testing.T) {
		res := callTool(t, rater, "rate_package", map[string]any{"url": "https://gitlab.com/a/b"})
		assert.True(t, res.IsError)
		assert.Contains(t, textOf(res), "unsupported URL")
	})

	t.Run("rate_packages empty", func(t *testing.T) {
		res := callTool(t, rater, "rate_packages", map[string]any{"urls": " , "})
		assert.True(t, res.IsError)
	})

	t.Run("rate_packages too many", func(t *testing.T) {
		urls := strings.Repeat("https://github.com/a/b,", 21)
		res := callTool(t, rater, "rate_packages", map[string]any{"urls": urls})
		assert.True(t, res.IsError)
		assert.Contains(t, textOf(res), "too many URLs")
	})

	assert.Empty(t, rater.calls, "validation happens before rating")
}

func TestMCPServerRatePackage(t *testing.T) {
	rater := &fakeRater{failing: map[string]bool{"https://github.com/acme/missing": true}}

	res := callTool(t, rater, "rate_package", map[string]any{"url": "https://github.com/acme/widget", "fresh": true})
	require.False(t, res.IsError)

	var report schema.Report
	require.NoError(t, json.Unmarshal([]byte(textOf(res)), &report))
	assert.Equal(t, "https://github.com/acme/widget", report.URL)
	assert.InDelta(t, 0.5, report.NetScore, 1e-9)

	res = callTool(t, rater, "rate_package", map[string]any{"url": "https://github.com/acme/missing"})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), "repository not found")
}

func TestMCPServerRatePackages(t *testing.T) {
	rater := &fakeRater{failing: map[string]bool{"https://github.com/acme/missing": true}}

	res := callTool(t, rater, "rate_packages", map[string]any{
		"urls": "https://github.com/acme/widget,\nhttps://github.com/acme/missing https://www.npmjs.com/package/lodash",
	})
	require.False(t, res.IsError)

	lines := strings.Split(textOf(res), "\n")
	require.Len(t, lines, 3)

	var first schema.NetScoreRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "https://github.com/acme/widget", first.URL)
	assert.Equal(t, 1.0, first.License)
	assert.Equal(t, schema.NotComputed, first.BusFactor)

	var failed map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.Equal(t, "repository not found", failed["error"])

	assert.Equal(t, []string{
		"https://github.com/acme/widget",
		"https://github.com/acme/missing",
		"https://www.npmjs.com/package/lodash",
	}, rater.calls, "URLs are rated in order")
}

func TestMCPServerDescribeMetrics(t *testing.T) {
	res := callTool(t, &fakeRater{}, "describe_metrics", nil)
	require.False(t, res.IsError)

	var payload struct {
		Metrics []schema.MetricDefinition `json:"metrics"`
		Weights map[string]float64        `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(res)), &payload))
	assert.Len(t, payload.Metrics, len(schema.MetricDefinitions))
	assert.InDelta(t, 0.4, payload.Weights["responsive_maintainer"], 1e-9)
}
