// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/trustscore/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the trustscore MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, rater contract.PackageRater) *server.MCPServer {
	s := server.NewMCPServer(
		"Trustscore Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		rater:   rater,
	}

	// --- 1. Tool: rate_package ---
	s.AddTool(mcp.NewTool("rate_package",
		mcp.WithDescription("Score the trustworthiness of a GitHub repository or npm package."),
		mcp.WithString("url", mcp.Description("GitHub repository or npmjs.com package URL."), mcp.Required()),
		mcp.WithBoolean("fresh", mcp.Description("Ignore cached repository activity.")),
	), h.handleRatePackage)

	// --- 2. Tool: rate_packages ---
	s.AddTool(mcp.NewTool("rate_packages",
		mcp.WithDescription("Score several packages and return one net score record per URL."),
		mcp.WithString("urls", mcp.Description("Package URLs separated by commas or newlines."), mcp.Required()),
	), h.handleRatePackages)

	// --- 3. Tool: describe_metrics ---
	s.AddTool(mcp.NewTool("describe_metrics",
		mcp.WithDescription("Explain how every sub-metric and the net score are computed."),
	), h.handleDescribeMetrics)

	return s
}

// StartMCPServer starts the trustscore MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, rater contract.PackageRater) error {
	s := NewMCPServer(baseCfg, rater)
	return server.ServeStdio(s)
}
