package cmd

import (
	"github.com/huangsam/trustscore/core"
	"github.com/huangsam/trustscore/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Start the Trustscore MCP server",
	Long:    `Launch an MCP server over stdio that lets AI agents score packages via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		rater, err := core.BuildRater(rootCtx, cfg, cacheManager, logger)
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, cfg, rater)
	},
}
