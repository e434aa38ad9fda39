package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/sumgate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets agent clients list the review queue, inspect records, and
submit decisions on a human's behalf. Configure in Claude Code with:

  {
    "mcpServers": {
      "sumgate": { "command": "sumgate", "args": ["mcp"] }
    }
  }

Available tools: sumgate_queue, sumgate_show, sumgate_approve,
sumgate_reject, sumgate_regenerate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := getService()
		if err != nil {
			return err
		}
		ui.VerboseLog("starting MCP stdio server")
		return mcp.NewServer(svc).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
