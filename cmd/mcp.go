package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/mjcusd/internal/mcpserver"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdio exposing convert_mjcf and query_scene",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.New(Version, translateOptions(cmd, "")).ServeStdio()
	},
}
