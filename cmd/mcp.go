package main

import (
	"github.com/AbdelilahOu/simplesql/internal/server"
	"github.com/spf13/cobra"
)

var (
	mcpReadOnly bool
	mcpProfile  string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio (for local MCP clients)",
	Long: `mcp serves the database helpers as Model Context Protocol tools on stdin and
stdout. Clients open sessions with the connect tool; --profile opens one at
startup. Logs go to stderr or the configured log file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profile := mcpProfile
		if profile == "" {
			profile = flags.server
		}
		return server.RunStdioServer(cmd.Context(), server.StdioServerConfig{
			Version:        version,
			Config:         app.cfg,
			Sessions:       app.sessions,
			ReadOnly:       mcpReadOnly,
			InitialProfile: profile,
			ServerOptions:  serverOptions(),
		})
	},
}

func init() {
	mcpCmd.Flags().BoolVarP(&mcpReadOnly, "read-only", "r", false, "Enable read-only mode (SELECT and SHOW only)")
	mcpCmd.Flags().StringVar(&mcpProfile, "profile", "", "server profile to connect at startup")
	rootCmd.AddCommand(mcpCmd)
}
