package main

import (
	"context"

	"github.com/spf13/cobra"

	"agenteval/internal/logging"
	mcpserver "agenteval/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveFlags struct {
	catalog string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing load_case_studies,
evaluate_case_study and get_summary to any MCP client.

The server monitors for parent process death. When the client disconnects
or restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.catalog, "catalog", "", "Path to a retailer catalog YAML (default: built-in catalog)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	catalog, err := resolveCatalog(serveFlags.catalog)
	if err != nil {
		return err
	}
	srv := mcpserver.NewServer(catalog)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting agenteval MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
