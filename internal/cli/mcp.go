package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	e2emcp "github.com/Pochyxi/e2ereport/internal/mcp"
	"github.com/Pochyxi/e2ereport/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs e2ereport as an MCP (Model Context Protocol) server over stdio.\nExposes tools: list_scenarios, find_scenario, run_scenario, list_reports.",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := pipeline.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	srv, err := e2emcp.New(e2emcp.Config{
		SuitesDir:  cfg.SuitesDir,
		ReportsDir: cfg.ReportsDir,
		Version:    version,
		Run:        p.RunScenario,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	fmt.Fprintln(os.Stderr, "e2ereport MCP server running on stdio")
	return srv.Run(ctx)
}
