package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Pochyxi/e2ereport/internal/pipeline"
	"github.com/Pochyxi/e2ereport/internal/suite"
)

// RunFunc runs one scenario of a suite on every browser project.
type RunFunc func(ctx context.Context, s *suite.Suite, scenario string) (*pipeline.Outcome, error)

// Config holds MCP server configuration.
type Config struct {
	SuitesDir  string
	ReportsDir string
	Version    string
	Run        RunFunc // nil disables run_scenario
}

// Server exposes the scenario repository and the runner as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       Config

	// Browser runs are serialized: they share the screenshot cache and the
	// trace results folder.
	runMu sync.Mutex
}

// New creates an MCP server with the e2ereport tools registered.
func New(cfg Config) (*Server, error) {
	if cfg.SuitesDir == "" {
		return nil, fmt.Errorf("suites directory is required")
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{cfg: cfg}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "e2ereport",
			Version: cfg.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all e2ereport tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_scenarios",
		Description: "List every scenario of a suite with its chapter path and step count.",
	}, s.handleListScenarios)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "find_scenario",
		Description: "Resolve a scenario by name with the runner's depth-first search and return its description, prerequisites and steps.",
	}, s.handleFindScenario)

	if s.cfg.Run != nil {
		mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
			Name:        "run_scenario",
			Description: "Run one scenario on every browser project of its suite and return the per-project results and report paths.",
		}, s.handleRunScenario)
	}

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_reports",
		Description: "List generated PDF reports, newest first, optionally filtered by project.",
	}, s.handleListReports)
}
