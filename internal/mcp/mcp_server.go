// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/hockeystick/internal/contract"
)

// NewMCPServer initializes and configures the hockeystick MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Hockeystick Change Point Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: detect_change_points ---
	s.AddTool(mcp.NewTool("detect_change_points",
		mcp.WithDescription("Find slope changes in a numeric series and fit a line to every segment. Runs offline."),
		mcp.WithArray("values", mcp.Description("Chronological series values."), mcp.Required(), mcp.Items(map[string]any{"type": "number"})),
		mcp.WithNumber("max_bkps", mcp.Description("Maximum number of breakpoints to consider. Defaults to 5.")),
		mcp.WithString("cost", mcp.Description("Segment cost model. Defaults to 'linear'."), mcp.Enum("linear", "l2")),
		mcp.WithNumber("jump", mcp.Description("Candidate breakpoint stride. Defaults to 5.")),
		mcp.WithNumber("min_size", mcp.Description("Minimum segment length. Defaults to 2.")),
	), h.handleDetectChangePoints)

	// --- 2. Tool: analyze_topic ---
	s.AddTool(mcp.NewTool("analyze_topic",
		mcp.WithDescription("Fetch Google Trends interest for a topic and report where its growth changed."),
		mcp.WithString("topic", mcp.Description("Search topic, e.g. 'Uber'."), mcp.Required()),
		mcp.WithString("timeframe", mcp.Description("Window as 'YYYY-MM-DD YYYY-MM-DD' or a relative window like 'today 5-y'.")),
		mcp.WithNumber("max_bkps", mcp.Description("Maximum number of breakpoints to consider.")),
		mcp.WithBoolean("plot", mcp.Description("Also write the topic chart to the output directory.")),
	), h.handleAnalyzeTopic)

	return s
}

// StartMCPServer starts the hockeystick MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	contract.Log().Info().Msg("serving MCP tools on stdio")
	return server.ServeStdio(s)
}
