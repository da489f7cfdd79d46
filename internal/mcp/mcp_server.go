// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// pageEnum lists the accepted page ids for tool schemas.
func pageEnum() []string {
	pages := make([]string, 0, len(schema.AllPageIDs))
	for _, p := range schema.AllPageIDs {
		pages = append(pages, string(p))
	}
	return pages
}

// NewMCPServer initializes and configures the Pagegate MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.HistoryManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Pagegate Report Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: merge_reports ---
	s.AddTool(mcp.NewTool("merge_reports",
		mcp.WithDescription("Merge the functional and performance results of a page into one report, persist it and evaluate the CI gate."),
		mcp.WithString("page", mcp.Description("Page identifier."), mcp.Required(), mcp.Enum(pageEnum()...)),
		mcp.WithString("functional_path", mcp.Description("Functional result document. Defaults to functional-report-<page>.json in the output directory.")),
		mcp.WithString("performance_path", mcp.Description("Lighthouse report. Defaults to lh-report-<page>.json in the output directory.")),
	), h.handleMergeReports)

	// --- 2. Tool: check_report ---
	s.AddTool(mcp.NewTool("check_report",
		mcp.WithDescription("Evaluate the CI gate against a persisted merged report."),
		mcp.WithString("page", mcp.Description("Page identifier. Ignored when report_path is set."), mcp.Enum(pageEnum()...)),
		mcp.WithString("report_path", mcp.Description("Explicit merged report path.")),
		mcp.WithNumber("threshold", mcp.Description("Performance threshold percent (0-100). Defaults to the configured threshold.")),
	), h.handleCheckReport)

	// --- 3. Tool: get_performance_summary ---
	s.AddTool(mcp.NewTool("get_performance_summary",
		mcp.WithDescription("Summarize the Lighthouse performance section of a persisted merged report: categories, weighted metrics and diagnostics."),
		mcp.WithString("page", mcp.Description("Page identifier. Ignored when report_path is set."), mcp.Enum(pageEnum()...)),
		mcp.WithString("report_path", mcp.Description("Explicit merged report path.")),
		mcp.WithNumber("min_pass_score", mcp.Description("Minimum computed score (0-100) for the summary to pass.")),
	), h.handleGetPerformanceSummary)

	// --- 4. Tool: get_run_history ---
	s.AddTool(mcp.NewTool("get_run_history",
		mcp.WithDescription("List recently recorded runs, most recent first."),
		mcp.WithString("page", mcp.Description("Only list runs for this page."), mcp.Enum(pageEnum()...)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return.")),
	), h.handleGetRunHistory)

	return s
}

// StartMCPServer starts the Pagegate MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.HistoryManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
