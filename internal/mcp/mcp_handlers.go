package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/pagegate/core"
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/reportstore"
	"github.com/huangsam/pagegate/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.HistoryManager
}

// historyStore returns the configured history store, if any.
func (h *toolHandler) historyStore() contract.HistoryStore {
	if h.mgr == nil {
		return nil
	}
	return h.mgr.GetHistoryStore()
}

// applyPage sets cfg.Page from the request when present.
func applyPage(cfg *contract.Config, request mcp.CallToolRequest) error {
	raw := request.GetString("page", "")
	if raw == "" {
		return nil
	}
	page, ok := schema.ParsePageID(raw)
	if !ok {
		return fmt.Errorf("invalid page '%s'", raw)
	}
	cfg.Page = page
	return nil
}

// fileStore builds the report store for a request's config.
func fileStore(cfg *contract.Config) *reportstore.FileStore {
	return reportstore.NewFileStore(cfg.OutputDir, cfg.Layout, cfg.ValidateDocuments)
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleMergeReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Page = ""
	if err := applyPage(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.FunctionalFile = request.GetString("functional_path", "")
	cfg.PerformanceFile = request.GetString("performance_path", "")

	deps := core.Deps{Store: fileStore(cfg), History: h.historyStore()}
	result, err := core.GetMergeResult(core.WithQuietProgress(ctx), cfg, deps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("merge failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleCheckReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyPage(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.ReportPath = request.GetString("report_path", "")
	if args := request.GetArguments(); args["threshold"] != nil {
		threshold := request.GetFloat("threshold", cfg.Thresholds.PerformanceThresholdPercent)
		if threshold < 0 || threshold > 100 {
			return mcp.NewToolResultError(fmt.Sprintf("threshold must be between 0.0 and 100.0 (received %.2f)", threshold)), nil
		}
		cfg.Thresholds.PerformanceThresholdPercent = threshold
	}

	report, path, verdict, err := core.GetCheckResult(ctx, cfg, fileStore(cfg))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check failed: %v", err)), nil
	}
	return jsonResult(struct {
		RunID      string             `json:"runId"`
		Page       schema.PageID      `json:"page"`
		ReportPath string             `json:"reportPath,omitempty"`
		Verdict    schema.GateVerdict `json:"verdict"`
	}{report.RunID, report.Page, path, verdict}), nil
}

func (h *toolHandler) handleGetPerformanceSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyPage(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.ReportPath = request.GetString("report_path", "")
	if args := request.GetArguments(); args["min_pass_score"] != nil {
		minScore := request.GetInt("min_pass_score", cfg.MinPassScore)
		if minScore < 0 || minScore > 100 {
			return mcp.NewToolResultError(fmt.Sprintf("min-pass-score must be between 0 and 100 (received %d)", minScore)), nil
		}
		cfg.MinPassScore = minScore
	}

	summary, _, err := core.GetSummaryResult(ctx, cfg, fileStore(cfg))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (h *toolHandler) handleGetRunHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Page = ""
	if err := applyPage(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", cfg.HistoryLimit)
	if limit <= 0 || limit > contract.MaxHistoryLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be greater than 0 and cannot exceed %d (received %d)", contract.MaxHistoryLimit, limit)), nil
	}

	store := h.historyStore()
	if store == nil {
		return mcp.NewToolResultError("run history is not enabled. Set --history-backend to sqlite, mysql or postgresql"), nil
	}
	records, err := store.ListRuns(cfg.Page, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history query failed: %v", err)), nil
	}
	if records == nil {
		records = []schema.RunRecord{}
	}
	return jsonResult(records), nil
}
