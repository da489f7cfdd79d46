package core

import (
	"context"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
)

// ReportLoader reads persisted merged reports.
type ReportLoader interface {
	LoadReport(page schema.PageID) (schema.MergedReport, error)
	LoadReportFile(path string) (schema.MergedReport, error)
}

// LoadPersistedReport reads the report at cfg.ReportPath, or the page's standard report.
func LoadPersistedReport(cfg *contract.Config, store ReportLoader) (schema.MergedReport, string, error) {
	if cfg.ReportPath != "" {
		report, err := store.LoadReportFile(cfg.ReportPath)
		return report, cfg.ReportPath, err
	}
	if err := cfg.RequirePage(); err != nil {
		return schema.MergedReport{}, "", err
	}
	report, err := store.LoadReport(cfg.Page)
	return report, "", err
}

// ExecuteCheck re-evaluates the gate on a persisted report, for CI steps that
// run separately from the run that produced it.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, store ReportLoader) (schema.GateVerdict, error) {
	report, path, verdict, err := GetCheckResult(ctx, cfg, store)
	if err != nil {
		return verdict, err
	}
	if err := resultWriter.WriteCheckResult(report, path, verdict, cfg); err != nil {
		return verdict, err
	}
	if !verdict.Passed {
		return verdict, contract.GateFailure(verdict)
	}
	return verdict, nil
}

// GetCheckResult loads a persisted report and evaluates the gate without printing.
func GetCheckResult(_ context.Context, cfg *contract.Config, store ReportLoader) (schema.MergedReport, string, schema.GateVerdict, error) {
	report, path, err := LoadPersistedReport(cfg, store)
	if err != nil {
		return report, path, schema.GateVerdict{}, err
	}
	verdict, err := CheckReport(report, cfg.Thresholds)
	return report, path, verdict, err
}

// CheckReport evaluates one report against a policy.
func CheckReport(report schema.MergedReport, thresholds schema.ThresholdConfig) (schema.GateVerdict, error) {
	gate, err := NewGateEvaluator(thresholds)
	if err != nil {
		return schema.GateVerdict{}, err
	}
	return gate.Evaluate(report), nil
}

// ExecuteSummary prints the performance summary of a persisted report.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, store ReportLoader) (schema.PerformanceSummary, error) {
	summary, report, err := GetSummaryResult(ctx, cfg, store)
	if err != nil {
		return summary, err
	}
	return summary, resultWriter.WriteSummary(summary, report, cfg)
}

// GetSummaryResult builds the performance summary of a persisted report without printing.
func GetSummaryResult(_ context.Context, cfg *contract.Config, store ReportLoader) (schema.PerformanceSummary, schema.MergedReport, error) {
	report, _, err := LoadPersistedReport(cfg, store)
	if err != nil {
		return schema.PerformanceSummary{}, report, err
	}
	summary, err := SummarizePerformance(report.Page, report.Performance, cfg.MinPassScore)
	return summary, report, err
}
