// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
)

// OutWriter provides a unified interface for all output operations.
// It lets callers print results without knowing the configured format.
type OutWriter struct{}

var _ contract.OutputWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRunResult prints the outcome of a run or merge.
func (ow *OutWriter) WriteRunResult(result *schema.RunResult, cfg *contract.Config) error {
	return PrintRunResult(result, cfg)
}

// WriteCheckResult prints the verdict for a persisted report.
func (ow *OutWriter) WriteCheckResult(report schema.MergedReport, reportPath string, verdict schema.GateVerdict, cfg *contract.Config) error {
	return PrintCheckResult(report, reportPath, verdict, cfg)
}

// WriteSummary prints a performance summary.
func (ow *OutWriter) WriteSummary(summary schema.PerformanceSummary, report schema.MergedReport, cfg *contract.Config) error {
	return PrintSummary(summary, report, cfg)
}

// WriteHistory prints recorded runs.
func (ow *OutWriter) WriteHistory(records []schema.RunRecord, cfg *contract.Config) error {
	return PrintHistory(records, cfg)
}
