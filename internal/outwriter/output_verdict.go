package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// timeLayout is how report times are shown to people.
const timeLayout = "2006-01-02 15:04:05 UTC"

// runCSVHeader is shared by run results and history rows.
var runCSVHeader = []string{
	"run_id", "page", "merged_at", "functional_status", "functional_score",
	"performance_score", "threshold", "passed", "reason", "failed_checks", "report_path",
}

// PrintRunResult outputs a run or merge result, dispatching based on the output format configured.
func PrintRunResult(result *schema.RunResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, runCSVHeader, func(cw *csv.Writer) error {
				record := schema.NewRunRecord(result.Report, result.Verdict, result.ReportPath, result.ReportDigest)
				return cw.Write(runRecordRow(record))
			})
		}, "Wrote CSV")
	case schema.HTMLOut:
		return contract.Configf("html output is only available for the summary command")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVerdictTable(w, result, cfg)
		}, "Wrote table")
	}
}

// PrintCheckResult outputs the gate verdict for a persisted report.
func PrintCheckResult(report schema.MergedReport, reportPath string, verdict schema.GateVerdict, cfg *contract.Config) error {
	return PrintRunResult(&schema.RunResult{Report: report, ReportPath: reportPath, Verdict: verdict}, cfg)
}

// writeVerdictTable renders the report facts as a two-column table followed by the verdict.
func writeVerdictTable(w io.Writer, result *schema.RunResult, cfg *contract.Config) error {
	report := result.Report
	verdict := result.Verdict

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	failed := "-"
	if len(report.FailedChecks) > 0 {
		failed = strings.Join(report.FailedChecks, ", ")
	}
	rows := [][]string{
		{"Page", string(report.Page)},
		{"Run ID", report.RunID},
		{"Merged At", report.MergedAt.UTC().Format(timeLayout)},
		{"Functional Status", string(report.Functional.Status)},
		{"Functional Score", strconv.Itoa(report.FunctionalScore)},
		{"Failed Checks", truncateText(failed, GetMaxTableTextWidth(cfg))},
		{"Performance Score", contract.FormatScore(report.PerformanceScore)},
		{"Threshold", fmt.Sprintf("%.0f", verdict.Threshold)},
	}
	for _, le := range report.LoadErrors {
		rows = append(rows, []string{"Load Error", truncateText(le.Error(), GetMaxTableTextWidth(cfg))})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if result.ReportPath != "" {
		if _, err := fmt.Fprintf(w, "Report: %s\n", result.ReportPath); err != nil {
			return err
		}
	}
	if result.PublishedURI != "" {
		if _, err := fmt.Fprintf(w, "Published: %s\n", result.PublishedURI); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, formatVerdictLine(verdict, cfg.UseColors))
	return err
}

// formatVerdictLine is the one-line outcome printed at the end of a run.
func formatVerdictLine(verdict schema.GateVerdict, useColors bool) string {
	icon := "❌"
	if verdict.Passed {
		icon = "✅"
	}
	line := fmt.Sprintf("%s %s: %s", icon, contract.VerdictLabel(verdict.Passed, useColors), verdict.Reason)
	if verdict.FailedRule != "" {
		line += fmt.Sprintf(" (%s)", verdict.FailedRule)
	}
	if verdict.Reason == schema.ReasonFunctionalFailed && len(verdict.FailedChecks) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(verdict.FailedChecks, ", "))
	}
	if verdict.ObservedValue != nil && (verdict.Reason == schema.ReasonBelowThreshold || verdict.Reason == schema.ReasonMeetsThreshold) {
		line += fmt.Sprintf(" (%.0f vs %.0f)", *verdict.ObservedValue, verdict.Threshold)
	}
	return line
}

// runRecordRow renders a history row for CSV output.
func runRecordRow(r schema.RunRecord) []string {
	perf := ""
	if r.PerformanceScore != nil {
		perf = strconv.FormatFloat(*r.PerformanceScore, 'f', -1, 64)
	}
	return []string{
		r.RunID,
		string(r.Page),
		r.MergedAt.UTC().Format(time.RFC3339Nano),
		string(r.FunctionalStatus),
		strconv.Itoa(r.FunctionalScore),
		perf,
		strconv.FormatFloat(r.Threshold, 'f', -1, 64),
		strconv.FormatBool(r.Passed),
		r.Reason,
		strings.Join(r.FailedChecks, "|"),
		r.ReportPath,
	}
}
