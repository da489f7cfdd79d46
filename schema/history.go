package schema

import "time"

// RunRecord is one row of run history.
type RunRecord struct {
	RunID            string           `json:"run_id"`
	Page             PageID           `json:"page"`
	MergedAt         time.Time        `json:"merged_at"`
	FunctionalStatus FunctionalStatus `json:"functional_status"`
	FunctionalScore  int              `json:"functional_score"`
	PerformanceScore *float64         `json:"performance_score"`
	Passed           bool             `json:"passed"`
	Reason           string           `json:"reason"`
	Threshold        float64          `json:"threshold"`
	FailedChecks     []string         `json:"failed_checks"`
	ReportPath       string           `json:"report_path"`
	ReportDigest     string           `json:"report_digest"`
}

// HistoryStatus represents the status of the history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	PassedRuns    int              `json:"passed_runs"`
	FailedRuns    int              `json:"failed_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// NewRunRecord builds a history row from a report and its verdict.
func NewRunRecord(report MergedReport, verdict GateVerdict, reportPath, digest string) RunRecord {
	var perf *float64
	if report.PerformanceScore != nil {
		v := *report.PerformanceScore
		perf = &v
	}
	failed := append([]string{}, report.FailedChecks...)
	return RunRecord{
		RunID:            report.RunID,
		Page:             report.Page,
		MergedAt:         report.MergedAt,
		FunctionalStatus: report.Functional.Status,
		FunctionalScore:  report.FunctionalScore,
		PerformanceScore: perf,
		Passed:           verdict.Passed,
		Reason:           verdict.Reason,
		Threshold:        verdict.Threshold,
		FailedChecks:     failed,
		ReportPath:       reportPath,
		ReportDigest:     digest,
	}
}
