package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
)

// ReportMerger builds MergedReport values.
type ReportMerger struct {
	now   func() time.Time
	newID func() string
}

// NewReportMerger creates a merger stamping reports with the wall clock and a random run id.
func NewReportMerger() *ReportMerger {
	return &ReportMerger{now: time.Now, newID: uuid.NewString}
}

// WithClock replaces the clock, for deterministic output.
func (m *ReportMerger) WithClock(now func() time.Time) *ReportMerger {
	m.now = now
	return m
}

// WithRunID replaces the run id generator.
func (m *ReportMerger) WithRunID(newID func() string) *ReportMerger {
	m.newID = newID
	return m
}

// Merge combines both results into a report. It always succeeds; either input may be
// its sentinel. The inputs are deep-copied so later changes by the caller do not leak in.
func (m *ReportMerger) Merge(page schema.PageID, functional schema.FunctionalResult, performance schema.PerformanceResult, loadErrors []schema.LoadError) schema.MergedReport {
	if page == "" {
		page = schema.UnknownPage
	}
	f := functional.Clone()
	if f.Status == "" {
		f = schema.MissingFunctionalResult()
	}
	p := performance.Clone()

	fs := ExtractFunctionalScore(f)
	report := schema.MergedReport{
		RunID:            m.newID(),
		Page:             page,
		MergedAt:         m.now().UTC().Truncate(time.Millisecond),
		Functional:       f,
		Performance:      p,
		FunctionalScore:  fs.Score,
		FunctionalPassed: fs.Passed,
		FailedChecks:     fs.FailedChecks,
		PerformanceScore: ExtractPerformanceScore(p),
	}
	if len(loadErrors) > 0 {
		report.LoadErrors = append([]schema.LoadError{}, loadErrors...)
	}
	return report
}

// MergeAndSave merges and persists the report, returning it with its path.
func (m *ReportMerger) MergeAndSave(store contract.ReportStore, page schema.PageID, functional schema.FunctionalResult, performance schema.PerformanceResult, loadErrors []schema.LoadError) (schema.MergedReport, string, error) {
	report := m.Merge(page, functional, performance, loadErrors)
	path, err := store.SaveReport(report)
	if err != nil {
		return report, "", err
	}
	return report, path, nil
}
