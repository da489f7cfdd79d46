// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/pagegate/schema"
)

// FunctionalRunner drives the browser-based functional checks for a page.
// It returns the result document exactly as the collaborator printed it.
type FunctionalRunner interface {
	RunFunctional(ctx context.Context, page schema.PageID) ([]byte, error)
}

// PerformanceRunner audits a page URL and writes the audit document to outputPath.
type PerformanceRunner interface {
	RunPerformance(ctx context.Context, page schema.PageID, url string, outputPath string) error
}

// ReportStore persists merged reports and the upstream documents they came from.
type ReportStore interface {
	// ReportPath is where the merged report for a page lives.
	ReportPath(page schema.PageID) string

	// FunctionalPath is where the functional document for a page is kept.
	FunctionalPath(page schema.PageID) string

	// PerformancePath is where the performance audit for a page is written.
	PerformancePath(page schema.PageID) string

	// SaveReport writes the report atomically and returns its path.
	SaveReport(report schema.MergedReport) (string, error)

	// LoadReport reads the persisted report for a page.
	LoadReport(page schema.PageID) (schema.MergedReport, error)

	// SaveDocument writes an upstream document atomically.
	SaveDocument(path string, data []byte) error
}

// HistoryManager gives access to the configured history store.
// This allows the history layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore records every gated run.
type HistoryStore interface {
	// RecordRun stores one run
	RecordRun(record schema.RunRecord) error

	// ListRuns returns the most recent runs first. An empty page means all pages.
	ListRuns(page schema.PageID, limit int) ([]schema.RunRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}

// Publisher uploads a persisted report to a remote location.
type Publisher interface {
	// Publish uploads data under key and returns the remote URI.
	Publish(ctx context.Context, key string, data []byte) (string, error)
	Close() error
}

// OutputWriter renders command results in the configured output format.
type OutputWriter interface {
	WriteRunResult(result *schema.RunResult, cfg *Config) error
	WriteCheckResult(report schema.MergedReport, reportPath string, verdict schema.GateVerdict, cfg *Config) error
	WriteSummary(summary schema.PerformanceSummary, report schema.MergedReport, cfg *Config) error
	WriteHistory(records []schema.RunRecord, cfg *Config) error
}
