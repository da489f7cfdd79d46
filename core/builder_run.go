package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/reportstore"
	"github.com/huangsam/pagegate/schema"
)

// Deps are the collaborators and stores a run works with.
// History and Publisher are optional.
type Deps struct {
	Functional  contract.FunctionalRunner
	Performance contract.PerformanceRunner
	Store       contract.ReportStore
	History     contract.HistoryStore
	Publisher   contract.Publisher
	Merger      *ReportMerger
}

// RunBuilder drives one gated run using a builder pattern.
type RunBuilder struct {
	ctx  context.Context
	cfg  *contract.Config
	deps Deps
	page schema.PageID

	gate           *GateEvaluator
	functionalSrc  Source
	performanceSrc Source
	functional     schema.FunctionalResult
	performance    schema.PerformanceResult
	loadErrors     []schema.LoadError
	result         *schema.RunResult
}

// NewRunBuilder creates a new builder for a run.
func NewRunBuilder(ctx context.Context, cfg *contract.Config, deps Deps) *RunBuilder {
	if deps.Merger == nil {
		deps.Merger = NewReportMerger()
	}
	return &RunBuilder{ctx: ctx, cfg: cfg, deps: deps, page: cfg.Page}
}

// ValidatePrerequisites checks the page selection and compiles the gate policy.
// Nothing has been written when this fails.
func (b *RunBuilder) ValidatePrerequisites() (*RunBuilder, error) {
	if err := b.cfg.RequirePage(); err != nil {
		return nil, err
	}
	if b.deps.Store == nil {
		return nil, errors.New("no report store configured")
	}
	gate, err := NewGateEvaluator(b.cfg.Thresholds)
	if err != nil {
		return nil, err
	}
	b.gate = gate
	return b, nil
}

// RunCollaborators runs the functional check and then the performance audit.
// They run strictly one after the other since both drive a browser against the same page.
// Collaborator failures are not fatal; they surface as missing results.
func (b *RunBuilder) RunCollaborators() (*RunBuilder, error) {
	if b.deps.Functional == nil || b.deps.Performance == nil {
		return nil, errors.New("run requires both a functional and a performance collaborator")
	}
	store := b.deps.Store

	logProgress(b.ctx, "🧪 Running functional checks for page: %s", b.page)
	doc, err := b.deps.Functional.RunFunctional(b.ctx, b.page)
	if err != nil {
		contract.LogWarn("functional collaborator failed", err)
		b.functionalSrc = FailedSource(err)
	} else {
		b.functionalSrc = FromBytes(doc)
		if err := store.SaveDocument(store.FunctionalPath(b.page), doc); err != nil {
			contract.LogWarn("could not keep functional document", err)
		}
	}

	perfPath := store.PerformancePath(b.page)
	// A report left over from an earlier run must not be mistaken for this one.
	if err := os.Remove(perfPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, contract.WrapStorage(err, "failed to clear previous performance report")
	}
	if err := os.MkdirAll(filepath.Dir(perfPath), 0o755); err != nil {
		return nil, contract.WrapStorage(err, "failed to create output directory")
	}

	url := b.cfg.URLFor(b.page)
	logProgress(b.ctx, "💡 Running performance audit for %s", url)
	if err := b.deps.Performance.RunPerformance(b.ctx, b.page, url, perfPath); err != nil {
		contract.LogWarn("performance collaborator failed", err)
	}
	b.performanceSrc = FromFile(perfPath)
	return b, nil
}

// UseFiles selects persisted documents instead of running the collaborators.
// Empty paths fall back to the store's standard locations for the page.
func (b *RunBuilder) UseFiles(functionalPath, performancePath string) *RunBuilder {
	if functionalPath == "" {
		functionalPath = b.deps.Store.FunctionalPath(b.page)
	}
	if performancePath == "" {
		performancePath = b.deps.Store.PerformancePath(b.page)
	}
	b.functionalSrc = FromFile(functionalPath)
	b.performanceSrc = FromFile(performancePath)
	return b
}

// LoadResults reads both documents, substituting sentinels for anything unusable.
func (b *RunBuilder) LoadResults() *RunBuilder {
	loader := NewResultLoader(b.cfg.ValidateDocuments, b.cfg.DeclaredChecks)
	b.functional, b.performance, b.loadErrors = loader.Load(b.page, b.functionalSrc, b.performanceSrc)
	for _, le := range b.loadErrors {
		if le.Kind == schema.ParseErrorKind {
			contract.LogWarn("unusable "+le.Source+" result", le)
		} else {
			logProgress(b.ctx, "⚠️  No %s result: %s", le.Source, le.Detail)
		}
	}
	return b
}

// MergeAndPersist builds the report and writes it. A write failure aborts the run.
func (b *RunBuilder) MergeAndPersist() (*RunBuilder, error) {
	logProgress(b.ctx, "🔄 Merging reports for: %s", b.page)
	report, path, err := b.deps.Merger.MergeAndSave(b.deps.Store, b.page, b.functional, b.performance, b.loadErrors)
	if err != nil {
		return nil, err
	}
	digest, err := reportstore.Digest(report)
	if err != nil {
		contract.LogWarn("could not digest report", err)
	}
	logProgress(b.ctx, "✅ Combined report saved → %s", path)
	b.result = &schema.RunResult{Report: report, ReportPath: path, ReportDigest: digest}
	return b, nil
}

// Evaluate applies the gate to the persisted report.
func (b *RunBuilder) Evaluate() *RunBuilder {
	b.result.Verdict = b.gate.Evaluate(b.result.Report)
	return b
}

// RecordHistory stores the run when a history store is configured.
func (b *RunBuilder) RecordHistory() *RunBuilder {
	if b.deps.History == nil {
		return b
	}
	record := schema.NewRunRecord(b.result.Report, b.result.Verdict, b.result.ReportPath, b.result.ReportDigest)
	if err := b.deps.History.RecordRun(record); err != nil {
		contract.LogWarn("could not record run history", err)
	}
	return b
}

// Publish uploads the report when a publisher is configured. The local file stays
// the source of truth, so upload failures only warn.
func (b *RunBuilder) Publish() *RunBuilder {
	if b.deps.Publisher == nil {
		return b
	}
	data, err := reportstore.MarshalReport(b.result.Report)
	if err != nil {
		contract.LogWarn("could not encode report for upload", err)
		return b
	}
	uri, err := b.deps.Publisher.Publish(b.ctx, PublishKey(b.result.Report), data)
	if err != nil {
		contract.LogWarn("could not publish report", err)
		return b
	}
	logProgress(b.ctx, "☁️  Report published → %s", uri)
	b.result.PublishedURI = uri
	return b
}

// GetResult returns the built RunResult.
func (b *RunBuilder) GetResult() *schema.RunResult {
	return b.result
}

// PublishKey is the object key a report is uploaded under, relative to the publish prefix.
func PublishKey(report schema.MergedReport) string {
	return fmt.Sprintf("%s/%s.json", report.Page, report.RunID)
}
