package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/reportstore"
	"github.com/huangsam/pagegate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFunctional struct {
	doc   []byte
	err   error
	trace *[]string
}

func (f *fakeFunctional) RunFunctional(_ context.Context, page schema.PageID) ([]byte, error) {
	*f.trace = append(*f.trace, "functional:"+string(page))
	return f.doc, f.err
}

type fakePerformance struct {
	doc   []byte
	err   error
	trace *[]string
	url   string
}

func (p *fakePerformance) RunPerformance(_ context.Context, page schema.PageID, url string, outputPath string) error {
	*p.trace = append(*p.trace, "performance:"+string(page))
	p.url = url
	if p.doc != nil {
		if err := os.WriteFile(outputPath, p.doc, 0o644); err != nil {
			return err
		}
	}
	return p.err
}

type fakeHistory struct {
	records []schema.RunRecord
	err     error
}

func (h *fakeHistory) RecordRun(record schema.RunRecord) error {
	h.records = append(h.records, record)
	return h.err
}

func (h *fakeHistory) ListRuns(_ schema.PageID, _ int) ([]schema.RunRecord, error) {
	return h.records, nil
}

func (h *fakeHistory) GetStatus() (schema.HistoryStatus, error) {
	return schema.HistoryStatus{Backend: "fake", Connected: true, TotalRuns: len(h.records)}, nil
}

func (h *fakeHistory) Close() error { return nil }

type fakePublisher struct {
	keys []string
	data [][]byte
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, data []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.keys = append(p.keys, key)
	p.data = append(p.data, data)
	return "s3://bucket/reports/" + key, nil
}

func (p *fakePublisher) Close() error { return nil }

func runConfig(t *testing.T, page schema.PageID) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	return &contract.Config{
		Page:              page,
		OutputDir:         filepath.Join(dir, "lighthouse"),
		Layout:            schema.PerPageLayout,
		Output:            schema.TextOut,
		OutputFile:        filepath.Join(dir, "stdout.txt"),
		Thresholds:        schema.DefaultThresholdConfig(),
		MinPassScore:      schema.DefaultMinPassScore,
		PageURLs:          map[schema.PageID]string{schema.LoginPage: "https://example.test/login/"},
		ValidateDocuments: true,
		HistoryBackend:    schema.NoneBackend,
	}
}

func storeFor(cfg *contract.Config) *reportstore.FileStore {
	return reportstore.NewFileStore(cfg.OutputDir, cfg.Layout, cfg.ValidateDocuments)
}

func TestExecuteRun_Passes(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	var trace []string
	perf := &fakePerformance{doc: []byte(`{"categories":{"performance":{"score":0.95}}}`), trace: &trace}
	history := &fakeHistory{}
	publisher := &fakePublisher{}
	store := storeFor(cfg)

	result, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{doc: []byte(`{"status":"success","usernameFieldVisible":true,"passwordFieldVisible":true}`), trace: &trace},
		Performance: perf,
		Store:       store,
		History:     history,
		Publisher:   publisher,
		Merger:      fixedMerger(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"functional:login", "performance:login"}, trace)
	assert.Equal(t, "https://example.test/login/", perf.url)
	assert.True(t, result.Verdict.Passed)
	assert.Equal(t, schema.ReasonMeetsThreshold, result.Verdict.Reason)
	assert.Equal(t, store.ReportPath(schema.LoginPage), result.ReportPath)
	assert.Contains(t, result.ReportDigest, "sha256:")

	persisted, err := store.LoadReport(schema.LoginPage)
	require.NoError(t, err)
	assert.Equal(t, "run-1", persisted.RunID)
	assert.Empty(t, persisted.LoadErrors)

	_, err = os.Stat(store.FunctionalPath(schema.LoginPage))
	assert.NoError(t, err, "functional document should be kept")

	require.Len(t, history.records, 1)
	assert.Equal(t, result.ReportDigest, history.records[0].ReportDigest)
	assert.True(t, history.records[0].Passed)

	assert.Equal(t, []string{"login/run-1.json"}, publisher.keys)
	assert.Equal(t, "s3://bucket/reports/login/run-1.json", result.PublishedURI)

	out, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "PASS: performance meets threshold")
}

func TestExecuteRun_GateFailureStillPersists(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	var trace []string
	store := storeFor(cfg)

	result, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{doc: []byte(`{"status":"success","usernameFieldVisible":true}`), trace: &trace},
		Performance: &fakePerformance{doc: []byte(`{"categories":{"performance":{"score":0.5}}}`), trace: &trace},
		Store:       store,
		Merger:      fixedMerger(),
	})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindGateFailure))
	assert.Equal(t, schema.ExitGateFailed, contract.ExitCodeFor(err))
	assert.Equal(t, schema.ReasonBelowThreshold, result.Verdict.Reason)

	_, err = store.LoadReport(schema.LoginPage)
	assert.NoError(t, err)
}

func TestExecuteRun_CollaboratorFailures(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	var trace []string
	store := storeFor(cfg)

	// A report from an earlier run must not be picked up.
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(store.PerformancePath(schema.LoginPage), []byte(`{"categories":{"performance":{"score":0.1}}}`), 0o644))

	result, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{err: errors.New("chromedriver crashed"), trace: &trace},
		Performance: &fakePerformance{err: errors.New("lighthouse crashed"), trace: &trace},
		Store:       store,
		Merger:      fixedMerger(),
	})
	require.NoError(t, err)

	report := result.Report
	assert.True(t, report.Functional.IsMissing())
	assert.True(t, report.Performance.IsMissing())
	require.Len(t, report.LoadErrors, 2)
	assert.Equal(t, "chromedriver crashed", report.LoadErrors[0].Detail)
	assert.Equal(t, schema.SourceMissingKind, report.LoadErrors[1].Kind)
	assert.Equal(t, schema.ReasonNoPerformanceScore, result.Verdict.Reason)
}

func TestExecuteRun_NoPageWritesNothing(t *testing.T) {
	cfg := runConfig(t, "")
	var trace []string
	_, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{trace: &trace},
		Performance: &fakePerformance{trace: &trace},
		Store:       storeFor(cfg),
	})
	require.Error(t, err)
	assert.Equal(t, schema.ExitConfigError, contract.ExitCodeFor(err))
	assert.Empty(t, trace)

	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteRun_InvalidRule(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	cfg.Thresholds.Rules = []string{"report.page =="}
	var trace []string
	_, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{trace: &trace},
		Performance: &fakePerformance{trace: &trace},
		Store:       storeFor(cfg),
	})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindConfig))
	assert.Empty(t, trace)
}

func TestExecuteRun_StorageError(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.OutputDir = filepath.Join(blocker, "lighthouse")

	var trace []string
	_, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{doc: []byte(`{"status":"success"}`), trace: &trace},
		Performance: &fakePerformance{trace: &trace},
		Store:       storeFor(cfg),
	})
	require.Error(t, err)
	assert.Equal(t, schema.ExitStorageError, contract.ExitCodeFor(err))
}

func TestExecuteRun_PublishFailureOnlyWarns(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	var trace []string
	result, err := ExecuteRun(context.Background(), cfg, Deps{
		Functional:  &fakeFunctional{doc: []byte(`{"status":"success"}`), trace: &trace},
		Performance: &fakePerformance{trace: &trace},
		Store:       storeFor(cfg),
		History:     &fakeHistory{err: errors.New("db down")},
		Publisher:   &fakePublisher{err: errors.New("access denied")},
	})
	require.NoError(t, err)
	assert.Empty(t, result.PublishedURI)
}

func TestExecuteMerge(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	store := storeFor(cfg)
	require.NoError(t, store.SaveDocument(store.FunctionalPath(schema.LoginPage), []byte(`{"status":"failed","usernameFieldVisible":false}`)))

	result, err := ExecuteMerge(context.Background(), cfg, Deps{Store: store, Merger: fixedMerger()})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindGateFailure))
	assert.Equal(t, schema.ReasonFunctionalFailed, result.Verdict.Reason)
	assert.Equal(t, []string{"usernameFieldVisible"}, result.Verdict.FailedChecks)
	require.Len(t, result.Report.LoadErrors, 1)
	assert.Equal(t, PerformanceSourceName, result.Report.LoadErrors[0].Source)

	// Explicit paths win over the standard locations.
	other := filepath.Join(t.TempDir(), "func.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"status":"success","usernameFieldVisible":true}`), 0o644))
	cfg.FunctionalFile = other
	result, err = ExecuteMerge(context.Background(), cfg, Deps{Store: store, Merger: fixedMerger()})
	require.NoError(t, err)
	assert.True(t, result.Verdict.Passed)
}

func TestExecuteCheckAndSummary(t *testing.T) {
	cfg := runConfig(t, schema.LoginPage)
	store := storeFor(cfg)
	report := fixedMerger().Merge(schema.LoginPage,
		mustFunctional(t, `{"status":"success","usernameFieldVisible":true}`),
		mustPerformance(t, lighthouseFixture), nil)
	_, err := store.SaveReport(report)
	require.NoError(t, err)

	verdict, err := ExecuteCheck(context.Background(), cfg, store)
	require.NoError(t, err)
	assert.True(t, verdict.Passed)

	cfg.Thresholds.PerformanceThresholdPercent = 90
	verdict, err = ExecuteCheck(context.Background(), cfg, store)
	require.Error(t, err)
	assert.False(t, verdict.Passed)

	summary, err := ExecuteSummary(context.Background(), cfg, store)
	require.NoError(t, err)
	assert.Equal(t, 60, summary.ComputedPerformance)

	cfg.Page = ""
	cfg.ReportPath = store.ReportPath(schema.LoginPage)
	verdict, err = ExecuteCheck(context.Background(), cfg, store)
	require.Error(t, err)
	assert.Equal(t, schema.ReasonBelowThreshold, verdict.Reason)

	cfg.ReportPath = ""
	_, err = ExecuteCheck(context.Background(), cfg, store)
	assert.True(t, contract.IsKind(err, contract.KindConfig))
}

func TestExecuteCheck_MissingReport(t *testing.T) {
	cfg := runConfig(t, schema.HomePage)
	_, err := ExecuteCheck(context.Background(), cfg, storeFor(cfg))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
