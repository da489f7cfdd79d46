package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/pagegate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func runRecord(id string, page schema.PageID, at time.Time, passed bool) schema.RunRecord {
	record := schema.RunRecord{
		RunID:            id,
		Page:             page,
		MergedAt:         at,
		FunctionalStatus: schema.StatusSuccess,
		FunctionalScore:  1,
		PerformanceScore: floatPtr(0.92),
		Passed:           passed,
		Reason:           schema.ReasonMeetsThreshold,
		Threshold:        80,
		FailedChecks:     []string{},
		ReportPath:       "lighthouse/merged-report-" + string(page) + ".json",
		ReportDigest:     "sha256:" + id,
	}
	if !passed {
		record.Reason = schema.ReasonFunctionalFailed
		record.FunctionalStatus = schema.StatusFailed
		record.FunctionalScore = 0
		record.PerformanceScore = nil
		record.FailedChecks = []string{"heroBannerVisible", "navVisible"}
	}
	return record
}

func newSQLiteStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.RecordRun(runRecord("a", schema.LoginPage, time.Now(), true)))

	runs, err := store.ListRuns("", 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore("oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}

func TestHistoryStore_SQLiteRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	at := time.Date(2024, 5, 1, 11, 30, 0, 123_000_000, time.UTC)

	failed := runRecord("run-2", schema.HomePage, at.Add(time.Minute), false)
	require.NoError(t, store.RecordRun(runRecord("run-1", schema.LoginPage, at, true)))
	require.NoError(t, store.RecordRun(failed))

	runs, err := store.ListRuns("", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, "run-1", runs[1].RunID)

	got := runs[0]
	assert.Equal(t, schema.HomePage, got.Page)
	assert.True(t, failed.MergedAt.Equal(got.MergedAt))
	assert.Equal(t, schema.StatusFailed, got.FunctionalStatus)
	assert.Nil(t, got.PerformanceScore)
	assert.False(t, got.Passed)
	assert.Equal(t, []string{"heroBannerVisible", "navVisible"}, got.FailedChecks)
	assert.Equal(t, "sha256:run-2", got.ReportDigest)

	require.NotNil(t, runs[1].PerformanceScore)
	assert.InDelta(t, 0.92, *runs[1].PerformanceScore, 1e-9)
	assert.Equal(t, []string{}, runs[1].FailedChecks)
}

func TestHistoryStore_ListRunsFiltersAndLimits(t *testing.T) {
	store := newSQLiteStore(t)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	// Sub-second ordering must hold even when fractional digits differ.
	require.NoError(t, store.RecordRun(runRecord("login-1", schema.LoginPage, base.Add(100*time.Millisecond), true)))
	require.NoError(t, store.RecordRun(runRecord("login-2", schema.LoginPage, base.Add(120*time.Millisecond), true)))
	require.NoError(t, store.RecordRun(runRecord("home-1", schema.HomePage, base.Add(time.Second), true)))

	loginRuns, err := store.ListRuns(schema.LoginPage, 10)
	require.NoError(t, err)
	require.Len(t, loginRuns, 2)
	assert.Equal(t, "login-2", loginRuns[0].RunID)

	limited, err := store.ListRuns("", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "home-1", limited[0].RunID)

	all, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "login-1", all[0].RunID)
}

func TestHistoryStore_DuplicateRunID(t *testing.T) {
	store := newSQLiteStore(t)
	record := runRecord("dup", schema.LoginPage, time.Now(), true)
	require.NoError(t, store.RecordRun(record))
	assert.Error(t, store.RecordRun(record))
}

func TestHistoryStore_GetStatus(t *testing.T) {
	store := newSQLiteStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(runRecord("a", schema.LoginPage, base, true)))
	require.NoError(t, store.RecordRun(runRecord("b", schema.LoginPage, base.Add(time.Hour), false)))
	require.NoError(t, store.RecordRun(runRecord("c", schema.HomePage, base.Add(2*time.Hour), true)))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, 2, status.PassedRuns)
	assert.Equal(t, 1, status.FailedRuns)
	assert.Equal(t, "c", status.LastRunID)
	assert.True(t, base.Add(2*time.Hour).Equal(status.LastRunTime))
	assert.True(t, base.Equal(status.OldestRunTime))
	assert.Equal(t, int64(3), status.TableSizes[runsTable])
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?", placeholders(schema.MySQLBackend, 2, 1))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 1, 3))
	assert.Equal(t, "$2", placeholders(schema.PostgreSQLBackend, 2, 1))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`pagegate_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"pagegate_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"pagegate_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))
}

func TestFormatTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 100_000_000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-05-01T11:30:00.100Z", formatTime(at, schema.SQLiteBackend))
	assert.Equal(t, at.UTC(), formatTime(at, schema.PostgreSQLBackend))
}
