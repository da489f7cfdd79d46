package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/pagegate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTime() time.Time {
	return time.Date(2024, 5, 1, 11, 30, 0, 123_000_000, time.UTC)
}

func resetManager() {
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &HistoryStoreManager{}
}

func TestInitHistory(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "history.db")

		require.NoError(t, InitHistory(schema.SQLiteBackend, dbPath))
		// Further calls are no-ops
		require.NoError(t, InitHistory(schema.SQLiteBackend, dbPath))

		store := Manager.GetHistoryStore()
		require.NotNil(t, store)
		require.NoError(t, store.RecordRun(runRecord("r1", schema.LoginPage, fixedTime(), true)))

		CloseHistory()
		CloseHistory()

		_, err := os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("none", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitHistory("", ""))
		store := Manager.GetHistoryStore()
		require.NotNil(t, store)
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "none", status.Backend)
		CloseHistory()
	})

	t.Run("concurrent", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "history.db")
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Go(func() { errs <- InitHistory(schema.SQLiteBackend, dbPath) })
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
		CloseHistory()
	})
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Missing file is fine
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearHistory("oracle", "", ""))
}

func TestExecuteHistoryExport(t *testing.T) {
	store := newSQLiteStore(t)
	var buf bytes.Buffer

	_, err := ExecuteHistoryExport(store, "", &buf)
	require.Error(t, err)

	_, err = ExecuteHistoryExport(store, filepath.Join(t.TempDir(), "out"), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run history")

	require.NoError(t, store.RecordRun(runRecord("r1", schema.LoginPage, fixedTime(), true)))
	require.NoError(t, store.RecordRun(runRecord("r2", schema.HomePage, fixedTime().Add(time.Minute), false)))

	out := filepath.Join(t.TempDir(), "history")
	path, err := ExecuteHistoryExport(store, out, &buf)
	require.NoError(t, err)
	assert.Equal(t, out+".runs.parquet", path)
	assert.Contains(t, buf.String(), "Exported 2 runs")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
