//go:build basic

// Package integration contains integration tests for pagegate.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMergeAndCheck merges fixture documents and re-checks the persisted report.
func TestMergeAndCheck(t *testing.T) {
	dir := t.TempDir()
	writeUpstream(t, dir, "login", 0.92)

	_, code := runPagegate(t, dir, nil, "merge", "--page", "login")
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(dir, "lighthouse", "merged-report-login.json"))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "login", report["page"])
	assert.Equal(t, true, report["functionalPassed"])
	assert.InDelta(t, 0.92, report["performanceScore"], 1e-9)

	// Same report, stricter budget
	_, code = runPagegate(t, dir, nil, "check", "--page", "login", "--threshold", "95")
	assert.Equal(t, 1, code)

	out, code := runPagegate(t, dir, nil, "check", "--page", "login", "--output", "json")
	require.Equal(t, 0, code)
	var verdict map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.Contains(t, out, "performance meets threshold")
}

// TestPageFromEnvironment selects the page through $PAGE.
func TestPageFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeUpstream(t, dir, "home", 0.5)

	_, code := runPagegate(t, dir, []string{"PAGE=home"}, "merge")
	assert.Equal(t, 1, code, "50% is below the default 80% threshold")
	assert.FileExists(t, filepath.Join(dir, "lighthouse", "merged-report-home.json"))
}

// TestConfigurationErrors checks the exit code for invalid input.
func TestConfigurationErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"no page", []string{"merge"}},
		{"unknown page", []string{"merge", "--page", "checkout"}},
		{"bad threshold", []string{"merge", "--page", "login", "--threshold", "120"}},
		{"unknown flag", []string{"merge", "--page", "login", "--nope"}},
		{"bad publish target", []string{"run", "--page", "login", "--publish", "ftp://bucket"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := runPagegate(t, dir, nil, tt.args...)
			assert.Equal(t, 2, code)
		})
	}
}

// TestMissingDocumentsStillProduceReport merges with nothing on disk.
// Without a score or any checks the default policy has nothing to fail on.
func TestMissingDocumentsStillProduceReport(t *testing.T) {
	dir := t.TempDir()

	_, code := runPagegate(t, dir, nil, "merge", "--page", "login")
	assert.Equal(t, 0, code)

	_, code = runPagegate(t, dir, nil, "merge", "--page", "login", "--require-success-status")
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(filepath.Join(dir, "lighthouse", "merged-report-login.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "missing"`)
}

// TestSqliteHistory records runs into a SQLite file and lists them.
func TestSqliteHistory(t *testing.T) {
	dir := t.TempDir()
	writeUpstream(t, dir, "login", 0.9)
	dbPath := filepath.Join(dir, "history.db")
	env := []string{"PAGEGATE_HISTORY_BACKEND=sqlite", "PAGEGATE_HISTORY_DB_CONNECT=" + dbPath}

	for range 2 {
		_, code := runPagegate(t, dir, env, "merge", "--page", "login")
		require.Equal(t, 0, code)
	}

	out, code := runPagegate(t, dir, env, "history", "list", "--output", "json")
	require.Equal(t, 0, code)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 2)

	out, code = runPagegate(t, dir, env, "history", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Total Runs: 2")

	_, code = runPagegate(t, dir, env, "history", "clear")
	require.Equal(t, 0, code)
	assert.NoFileExists(t, dbPath)
}
