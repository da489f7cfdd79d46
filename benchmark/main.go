// Package main benchmarks the pagegate CLI on persisted upstream documents.
// It measures merge, check and summary for every page, once without run history
// and once with SQLite history, treating the first successful run of each phase
// as cold and averaging the rest as warm. Results are written as CSV.
//
// Prerequisites:
// - pagegate binary installed and available in PATH
// - A fixture directory holding functional-report-<page>.json and lh-report-<page>.json
//
// Usage: go run benchmark/main.go [fixture-dir]
//
//	fixture-dir: Directory containing the upstream documents
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Page          string
	Command       string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	FixtureDir    string
	Timeout       time.Duration
	NoHistoryRuns int
	HistoryRuns   int
	Pages         []string
	Commands      []string
	HistoryDB     string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [fixture-dir]\n", os.Args[0])
		os.Exit(1)
	}
	fixtureDir, err := filepath.Abs(os.Args[1])
	if err != nil {
		fmt.Printf("Invalid fixture dir: %v\n", err)
		os.Exit(1)
	}

	config := BenchmarkConfig{
		FixtureDir:    fixtureDir,
		Timeout:       time.Minute,
		NoHistoryRuns: 5,
		HistoryRuns:   6,
		Pages:         []string{"login", "home"},
		Commands:      []string{"merge", "check", "summary"},
		HistoryDB:     filepath.Join(os.TempDir(), "pagegate_benchmark_history.db"),
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Start from an empty history database
	fmt.Printf("Clearing history...\n")
	_ = os.Remove(config.HistoryDB)

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the pagegate binary and fixture documents exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("pagegate"); err != nil {
		return fmt.Errorf("pagegate binary not found in PATH")
	}

	for _, page := range config.Pages {
		for _, name := range []string{"functional-report-%s.json", "lh-report-%s.json"} {
			path := filepath.Join(config.FixtureDir, fmt.Sprintf(name, page))
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return fmt.Errorf("fixture for %s not found at %s", page, path)
			}
		}
	}

	return nil
}

// runBenchmarks executes every command for every configured page
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d pages, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.Pages), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, page := range config.Pages {
		fmt.Printf("Benchmarking %s\n", page)
		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, page, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-history and history benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, page, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, page)

	// Helper to run a benchmark phase
	runPhase := func(historyBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, page, command, historyBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")
	coldTime, warmAvg := runPhase("sqlite", config.HistoryRuns, "History")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Page:          page,
		Command:       command,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes a pagegate command multiple times and returns cold time and warm times.
// A failed gate (exit 1) still counts as a completed run.
func runBenchmark(config BenchmarkConfig, page, command, historyBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--page", page,
		"--output-dir", config.FixtureDir,
		"--history-backend", historyBackend,
		"--output", "json",
	}
	if historyBackend == "sqlite" {
		args = append(args, "--history-db-connect", config.HistoryDB)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("pagegate", args...)

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if isCompleted(err) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isCompleted reports whether the command finished with a verdict, passing or not
func isCompleted(err error) bool {
	if err == nil {
		return true
	}
	exitErr, ok := err.(*exec.ExitError)
	return ok && exitErr.ExitCode() == 1
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("pagegate_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"page", "cmd", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Page, result.Command, result.NoHistoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s: No-history: %s, Cold: %s, Warm: %s\n", result.Page, result.NoHistoryTime, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
