package core

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/outwriter"
	"github.com/huangsam/pagegate/schema"
)

// resultWriter renders every result printed by the Execute functions.
var resultWriter contract.OutputWriter = outwriter.NewOutWriter()

// ExecuteRun runs both collaborators for the configured page, merges and persists
// the report, applies the gate and prints the verdict. A failing gate is returned
// as a gate-failure error so the caller can exit non-zero.
func ExecuteRun(ctx context.Context, cfg *contract.Config, deps Deps) (*schema.RunResult, error) {
	result, err := GetRunResult(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}
	return result, printAndGate(result, cfg)
}

// ExecuteMerge merges persisted documents without running any collaborator.
func ExecuteMerge(ctx context.Context, cfg *contract.Config, deps Deps) (*schema.RunResult, error) {
	result, err := GetMergeResult(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}
	return result, printAndGate(result, cfg)
}

// GetRunResult performs a full run without printing the verdict.
func GetRunResult(ctx context.Context, cfg *contract.Config, deps Deps) (*schema.RunResult, error) {
	logProgress(ctx, "🚀 Starting execution for PAGE=%s", cfg.Page)
	b := NewRunBuilder(ctx, cfg, deps)
	if _, err := b.ValidatePrerequisites(); err != nil {
		return nil, err
	}
	if _, err := b.RunCollaborators(); err != nil {
		return nil, err
	}
	return finishRun(b.LoadResults())
}

// GetMergeResult merges persisted documents without printing the verdict.
func GetMergeResult(ctx context.Context, cfg *contract.Config, deps Deps) (*schema.RunResult, error) {
	b := NewRunBuilder(ctx, cfg, deps)
	if _, err := b.ValidatePrerequisites(); err != nil {
		return nil, err
	}
	b.UseFiles(cfg.FunctionalFile, cfg.PerformanceFile)
	return finishRun(b.LoadResults())
}

// finishRun is the shared tail of run and merge.
func finishRun(b *RunBuilder) (*schema.RunResult, error) {
	if _, err := b.MergeAndPersist(); err != nil {
		return nil, err
	}
	return b.Evaluate().RecordHistory().Publish().GetResult(), nil
}

// printAndGate prints the result and turns a failed verdict into a gate-failure error.
func printAndGate(result *schema.RunResult, cfg *contract.Config) error {
	if err := resultWriter.WriteRunResult(result, cfg); err != nil {
		return err
	}
	if !result.Verdict.Passed {
		return contract.GateFailure(result.Verdict)
	}
	return nil
}

// logProgress prints a progress line to stderr so stdout stays machine-readable.
func logProgress(ctx context.Context, format string, args ...any) {
	if shouldQuietProgress(ctx) {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}
