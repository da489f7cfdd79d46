// Package collab runs the external functional and performance collaborators
// as local processes.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
)

// Command template placeholders.
const (
	PagePlaceholder   = "{page}"
	URLPlaceholder    = "{url}"
	OutputPlaceholder = "{output}"
)

// ExecRunner implements FunctionalRunner and PerformanceRunner by executing
// command templates such as "node run-{page}-checks.js".
type ExecRunner struct {
	FunctionalCommand  string
	PerformanceCommand string
	Dir                string // working directory, empty means the current one
}

var (
	_ contract.FunctionalRunner  = &ExecRunner{} // Compile-time check
	_ contract.PerformanceRunner = &ExecRunner{} // Compile-time check
)

// NewExecRunner creates a runner from the configured command templates.
func NewExecRunner(functionalCommand, performanceCommand string) *ExecRunner {
	return &ExecRunner{
		FunctionalCommand:  functionalCommand,
		PerformanceCommand: performanceCommand,
	}
}

// RunFunctional runs the functional command and returns the JSON document it printed.
// A failing test usually exits non-zero while still printing its result, so the
// document wins over the exit status when one is found.
func (r *ExecRunner) RunFunctional(ctx context.Context, page schema.PageID) ([]byte, error) {
	args, err := ExpandCommand(r.FunctionalCommand, map[string]string{PagePlaceholder: string(page)})
	if err != nil {
		return nil, err
	}
	out, runErr := r.run(ctx, args)
	if doc := ExtractJSONDocument(out); doc != nil {
		return doc, nil
	}
	if runErr != nil {
		return nil, runErr
	}
	return nil, fmt.Errorf("functional command %q printed no JSON document", args[0])
}

// RunPerformance runs the performance command, which writes its report to outputPath.
func (r *ExecRunner) RunPerformance(ctx context.Context, page schema.PageID, url string, outputPath string) error {
	args, err := ExpandCommand(r.PerformanceCommand, map[string]string{
		PagePlaceholder:   string(page),
		URLPlaceholder:    url,
		OutputPlaceholder: outputPath,
	})
	if err != nil {
		return err
	}
	_, err = r.run(ctx, args)
	return err
}

// run executes args and returns stdout.
func (r *ExecRunner) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return out, fmt.Errorf("command %q failed with exit code %d: %s", args[0], exitErr.ExitCode(), stderr)
	} else if err != nil {
		return out, fmt.Errorf("command %q failed: %w. Ensure it is installed and available on your PATH", args[0], err)
	}
	return out, nil
}

// ExpandCommand splits a command template into arguments and substitutes placeholders.
func ExpandCommand(template string, values map[string]string) ([]string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, contract.Configf("empty command template")
	}
	args := make([]string, len(fields))
	for i, f := range fields {
		for placeholder, value := range values {
			f = strings.ReplaceAll(f, placeholder, value)
		}
		args[i] = f
	}
	return args, nil
}

// ExtractJSONDocument returns the JSON object in out. The whole output is tried
// first, then each line from the bottom up, since collaborators log progress too.
func ExtractJSONDocument(out []byte) []byte {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' && json.Valid(trimmed) {
		return trimmed
	}
	lines := bytes.Split(trimmed, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' && json.Valid(line) {
			return line
		}
	}
	return nil
}
