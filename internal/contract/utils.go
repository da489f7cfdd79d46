package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/pagegate/schema"
)

// Color variables for console output.
var (
	PassColor = color.New(color.FgGreen, color.Bold) // PassColor marks a passing score or verdict.
	WarnColor = color.New(color.FgYellow)            // WarnColor marks a score that needs attention.
	FailColor = color.New(color.FgRed, color.Bold)   // FailColor marks a failing score or verdict.
	InfoColor = color.New(color.FgCyan)              // InfoColor marks neutral information.
)

// GetPlainLabel returns the status label for a 0-100 score.
func GetPlainLabel(score float64) string {
	return string(schema.LabelForScore(score))
}

// GetColorLabel returns a colored status label for console output (table).
func GetColorLabel(score float64) string {
	return ColorizeLabel(schema.LabelForScore(score))
}

// ColorizeLabel applies the label's color.
func ColorizeLabel(label schema.StatusLabel) string {
	switch label {
	case schema.PassLabel:
		return PassColor.Sprint(label)
	case schema.WarnLabel:
		return WarnColor.Sprint(label)
	default:
		return FailColor.Sprint(label)
	}
}

// VerdictLabel returns PASS or FAIL for a verdict, colored when requested.
func VerdictLabel(passed bool, useColors bool) string {
	label := schema.FailLabel
	if passed {
		label = schema.PassLabel
	}
	if !useColors {
		return string(label)
	}
	return ColorizeLabel(label)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program with the error's exit code.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(max(ExitCodeFor(err), 1))
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pagegate_history.db"
	}
	return filepath.Join(homeDir, ".pagegate_history.db")
}

// ParseBoolString parses a string into a boolean value.
// Accepts: yes/no, true/false, 1/0 (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// FormatScore renders an optional 0-1 score as a percentage.
func FormatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", *score*100)
}
