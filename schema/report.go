package schema

import (
	"fmt"
	"time"
)

// Gate reasons.
const (
	ReasonFunctionalFailed   = "functional checks failed"
	ReasonStatusNotSuccess   = "functional status not success"
	ReasonBelowThreshold     = "performance below threshold"
	ReasonMeetsThreshold     = "performance meets threshold"
	ReasonNoPerformanceScore = "no performance score to evaluate"
	ReasonPolicyRuleFailed   = "policy rule failed"
)

// Default gate settings.
const (
	DefaultPerformanceThresholdPercent = 80.0
	DefaultMinPassScore                = 90
)

// LoadError records a source that could not be used while building a report.
type LoadError struct {
	Kind   LoadErrorKind `json:"kind"`
	Source string        `json:"source"`
	Path   string        `json:"path,omitempty"`
	Detail string        `json:"detail"`
}

// Error implements error.
func (e LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s (%s): %s", e.Source, e.Kind, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s %s: %s", e.Source, e.Kind, e.Detail)
}

// MergedReport is the canonical per-run report. It is written once and not mutated afterwards.
type MergedReport struct {
	RunID            string            `json:"runId,omitempty"`
	Page             PageID            `json:"page"`
	MergedAt         time.Time         `json:"mergedAt"`
	Functional       FunctionalResult  `json:"functional"`
	Performance      PerformanceResult `json:"performance"`
	FunctionalScore  int               `json:"functionalScore"`
	FunctionalPassed bool              `json:"functionalPassed"`
	FailedChecks     []string          `json:"failedChecks"`
	PerformanceScore *float64          `json:"performanceScore"`
	LoadErrors       []LoadError       `json:"loadErrors,omitempty"`
}

// FunctionalScore is the derived functional outcome of a result.
type FunctionalScore struct {
	Score        int
	Passed       bool
	FailedChecks []string
}

// ThresholdConfig is the gate policy.
type ThresholdConfig struct {
	PerformanceThresholdPercent float64  `json:"performanceThresholdPercent"`
	RequireFunctionalPass       bool     `json:"requireFunctionalPass"`
	RequireSuccessStatus        bool     `json:"requireSuccessStatus"`
	Rules                       []string `json:"rules,omitempty"`
}

// DefaultThresholdConfig returns the default gate policy.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		PerformanceThresholdPercent: DefaultPerformanceThresholdPercent,
		RequireFunctionalPass:       true,
	}
}

// GateVerdict is the outcome of evaluating a report against a ThresholdConfig.
type GateVerdict struct {
	Passed        bool     `json:"passed"`
	Reason        string   `json:"reason"`
	ObservedValue *float64 `json:"observedValue"`
	Threshold     float64  `json:"threshold"`
	FailedChecks  []string `json:"failedChecks"`
	FailedRule    string   `json:"failedRule,omitempty"`
}

// ExitCode maps the verdict to a process exit code.
func (v GateVerdict) ExitCode() int {
	if v.Passed {
		return ExitPass
	}
	return ExitGateFailed
}

// RunResult is everything a run or merge produced.
type RunResult struct {
	Report       MergedReport `json:"report"`
	ReportPath   string       `json:"reportPath"`
	ReportDigest string       `json:"reportDigest"`
	Verdict      GateVerdict  `json:"verdict"`
	PublishedURI string       `json:"publishedUri,omitempty"`
}
