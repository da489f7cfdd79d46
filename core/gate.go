package core

import (
	"math"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
)

// GateEvaluator applies a ThresholdConfig to merged reports.
type GateEvaluator struct {
	cfg   schema.ThresholdConfig
	rules *PolicyRules
}

// NewGateEvaluator compiles the configured rules. An invalid rule is a configuration error.
func NewGateEvaluator(cfg schema.ThresholdConfig) (*GateEvaluator, error) {
	rules, err := CompilePolicyRules(cfg.Rules)
	if err != nil {
		return nil, contract.WrapConfig(err, "invalid gate rule")
	}
	return &GateEvaluator{cfg: cfg, rules: rules}, nil
}

// Evaluate returns the verdict for a report.
func (g *GateEvaluator) Evaluate(report schema.MergedReport) schema.GateVerdict {
	verdict := EvaluateThresholds(report, g.cfg)
	if !verdict.Passed || g.rules.Len() == 0 {
		return verdict
	}
	failed, err := g.rules.FirstFailure(report)
	if err != nil {
		failed = err.Error()
	}
	if failed != "" {
		verdict.Passed = false
		verdict.Reason = schema.ReasonPolicyRuleFailed
		verdict.FailedRule = failed
	}
	return verdict
}

// EvaluateThresholds is the threshold policy without rules. Functional correctness
// is decided before performance is looked at.
func EvaluateThresholds(report schema.MergedReport, cfg schema.ThresholdConfig) schema.GateVerdict {
	verdict := schema.GateVerdict{
		Threshold:    cfg.PerformanceThresholdPercent,
		FailedChecks: append([]string{}, report.FailedChecks...),
	}
	var percent float64
	if report.PerformanceScore != nil {
		percent = ScorePercent(*report.PerformanceScore)
		verdict.ObservedValue = &percent
	}

	switch {
	case cfg.RequireFunctionalPass && !report.FunctionalPassed:
		verdict.Reason = schema.ReasonFunctionalFailed
	case cfg.RequireSuccessStatus && report.Functional.Status != schema.StatusSuccess:
		verdict.Reason = schema.ReasonStatusNotSuccess
	case report.PerformanceScore == nil:
		verdict.Passed = true
		verdict.Reason = schema.ReasonNoPerformanceScore
	case percent < cfg.PerformanceThresholdPercent:
		verdict.Reason = schema.ReasonBelowThreshold
	default:
		verdict.Passed = true
		verdict.Reason = schema.ReasonMeetsThreshold
	}
	return verdict
}

// ScorePercent converts a 0-1 score to a percentage, dropping float noise
// so that 0.29 becomes 29 rather than 28.999999999999996. Only digits past
// the ninth decimal of the percentage are rounded away.
func ScorePercent(score float64) float64 {
	return math.Round(score*1e11) / 1e9
}
