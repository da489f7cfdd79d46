package core

import (
	"testing"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportWith(t *testing.T, functional, performance string) schema.MergedReport {
	t.Helper()
	perf := schema.MissingPerformanceResult()
	if performance != "" {
		perf = mustPerformance(t, performance)
	}
	return fixedMerger().Merge(schema.LoginPage, mustFunctional(t, functional), perf, nil)
}

func TestEvaluateThresholds(t *testing.T) {
	passing := `{"status":"success","a":true}`
	failing := `{"status":"failed","a":false}`
	failedNoChecks := `{"status":"failed","error":"crash"}`

	tests := []struct {
		name       string
		functional string
		perf       string
		cfg        schema.ThresholdConfig
		passed     bool
		reason     string
	}{
		{"exactly at threshold", passing, `{"categories":{"performance":{"score":0.8}}}`, schema.DefaultThresholdConfig(), true, schema.ReasonMeetsThreshold},
		{"float noise at threshold", passing, `{"categories":{"performance":{"score":0.29}}}`, schema.ThresholdConfig{PerformanceThresholdPercent: 29, RequireFunctionalPass: true}, true, schema.ReasonMeetsThreshold},
		{"just below", passing, `{"categories":{"performance":{"score":0.79}}}`, schema.DefaultThresholdConfig(), false, schema.ReasonBelowThreshold},
		{"zero score is a score", passing, `{"categories":{"performance":{"score":0}}}`, schema.DefaultThresholdConfig(), false, schema.ReasonBelowThreshold},
		{"functional not required", failing, `{"categories":{"performance":{"score":0.9}}}`, schema.ThresholdConfig{PerformanceThresholdPercent: 80}, true, schema.ReasonMeetsThreshold},
		{"functional gates first", failing, `{"categories":{"performance":{"score":0.1}}}`, schema.DefaultThresholdConfig(), false, schema.ReasonFunctionalFailed},
		{"failed status without checks passes by default", failedNoChecks, "", schema.DefaultThresholdConfig(), true, schema.ReasonNoPerformanceScore},
		{"failed status with success required", failedNoChecks, "", schema.ThresholdConfig{PerformanceThresholdPercent: 80, RequireFunctionalPass: true, RequireSuccessStatus: true}, false, schema.ReasonStatusNotSuccess},
		{"zero threshold", passing, `{"categories":{"performance":{"score":0}}}`, schema.ThresholdConfig{RequireFunctionalPass: true}, true, schema.ReasonMeetsThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := EvaluateThresholds(reportWith(t, tt.functional, tt.perf), tt.cfg)
			assert.Equal(t, tt.passed, verdict.Passed)
			assert.Equal(t, tt.reason, verdict.Reason)
			assert.Equal(t, tt.cfg.PerformanceThresholdPercent, verdict.Threshold)
			assert.NotNil(t, verdict.FailedChecks)
		})
	}
}

func TestGateEvaluator_Rules(t *testing.T) {
	report := reportWith(t, `{"status":"success","page":"login","usernameFieldVisible":true}`, `{"categories":{"performance":{"score":0.85}}}`)

	tests := []struct {
		name   string
		rules  []string
		passed bool
		failed string
	}{
		{"no rules", nil, true, ""},
		{"all hold", []string{`report.page == "login"`, `report.performanceScore >= 0.8`}, true, ""},
		{"first false rule", []string{`report.page == "login"`, `report.performanceScore >= 0.9`}, false, `report.performanceScore >= 0.9`},
		{"check by name", []string{`report.functional.usernameFieldVisible == true`}, true, ""},
		{"missing field errors", []string{`report.functional.passwordFieldVisible == true`}, false, `report.functional.passwordFieldVisible == true`},
		{"non-bool result", []string{`report.page`}, false, `report.page`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := schema.DefaultThresholdConfig()
			cfg.Rules = tt.rules
			gate, err := NewGateEvaluator(cfg)
			require.NoError(t, err)

			verdict := gate.Evaluate(report)
			assert.Equal(t, tt.passed, verdict.Passed)
			assert.Equal(t, tt.failed, verdict.FailedRule)
			if !tt.passed {
				assert.Equal(t, schema.ReasonPolicyRuleFailed, verdict.Reason)
			}
		})
	}
}

func TestGateEvaluator_RulesSkippedWhenAlreadyFailing(t *testing.T) {
	cfg := schema.DefaultThresholdConfig()
	cfg.Rules = []string{`false`}
	gate, err := NewGateEvaluator(cfg)
	require.NoError(t, err)

	verdict := gate.Evaluate(reportWith(t, `{"status":"failed","a":false}`, ""))
	assert.Equal(t, schema.ReasonFunctionalFailed, verdict.Reason)
	assert.Empty(t, verdict.FailedRule)
}

func TestNewGateEvaluator_InvalidRule(t *testing.T) {
	cfg := schema.DefaultThresholdConfig()
	cfg.Rules = []string{`report.page ==`}
	_, err := NewGateEvaluator(cfg)
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindConfig))
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 29.0, ScorePercent(0.29))
	assert.Equal(t, 95.0, ScorePercent(0.95))
	assert.Equal(t, 12.3456, ScorePercent(0.123456))
	assert.Less(t, ScorePercent(0.7999999999), 80.0)
}

func TestEvaluateThresholds_JustBelowThreshold(t *testing.T) {
	score := 0.7999999999
	report := schema.MergedReport{
		Page:             schema.LoginPage,
		Functional:       schema.NewFunctionalResult(schema.StatusSuccess),
		Performance:      schema.MissingPerformanceResult(),
		FunctionalScore:  1,
		FunctionalPassed: true,
		PerformanceScore: &score,
	}
	verdict := EvaluateThresholds(report, schema.DefaultThresholdConfig())
	assert.False(t, verdict.Passed)
	assert.Equal(t, schema.ReasonBelowThreshold, verdict.Reason)

	score = 0.8
	verdict = EvaluateThresholds(report, schema.DefaultThresholdConfig())
	assert.True(t, verdict.Passed)
	assert.Equal(t, schema.ReasonMeetsThreshold, verdict.Reason)
}
