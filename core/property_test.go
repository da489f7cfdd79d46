package core_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/pagegate/core"
	"github.com/huangsam/pagegate/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func functionalFrom(status schema.FunctionalStatus, checks map[string]bool) schema.FunctionalResult {
	f := schema.NewFunctionalResult(status)
	for name, ok := range checks {
		switch name {
		case "status", "page", "error":
			continue
		}
		f.Checks[name] = ok
	}
	return f
}

func checksGen() gopter.Gen {
	return gen.MapOf(gen.Identifier(), gen.Bool())
}

func statusGen() gopter.Gen {
	return gen.OneConstOf(schema.StatusSuccess, schema.StatusFailed, schema.StatusMissing)
}

// Property: functionalScore == 1 iff every check is true (vacuously for none).
func TestFunctionalScoreIffAllChecksTrue(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("score is 1 iff all checks pass", prop.ForAll(
		func(checks map[string]bool) bool {
			f := functionalFrom(schema.StatusSuccess, checks)
			allTrue := true
			for _, ok := range f.Checks {
				allTrue = allTrue && ok
			}
			got := core.ExtractFunctionalScore(f)
			return (got.Score == 1) == allTrue && got.Passed == allTrue && (len(got.FailedChecks) == 0) == allTrue
		},
		checksGen(),
	))

	properties.Property("extraction is idempotent", prop.ForAll(
		func(checks map[string]bool, score float64) bool {
			f := functionalFrom(schema.StatusSuccess, checks)
			p, err := schema.NewPerformanceResult([]byte(`{"categories":{"performance":{"score":` + jsonNumber(score) + `}}}`))
			if err != nil {
				return false
			}
			a, b := core.ExtractFunctionalScore(f), core.ExtractFunctionalScore(f)
			pa, pb := core.ExtractPerformanceScore(p), core.ExtractPerformanceScore(p)
			return a.Score == b.Score && len(a.FailedChecks) == len(b.FailedChecks) && *pa == *pb && *pa == score
		},
		checksGen(),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

// Property: a missing performance score never fails the gate on its own.
func TestMissingPerformanceNeverFails(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("null score is not a failure", prop.ForAll(
		func(status schema.FunctionalStatus, checks map[string]bool, threshold float64, requireFunctional bool) bool {
			f := functionalFrom(status, checks)
			report := core.NewReportMerger().Merge(schema.LoginPage, f, schema.MissingPerformanceResult(), nil)
			verdict := core.EvaluateThresholds(report, schema.ThresholdConfig{
				PerformanceThresholdPercent: threshold,
				RequireFunctionalPass:       requireFunctional,
			})
			if verdict.Reason == schema.ReasonBelowThreshold {
				return false
			}
			if !requireFunctional || report.FunctionalPassed {
				return verdict.Passed && verdict.Reason == schema.ReasonNoPerformanceScore
			}
			return !verdict.Passed && verdict.Reason == schema.ReasonFunctionalFailed
		},
		statusGen(),
		checksGen(),
		gen.Float64Range(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: merge is total and the report survives a JSON round trip.
func TestMergeTotalAndRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("merging sentinels always succeeds", prop.ForAll(
		func(page schema.PageID) bool {
			report := core.NewReportMerger().Merge(page, schema.MissingFunctionalResult(), schema.MissingPerformanceResult(), nil)
			return report.Functional.IsMissing() && report.Performance.IsMissing() && report.Page != "" &&
				report.MergedAt.Location() == time.UTC
		},
		gen.OneConstOf(schema.LoginPage, schema.HomePage, schema.PageID("")),
	))

	properties.Property("JSON round trip preserves every field", prop.ForAll(
		func(status schema.FunctionalStatus, checks map[string]bool, score float64, withPerf bool) bool {
			perf := schema.MissingPerformanceResult()
			if withPerf {
				var err error
				perf, err = schema.NewPerformanceResult([]byte(`{"categories":{"performance":{"score":` + jsonNumber(score) + `}}}`))
				if err != nil {
					return false
				}
			}
			report := core.NewReportMerger().Merge(schema.HomePage, functionalFrom(status, checks), perf, nil)

			data, err := json.Marshal(report)
			if err != nil {
				return false
			}
			var back schema.MergedReport
			if err := json.Unmarshal(data, &back); err != nil {
				return false
			}
			again, err := json.Marshal(back)
			if err != nil {
				return false
			}
			return string(data) == string(again) &&
				back.MergedAt.Equal(report.MergedAt) &&
				back.FunctionalScore == report.FunctionalScore &&
				back.Performance.IsMissing() == report.Performance.IsMissing()
		},
		statusGen(),
		checksGen(),
		gen.Float64Range(0, 1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func jsonNumber(v float64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
