package core

import "github.com/huangsam/pagegate/schema"

// ExtractFunctionalScore derives the 0|1 functional score. Only the named boolean
// checks count; an empty check set passes.
func ExtractFunctionalScore(f schema.FunctionalResult) schema.FunctionalScore {
	failed := f.FailedChecks()
	passed := len(failed) == 0
	score := 0
	if passed {
		score = 1
	}
	return schema.FunctionalScore{Score: score, Passed: passed, FailedChecks: failed}
}

// ExtractPerformanceScore returns categories.performance.score in [0,1], or nil
// when there is none. Nil means "no decision possible", never zero.
func ExtractPerformanceScore(p schema.PerformanceResult) *float64 {
	return p.Score()
}
