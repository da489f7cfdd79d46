package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/huangsam/pagegate/schema"
)

// PolicyRules evaluates optional CEL gate rules against a merged report.
// Each rule sees the report as `report`, in its JSON shape, and must return a bool.
type PolicyRules struct {
	rules    []string
	programs []cel.Program
}

// CompilePolicyRules compiles the rules once.
func CompilePolicyRules(rules []string) (*PolicyRules, error) {
	env, err := cel.NewEnv(cel.Variable("report", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	p := &PolicyRules{rules: rules, programs: make([]cel.Program, 0, len(rules))}
	for _, rule := range rules {
		ast, issues := env.Compile(rule)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("invalid rule %q: %w", rule, issues.Err())
		}
		prg, err := env.Program(ast,
			cel.InterruptCheckFrequency(100),
			cel.CostLimit(10000),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid rule %q: %w", rule, err)
		}
		p.programs = append(p.programs, prg)
	}
	return p, nil
}

// Len returns the number of rules.
func (p *PolicyRules) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rules)
}

// FirstFailure returns the first rule that is not true for the report, or "" when all hold.
// A rule that errors or returns a non-bool counts as failed.
func (p *PolicyRules) FirstFailure(report schema.MergedReport) (string, error) {
	if p.Len() == 0 {
		return "", nil
	}
	input, err := reportActivation(report)
	if err != nil {
		return "", err
	}
	for i, prg := range p.programs {
		out, _, err := prg.Eval(map[string]any{"report": input})
		if err != nil {
			return p.rules[i], nil
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			return p.rules[i], nil
		}
	}
	return "", nil
}

// reportActivation converts the report into plain maps for CEL.
func reportActivation(report schema.MergedReport) (map[string]any, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report for rules: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to decode report for rules: %w", err)
	}
	return input, nil
}
