package verify

import (
	"fmt"
)

// DomainCoverage asserts that the set of resolvable values equals the
// router's declared value list exactly.
type DomainCoverage struct{}

func (DomainCoverage) Name() string { return "domain-coverage" }

func (DomainCoverage) Run(ctx *Context) []Finding {
	var findings []Finding
	exps := ctx.Topo.Expectations()
	seen := make(map[int]struct{})
	for _, v := range ctx.Topo.Values() {
		seen[v] = struct{}{}
		if _, ok := exps[v]; !ok {
			v := v
			findings = append(findings, Finding{
				Check:  "domain-coverage",
				Value:  &v,
				Detail: fmt.Sprintf("declared value %d has no resolved expectation", v),
			})
		}
	}
	for v := range exps {
		if _, ok := seen[v]; !ok {
			v := v
			findings = append(findings, Finding{
				Check:  "domain-coverage",
				Value:  &v,
				Detail: fmt.Sprintf("expectation for value %d has no matching declaration", v),
			})
		}
	}
	return findings
}

// LabelMatch runs the simulator for every declared value and asserts the
// result echoes the value and matches the precomputed expectation.
type LabelMatch struct{}

func (LabelMatch) Name() string { return "label-match" }

func (LabelMatch) Run(ctx *Context) []Finding {
	var findings []Finding
	for _, v := range ctx.Topo.Values() {
		v := v
		sel, err := ctx.Sim.Simulate(v)
		if err != nil {
			findings = append(findings, Finding{
				Check:  "label-match",
				Value:  &v,
				Detail: fmt.Sprintf("simulate: %s", err),
			})
			continue
		}
		exp, ok := ctx.Topo.Expectation(v)
		if !ok {
			findings = append(findings, Finding{
				Check:  "label-match",
				Value:  &v,
				Detail: "no expectation to compare against",
			})
			continue
		}
		if sel.ControlMessage != v {
			findings = append(findings, Finding{
				Check:  "label-match",
				Value:  &v,
				Detail: fmt.Sprintf("control message %d does not echo value %d", sel.ControlMessage, v),
			})
		}
		if sel.ActiveBranch != exp.BranchKind || sel.OutputLabel != exp.OutputLabel {
			findings = append(findings, Finding{
				Check:  "label-match",
				Value:  &v,
				Detail: fmt.Sprintf("got %s/%s, want %s/%s", sel.ActiveBranch, sel.OutputLabel, exp.BranchKind, exp.OutputLabel),
			})
		}
	}
	return findings
}

// LabelExclusivity asserts that no two values resolve to the same output
// label: every selectable branch must be distinguishable.
type LabelExclusivity struct{}

func (LabelExclusivity) Name() string { return "label-exclusivity" }

func (LabelExclusivity) Run(ctx *Context) []Finding {
	var findings []Finding
	byLabel := make(map[string]int)
	for _, v := range ctx.Topo.Values() {
		exp, ok := ctx.Topo.Expectation(v)
		if !ok {
			continue // domain-coverage reports this
		}
		if prev, dup := byLabel[exp.OutputLabel]; dup {
			v := v
			findings = append(findings, Finding{
				Check:  "label-exclusivity",
				Value:  &v,
				Detail: fmt.Sprintf("output label %q shared with value %d", exp.OutputLabel, prev),
			})
			continue
		}
		byLabel[exp.OutputLabel] = v
	}
	return findings
}
