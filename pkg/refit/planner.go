package refit

import (
	"github.com/mheijden/fitfix/pkg/classify"
	"github.com/mheijden/fitfix/pkg/config"
)

// Assignment is a single named yes/no write inside a plan.
type Assignment struct {
	Name  string
	Value bool
}

// Plan is the ordered set of parameter assignments for one fitting, plus
// an optional orientation flip. The applier runs the assignments in slice
// order inside a single atomic unit.
type Plan struct {
	Assignments []Assignment
	Flip        bool
}

// Planner maps a fitting's kind and classification to a concrete plan.
// Parameter names come from configuration so a different family catalog
// can be served without code changes.
type Planner struct {
	params config.Params
	policy classify.Policy
}

// NewPlanner builds a planner for the given parameter names and
// classifier policy. An invalid policy falls back to the refined table.
func NewPlanner(params config.Params, policy classify.Policy) *Planner {
	if !policy.Valid() {
		policy = classify.PolicyRefined
	}
	return &Planner{params: params, policy: policy}
}

// TeePlan builds the canonical tee configuration: both short-pattern ends
// on, the eccentric offset on, and the eccentricity switch decided by the
// classifier. A Skip decision leaves the switch out of the plan entirely
// so the parameter stays as it was. The flip is requested whenever the
// branch is not coarsely aligned with the main flow.
func (p *Planner) TeePlan(cls classify.Classification) Plan {
	plan := Plan{
		Assignments: []Assignment{
			{Name: p.params.TeeShortSmallest, Value: true},
			{Name: p.params.TeeShortLargest, Value: true},
			{Name: p.params.Eccentric, Value: true},
		},
		Flip: !cls.CoarseAligned,
	}

	switch cls.DecisionFor(p.policy) {
	case classify.SwitchOn:
		plan.Assignments = append(plan.Assignments, Assignment{Name: p.params.SwitchEccentricity, Value: true})
	case classify.SwitchOff:
		plan.Assignments = append(plan.Assignments, Assignment{Name: p.params.SwitchEccentricity, Value: false})
	}

	return plan
}

// ElbowPlan builds the elbow normalization: no double 45 split, no
// inserted pipe piece. No geometry is involved.
func (p *Planner) ElbowPlan() Plan {
	return Plan{
		Assignments: []Assignment{
			{Name: p.params.ElbowDouble45, Value: false},
			{Name: p.params.ElbowInsertPipe, Value: false},
		},
	}
}

// ReducerNeutralPlan collapses a loose reducer back to its default state.
// The eccentric assignment is listed last; the applier's protected rule
// drops it, so the offset itself survives the reset.
func (p *Planner) ReducerNeutralPlan() Plan {
	return Plan{
		Assignments: []Assignment{
			{Name: p.params.TeeShortSmallest, Value: false},
			{Name: p.params.TeeShortLargest, Value: false},
			{Name: p.params.SwitchEccentricity, Value: false},
			{Name: p.params.Eccentric, Value: false},
		},
	}
}
