// Package classify turns a pair of direction vectors into an eccentricity
// decision. Two policies exist: the coarse boolean alignment test the
// feature started with, and the refined flow/side table that replaced it.
// The refined policy abstains on near-orthogonal geometry instead of
// guessing; the coarse policy always decides.
package classify

import (
	"github.com/mheijden/fitfix/pkg/geometry"
)

// Alignment thresholds. These are the feature's calibrated geometry, not
// deployment tuning.
const (
	// coarseAlignedMin is the dot product at which the coarse test calls
	// two directions aligned (within roughly 60 degrees).
	coarseAlignedMin = 0.5
	// flowMin is the dot product magnitude the refined test requires
	// before committing to a with/against call.
	flowMin = 0.7
	// sideMin is the cross product Z magnitude the refined test requires
	// before committing to a left/right call.
	sideMin = 0.1
)

// Flow is the longitudinal relation of a branch to the main run.
type Flow string

const (
	FlowWith      Flow = "with"
	FlowAgainst   Flow = "against"
	FlowAmbiguous Flow = "ambiguous"
)

// Side is the lateral relation of a branch to the main run.
type Side string

const (
	SideLeft      Side = "left"
	SideRight     Side = "right"
	SideAmbiguous Side = "ambiguous"
)

// Decision is the collapsed eccentricity outcome for one fitting.
type Decision string

const (
	SwitchOn  Decision = "switch_on"
	SwitchOff Decision = "switch_off"
	// Skip leaves the eccentricity parameter untouched; near-orthogonal
	// or missing geometry must not guess a side.
	Skip Decision = "skip"
)

// Policy selects which test drives the eccentricity decision.
type Policy string

const (
	PolicyRefined Policy = "refined"
	PolicyCoarse  Policy = "coarse"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyRefined || p == PolicyCoarse
}

// Classification carries both tests' outcomes for one main/branch pair.
// The policy only chooses which outcome drives the parameter; the flip
// decision always reads CoarseAligned.
type Classification struct {
	CoarseAligned bool
	Flow          Flow
	Side          Side
}

// Classify evaluates both alignment tests for a main and branch direction.
// Either direction may be nil when a segment had no usable centerline; a
// missing direction is never aligned and is ambiguous on both axes.
func Classify(main, branch *geometry.Vec3) Classification {
	c := Classification{
		Flow: FlowAmbiguous,
		Side: SideAmbiguous,
	}
	if main == nil || branch == nil {
		return c
	}

	m, ok := main.Normalize()
	if !ok {
		return c
	}
	b, ok := branch.Normalize()
	if !ok {
		return c
	}

	dot := m.Dot(b)
	c.CoarseAligned = dot >= coarseAlignedMin

	switch {
	case dot > flowMin:
		c.Flow = FlowWith
	case dot < -flowMin:
		c.Flow = FlowAgainst
	}

	z := m.Cross(b).Z
	switch {
	case z > sideMin:
		c.Side = SideRight
	case z < -sideMin:
		c.Side = SideLeft
	}

	return c
}

// Decision collapses the refined flow/side outcome through the fixed
// table. Any ambiguity abstains.
//
//	Left /With    -> off
//	Left /Against -> on
//	Right/With    -> on
//	Right/Against -> off
func (c Classification) Decision() Decision {
	if c.Flow == FlowAmbiguous || c.Side == SideAmbiguous {
		return Skip
	}
	switch {
	case c.Side == SideLeft && c.Flow == FlowWith:
		return SwitchOff
	case c.Side == SideLeft && c.Flow == FlowAgainst:
		return SwitchOn
	case c.Side == SideRight && c.Flow == FlowWith:
		return SwitchOn
	default: // Right/Against
		return SwitchOff
	}
}

// CoarseDecision maps the coarse boolean to a decision: the switch goes
// on exactly when the branch is not aligned with the main flow. The
// coarse test never abstains.
func (c Classification) CoarseDecision() Decision {
	if c.CoarseAligned {
		return SwitchOff
	}
	return SwitchOn
}

// DecisionFor returns the decision under the given policy.
func (c Classification) DecisionFor(p Policy) Decision {
	if p == PolicyCoarse {
		return c.CoarseDecision()
	}
	return c.Decision()
}
