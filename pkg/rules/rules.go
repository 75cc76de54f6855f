// Package rules holds the classification rule table: which family names
// map to which fitting variant, and what qualifies a segment as a main
// run. The table is configuration data, resolved once per run snapshot;
// no other package hard-codes family name literals.
package rules

import (
	"fmt"
	"strings"

	"github.com/mheijden/fitfix/pkg/model"
)

// FittingKind is the closed set of fitting variants the engine dispatches
// on. Anything the table does not match is KindOther and never touched.
type FittingKind string

const (
	KindTee     FittingKind = "tee"
	KindElbow   FittingKind = "elbow"
	KindReducer FittingKind = "reducer"
	KindOther   FittingKind = "other"
)

// Valid reports whether k is one of the known variants.
func (k FittingKind) Valid() bool {
	switch k {
	case KindTee, KindElbow, KindReducer, KindOther:
		return true
	default:
		return false
	}
}

// MatchKind selects how a rule's pattern is compared to a family name.
type MatchKind string

const (
	MatchPrefix   MatchKind = "prefix"
	MatchContains MatchKind = "contains"
)

// Valid reports whether m is a known match kind.
func (m MatchKind) Valid() bool {
	return m == MatchPrefix || m == MatchContains
}

// KindRule maps a family-name pattern to a fitting variant. Matching is
// case-insensitive.
type KindRule struct {
	Match   MatchKind   `yaml:"match" validate:"required,oneof=prefix contains"`
	Pattern string      `yaml:"pattern" validate:"required"`
	Kind    FittingKind `yaml:"kind" validate:"required,oneof=tee elbow reducer other"`
}

// matches reports whether the rule matches the (lowercased) family name.
func (r KindRule) matches(family string) bool {
	pattern := strings.ToLower(r.Pattern)
	switch r.Match {
	case MatchPrefix:
		return strings.HasPrefix(family, pattern)
	case MatchContains:
		return strings.Contains(family, pattern)
	default:
		return false
	}
}

// MainSegmentRule qualifies the segments that seed the tee pass: the type
// tag must contain the name fragment and the diameter must reach the
// threshold. Name matching is case-sensitive, following the source model's
// naming standard.
type MainSegmentRule struct {
	NameContains  string  `yaml:"name_contains" validate:"required"`
	MinDiameterMM float64 `yaml:"min_diameter_mm" validate:"gt=0"`
}

// Qualifies reports whether the segment is a main run.
func (r MainSegmentRule) Qualifies(s *model.Segment) bool {
	if s == nil {
		return false
	}
	return strings.Contains(s.TypeName, r.NameContains) && s.DiameterMM >= r.MinDiameterMM
}

// Table is the full rule set: ordered variant rules plus the main-segment
// qualification.
type Table struct {
	Fittings []KindRule      `yaml:"fittings" validate:"required,min=1,dive"`
	Main     MainSegmentRule `yaml:"main"`
}

// Kind resolves a family name to its variant. Rules apply in order, first
// match wins; no match is KindOther.
func (t Table) Kind(family string) FittingKind {
	lowered := strings.ToLower(family)
	for _, r := range t.Fittings {
		if r.matches(lowered) {
			return r.Kind
		}
	}
	return KindOther
}

// Validate checks the table for structural problems beyond what struct
// tags express.
func (t Table) Validate() error {
	if len(t.Fittings) == 0 {
		return fmt.Errorf("rule table has no fitting rules")
	}
	for i, r := range t.Fittings {
		if !r.Match.Valid() {
			return fmt.Errorf("fitting rule %d: unknown match kind %q", i, r.Match)
		}
		if strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("fitting rule %d: empty pattern", i)
		}
		if !r.Kind.Valid() {
			return fmt.Errorf("fitting rule %d: unknown fitting kind %q", i, r.Kind)
		}
	}
	if strings.TrimSpace(t.Main.NameContains) == "" {
		return fmt.Errorf("main segment rule: empty name fragment")
	}
	if t.Main.MinDiameterMM <= 0 {
		return fmt.Errorf("main segment rule: non-positive diameter threshold %v", t.Main.MinDiameterMM)
	}
	return nil
}

// Default returns the production rule set for the PE piping standard the
// tool was built against.
func Default() Table {
	return Table{
		Fittings: []KindRule{
			{Match: MatchPrefix, Pattern: "NLRS_52_PIF_UN_PE multi T-stuk", Kind: KindTee},
			{Match: MatchContains, Pattern: "multibocht", Kind: KindElbow},
			{Match: MatchContains, Pattern: "multireducer", Kind: KindReducer},
		},
		Main: MainSegmentRule{
			NameContains:  "NLRS_52_PI_PE buis",
			MinDiameterMM: 160,
		},
	}
}

// ResolveKinds derives every fitting's variant once for a snapshot. The
// engine works from this map for the rest of the run; reclassification
// mid-pass cannot happen.
func (t Table) ResolveKinds(fittings []*model.Fitting) map[model.ElementID]FittingKind {
	kinds := make(map[model.ElementID]FittingKind, len(fittings))
	for _, f := range fittings {
		kinds[f.ID] = t.Kind(f.Family)
	}
	return kinds
}
