package refit

import (
	"errors"
	"testing"

	"github.com/mheijden/fitfix/pkg/config"
	"github.com/mheijden/fitfix/pkg/geometry"
	"github.com/mheijden/fitfix/pkg/logging"
	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
)

func newTestEngine(accessor model.Accessor) *Engine {
	return NewEngine(accessor, config.Default(), logging.NewNopLogger(), metrics.NewRegistry())
}

func addMain(m *model.PipingModel, start, end geometry.Vec3) *model.Segment {
	return m.AddSegment("NLRS_52_PI_PE buis (OD)_geb", 180, start, end)
}

func addPipe(m *model.PipingModel, start, end geometry.Vec3) *model.Segment {
	return m.AddSegment("NLRS_52_PI_PE buis (OD)_geb", 110, start, end)
}

func addTee(m *model.PipingModel) *model.Fitting {
	return m.AddFitting("NLRS_52_PIF_UN_PE multi T-stuk_geb", 3, true, map[string]*model.Param{
		"kort_verloop (kleinste)": model.BoolParam(false),
		"kort_verloop (grootste)": model.BoolParam(false),
		"reducer_eccentric":       model.BoolParam(false),
		"switch_excentriciteit":   model.UnsetBoolParam(),
	})
}

func addElbow(m *model.PipingModel) *model.Fitting {
	return m.AddFitting("NLRS_52_PID_UN_PE multibocht_geb", 2, false, map[string]*model.Param{
		"2x45°":        model.BoolParam(true),
		"buis_invogen": model.BoolParam(true),
	})
}

func addReducer(m *model.PipingModel) *model.Fitting {
	return m.AddFitting("NLRS_52_PIF_UN_PE multireducer_geb", 2, false, map[string]*model.Param{
		"kort_verloop (kleinste)": model.BoolParam(true),
		"kort_verloop (grootste)": model.BoolParam(true),
		"reducer_eccentric":       model.BoolParam(true),
		"switch_excentriciteit":   model.BoolParam(true),
	})
}

func join(t *testing.T, m *model.PipingModel, a model.ElementID, ai int, b model.ElementID, bi int) {
	t.Helper()
	if err := m.Join(a, ai, b, bi); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
}

// TestRunTeeAmbiguousBranch tests a tee whose branch runs perpendicular
// to the main: the classifier abstains, the short-pattern and eccentric
// parameters still land, and the switch stays unset
func TestRunTeeAmbiguousBranch(t *testing.T) {
	m := model.NewPipingModel()
	main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	tee := addTee(m)
	branch := addPipe(m, geometry.Vec3{X: 5}, geometry.Vec3{X: 5, Y: 8})
	join(t, m, main.ID, 1, tee.ID, 0)
	join(t, m, branch.ID, 0, tee.ID, 1)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 1 || summary.Skipped != 0 {
		t.Errorf("Summary = %d/%d, want 1/0", summary.Updated, summary.Skipped)
	}
	if summary.RunID == "" {
		t.Error("Expected a run ID")
	}

	for _, name := range []string{"kort_verloop (kleinste)", "kort_verloop (grootste)", "reducer_eccentric"} {
		if value, set := paramBool(t, tee, name); !set || !value {
			t.Errorf("Expected %s set true, got value=%v set=%v", name, value, set)
		}
	}
	if _, set := paramBool(t, tee, "switch_excentriciteit"); set {
		t.Error("Expected eccentricity switch to stay unset")
	}
	if !tee.Flipped {
		t.Error("Expected flip for a branch not aligned with the main flow")
	}
}

// TestRunTeeDecidedBranch tests both decided cells reachable from an
// against-flow branch
func TestRunTeeDecidedBranch(t *testing.T) {
	tests := []struct {
		name       string
		branchEnd  geometry.Vec3
		wantSwitch bool
	}{
		{
			// direction (-0.894, 0.447, 0): against flow, right side
			name:       "Right against",
			branchEnd:  geometry.Vec3{X: -3, Y: 4},
			wantSwitch: false,
		},
		{
			// direction (-0.894, -0.447, 0): against flow, left side
			name:       "Left against",
			branchEnd:  geometry.Vec3{X: -3, Y: -4},
			wantSwitch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model.NewPipingModel()
			main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
			tee := addTee(m)
			branch := addPipe(m, geometry.Vec3{X: 5}, tt.branchEnd)
			join(t, m, main.ID, 1, tee.ID, 0)
			join(t, m, branch.ID, 0, tee.ID, 1)

			summary, err := newTestEngine(m).Run()
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if summary.Updated != 1 {
				t.Fatalf("Updated = %d, want 1", summary.Updated)
			}

			value, set := paramBool(t, tee, "switch_excentriciteit")
			if !set {
				t.Fatal("Expected eccentricity switch to be decided")
			}
			if value != tt.wantSwitch {
				t.Errorf("Switch = %v, want %v", value, tt.wantSwitch)
			}
			if !tee.Flipped {
				t.Error("Expected flip for an against-flow branch")
			}
		})
	}
}

// TestRunNearOpposedBranchAbstains tests that a branch almost exactly
// opposed to the main decides flow but abstains on side, leaving the
// switch unset
func TestRunNearOpposedBranchAbstains(t *testing.T) {
	m := model.NewPipingModel()
	main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	tee := addTee(m)
	// direction (-0.9988, 0.0499, 0): cross Z below the side threshold
	branch := addPipe(m, geometry.Vec3{X: 5}, geometry.Vec3{X: -5, Y: 0.5})
	join(t, m, main.ID, 1, tee.ID, 0)
	join(t, m, branch.ID, 0, tee.ID, 1)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("Updated = %d, want 1", summary.Updated)
	}

	if _, set := paramBool(t, tee, "switch_excentriciteit"); set {
		t.Error("Expected switch to stay unset for an ambiguous side")
	}
	if !tee.Flipped {
		t.Error("Expected flip for an opposed branch")
	}
}

// TestRunTeeWithoutBranch tests that a tee with no second segment still
// gets its plan, with the switch unset and the flip requested
func TestRunTeeWithoutBranch(t *testing.T) {
	m := model.NewPipingModel()
	main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	tee := addTee(m)
	join(t, m, main.ID, 1, tee.ID, 0)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Updated != 1 || summary.Skipped != 0 {
		t.Errorf("Summary = %d/%d, want 1/0", summary.Updated, summary.Skipped)
	}

	if value, set := paramBool(t, tee, "reducer_eccentric"); !set || !value {
		t.Errorf("Expected eccentric set true, got value=%v set=%v", value, set)
	}
	if _, set := paramBool(t, tee, "switch_excentriciteit"); set {
		t.Error("Expected switch to stay unset without a branch")
	}
	if !tee.Flipped {
		t.Error("Expected flip when no branch direction exists")
	}
}

// TestRunVisitedOnce tests that a tee reachable from two qualifying mains
// is processed exactly once
func TestRunVisitedOnce(t *testing.T) {
	m := model.NewPipingModel()
	main1 := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	main2 := addMain(m, geometry.Vec3{X: 10, Y: 2}, geometry.Vec3{Y: 2})
	tee := addTee(m)
	branch := addPipe(m, geometry.Vec3{X: 5}, geometry.Vec3{X: 5, Y: 8})
	join(t, m, main1.ID, 1, tee.ID, 0)
	join(t, m, main2.ID, 1, tee.ID, 1)
	join(t, m, branch.ID, 0, tee.ID, 2)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1 (tee must be visited once)", summary.Updated)
	}
	if summary.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", summary.Skipped)
	}
}

// TestRunReducerGuard tests that a fully connected reducer is skipped
// untouched while a loose one is reset
func TestRunReducerGuard(t *testing.T) {
	m := model.NewPipingModel()

	connected := addReducer(m)
	left := addPipe(m, geometry.Vec3{}, geometry.Vec3{X: 2})
	right := addPipe(m, geometry.Vec3{X: 2}, geometry.Vec3{X: 4})
	join(t, m, left.ID, 1, connected.ID, 0)
	join(t, m, right.ID, 0, connected.ID, 1)

	loose := addReducer(m)
	stub := addPipe(m, geometry.Vec3{Y: 5}, geometry.Vec3{X: 2, Y: 5})
	join(t, m, stub.ID, 1, loose.ID, 0)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 1 || summary.Skipped != 1 {
		t.Errorf("Summary = %d/%d, want 1/1", summary.Updated, summary.Skipped)
	}

	// The guarded reducer keeps every parameter.
	for _, name := range []string{"kort_verloop (kleinste)", "kort_verloop (grootste)", "switch_excentriciteit", "reducer_eccentric"} {
		if value, _ := paramBool(t, connected, name); !value {
			t.Errorf("Connected reducer parameter %s changed", name)
		}
	}

	// The loose reducer is reset, except for the protected eccentric.
	for _, name := range []string{"kort_verloop (kleinste)", "kort_verloop (grootste)", "switch_excentriciteit"} {
		if value, _ := paramBool(t, loose, name); value {
			t.Errorf("Loose reducer parameter %s not cleared", name)
		}
	}
	if value, _ := paramBool(t, loose, "reducer_eccentric"); !value {
		t.Error("Protected eccentric parameter was cleared")
	}
}

// TestRunReducerGuardCountsLiveOwners tests that the guard ignores owners
// invalidated out-of-band
func TestRunReducerGuardCountsLiveOwners(t *testing.T) {
	m := model.NewPipingModel()
	reducer := addReducer(m)
	left := addPipe(m, geometry.Vec3{}, geometry.Vec3{X: 2})
	right := addPipe(m, geometry.Vec3{X: 2}, geometry.Vec3{X: 4})
	join(t, m, left.ID, 1, reducer.ID, 0)
	join(t, m, right.ID, 0, reducer.ID, 1)
	m.Invalidate(right.ID)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 1 || summary.Skipped != 0 {
		t.Errorf("Summary = %d/%d, want 1/0", summary.Updated, summary.Skipped)
	}
	if value, _ := paramBool(t, reducer, "kort_verloop (kleinste)"); value {
		t.Error("Expected reducer with one live owner to be reset")
	}
}

// TestRunElbowNormalized tests the unconditional elbow pass
func TestRunElbowNormalized(t *testing.T) {
	m := model.NewPipingModel()
	elbow := addElbow(m)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 1 || summary.Skipped != 0 {
		t.Errorf("Summary = %d/%d, want 1/0", summary.Updated, summary.Skipped)
	}
	for _, name := range []string{"2x45°", "buis_invogen"} {
		if value, set := paramBool(t, elbow, name); !set || value {
			t.Errorf("Expected %s cleared, got value=%v set=%v", name, value, set)
		}
	}
}

// TestRunOtherFamiliesUntouched tests that unmatched families are neither
// planned nor counted
func TestRunOtherFamiliesUntouched(t *testing.T) {
	m := model.NewPipingModel()
	m.AddFitting("NLRS_52_PIF_UN_PE spie-eind_geb", 2, false, map[string]*model.Param{
		"kort_verloop (kleinste)": model.BoolParam(true),
	})

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 0 || summary.Skipped != 0 {
		t.Errorf("Summary = %d/%d, want 0/0", summary.Updated, summary.Skipped)
	}
}

// TestRunDeadTeeUncounted tests that an invalidated tee is passed over
// without touching either counter
func TestRunDeadTeeUncounted(t *testing.T) {
	m := model.NewPipingModel()
	main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	tee := addTee(m)
	join(t, m, main.ID, 1, tee.ID, 0)
	m.Invalidate(tee.ID)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 0 || summary.Skipped != 0 {
		t.Errorf("Summary = %d/%d, want 0/0", summary.Updated, summary.Skipped)
	}
}

// TestRunNonQualifyingMains tests that thin or foreign segments never
// seed the tee pass
func TestRunNonQualifyingMains(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		diameter float64
	}{
		{"Below threshold", "NLRS_52_PI_PE buis (OD)_geb", 125},
		{"Wrong family", "Staal buis standaard", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model.NewPipingModel()
			seg := m.AddSegment(tt.typeName, tt.diameter, geometry.Vec3{}, geometry.Vec3{X: 10})
			tee := addTee(m)
			join(t, m, seg.ID, 1, tee.ID, 0)

			summary, err := newTestEngine(m).Run()
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if summary.Updated != 0 || summary.Skipped != 0 {
				t.Errorf("Summary = %d/%d, want 0/0", summary.Updated, summary.Skipped)
			}
		})
	}
}

// TestRunIdempotent tests that a second run reproduces the same parameter
// state it already produced
func TestRunIdempotent(t *testing.T) {
	m := model.NewPipingModel()
	loose := addReducer(m)
	stub := addPipe(m, geometry.Vec3{}, geometry.Vec3{X: 2})
	join(t, m, stub.ID, 1, loose.ID, 0)

	engine := newTestEngine(m)
	if _, err := engine.Run(); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	after := map[string][2]bool{}
	for name := range loose.Params {
		value, set := paramBool(t, loose, name)
		after[name] = [2]bool{value, set}
	}

	if _, err := engine.Run(); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	for name, want := range after {
		value, set := paramBool(t, loose, name)
		if value != want[0] || set != want[1] {
			t.Errorf("Parameter %s drifted across runs: value=%v set=%v, want value=%v set=%v",
				name, value, set, want[0], want[1])
		}
	}
}

// TestRunGroupSquash tests that the whole run collapses into one undo
// step whose restore rewinds every fitting
func TestRunGroupSquash(t *testing.T) {
	m := model.NewPipingModel()
	main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	tee := addTee(m)
	branch := addPipe(m, geometry.Vec3{X: 5}, geometry.Vec3{X: 5, Y: 8})
	join(t, m, main.ID, 1, tee.ID, 0)
	join(t, m, branch.ID, 0, tee.ID, 1)
	elbow := addElbow(m)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Updated != 2 {
		t.Fatalf("Updated = %d, want 2", summary.Updated)
	}

	if depth := m.UndoDepth(); depth != 1 {
		t.Fatalf("UndoDepth = %d, want 1 after assimilation", depth)
	}

	if err := m.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	if value, _ := paramBool(t, tee, "kort_verloop (kleinste)"); value {
		t.Error("Undo did not rewind the tee parameters")
	}
	if tee.Flipped {
		t.Error("Undo did not rewind the flip")
	}
	if value, _ := paramBool(t, elbow, "2x45°"); !value {
		t.Error("Undo did not rewind the elbow parameters")
	}
}

// TestRunMixedNetwork tests the aggregate counts over a network with all
// fitting kinds present
func TestRunMixedNetwork(t *testing.T) {
	m := model.NewPipingModel()

	main := addMain(m, geometry.Vec3{}, geometry.Vec3{X: 10})
	tee := addTee(m)
	branch := addPipe(m, geometry.Vec3{X: 5}, geometry.Vec3{X: 5, Y: 8})
	join(t, m, main.ID, 1, tee.ID, 0)
	join(t, m, branch.ID, 0, tee.ID, 1)

	addElbow(m)

	connected := addReducer(m)
	left := addPipe(m, geometry.Vec3{Y: 3}, geometry.Vec3{X: 2, Y: 3})
	right := addPipe(m, geometry.Vec3{X: 2, Y: 3}, geometry.Vec3{X: 4, Y: 3})
	join(t, m, left.ID, 1, connected.ID, 0)
	join(t, m, right.ID, 0, connected.ID, 1)

	loose := addReducer(m)
	stub := addPipe(m, geometry.Vec3{Y: 6}, geometry.Vec3{X: 2, Y: 6})
	join(t, m, stub.ID, 1, loose.ID, 0)

	m.AddFitting("NLRS_52_PIF_UN_PE spie-eind_geb", 2, false, nil)

	summary, err := newTestEngine(m).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Updated != 3 || summary.Skipped != 1 {
		t.Errorf("Summary = %d/%d, want 3/1", summary.Updated, summary.Skipped)
	}
	if got := summary.String(); got != "Updated: 3 / Skipped: 1" {
		t.Errorf("String() = %q, want %q", got, "Updated: 3 / Skipped: 1")
	}
}

// snapshotFaultAccessor injects listing and grouping faults.
type snapshotFaultAccessor struct {
	model.Accessor
	failSegments bool
	failFittings bool
	failGroup    bool
}

func (a *snapshotFaultAccessor) Segments() ([]*model.Segment, error) {
	if a.failSegments {
		return nil, errors.New("host unreachable")
	}
	return a.Accessor.Segments()
}

func (a *snapshotFaultAccessor) Fittings() ([]*model.Fitting, error) {
	if a.failFittings {
		return nil, errors.New("host unreachable")
	}
	return a.Accessor.Fittings()
}

func (a *snapshotFaultAccessor) BeginGroup() (model.Group, error) {
	if a.failGroup {
		return nil, errors.New("group refused")
	}
	return a.Accessor.BeginGroup()
}

// TestRunPreconditionFaults tests that a run unable to load its snapshot
// aborts with an error and a zero summary
func TestRunPreconditionFaults(t *testing.T) {
	tests := []struct {
		name     string
		accessor *snapshotFaultAccessor
		wantErr  error
	}{
		{"Segments unavailable", &snapshotFaultAccessor{failSegments: true}, ErrNoSnapshot},
		{"Fittings unavailable", &snapshotFaultAccessor{failFittings: true}, ErrNoSnapshot},
		{"Group unavailable", &snapshotFaultAccessor{failGroup: true}, ErrGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model.NewPipingModel()
			addElbow(m)
			tt.accessor.Accessor = m

			summary, err := newTestEngine(tt.accessor).Run()
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Error = %v, want %v", err, tt.wantErr)
			}
			if summary.Updated != 0 || summary.Skipped != 0 || summary.RunID != "" {
				t.Errorf("Expected zero summary, got %+v", summary)
			}
		})
	}
}

// TestRunSummaryString tests the user-facing result line format
func TestRunSummaryString(t *testing.T) {
	s := RunSummary{Updated: 12, Skipped: 3}
	if got := s.String(); got != "Updated: 12 / Skipped: 3" {
		t.Errorf("String() = %q", got)
	}

	zero := RunSummary{}
	if got := zero.String(); got != "Updated: 0 / Skipped: 0" {
		t.Errorf("String() = %q", got)
	}
}
