package refit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mheijden/fitfix/pkg/classify"
	"github.com/mheijden/fitfix/pkg/config"
	"github.com/mheijden/fitfix/pkg/geometry"
	"github.com/mheijden/fitfix/pkg/logging"
	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
	"github.com/mheijden/fitfix/pkg/rules"
	"github.com/mheijden/fitfix/pkg/topology"
)

// A reducer with this many distinct live owners is fully connected and
// left alone.
const fullyConnectedOwners = 2

// Engine drives one audit run over a piping model: a pass over qualifying
// main segments resolving their tee fittings, then a pass over all
// fittings normalizing elbows and loose reducers. The engine never
// re-queries the snapshot after a mutation; per-fitting liveness is
// re-resolved through the accessor right before use.
type Engine struct {
	accessor model.Accessor
	cfg      *config.Config
	builder  *topology.Builder
	planner  *Planner
	applier  *Applier
	logger   logging.Logger
	metrics  *metrics.Registry
}

// NewEngine wires an engine against a model accessor. A nil config,
// logger or registry falls back to the package defaults.
func NewEngine(accessor model.Accessor, cfg *config.Config, logger logging.Logger, registry *metrics.Registry) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}
	logger = logger.With(logging.Component("refit"))

	return &Engine{
		accessor: accessor,
		cfg:      cfg,
		builder:  topology.NewBuilder(accessor),
		planner:  NewPlanner(cfg.Params, cfg.Classifier.Policy),
		applier:  NewApplier(accessor, cfg.Params.Eccentric, logger, registry),
		logger:   logger,
		metrics:  registry,
	}
}

// Run executes both scan passes and returns the aggregated summary. Only
// a failure to obtain the snapshot or to open the undo group aborts the
// run; every per-fitting fault is absorbed into the skipped count.
func (e *Engine) Run() (RunSummary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With(logging.RunID(runID))

	segments, err := e.accessor.Segments()
	if err != nil {
		e.metrics.RecordRun(metrics.RunAborted, time.Since(start))
		return RunSummary{}, fmt.Errorf("%w: segments: %v", ErrNoSnapshot, err)
	}
	fittings, err := e.accessor.Fittings()
	if err != nil {
		e.metrics.RecordRun(metrics.RunAborted, time.Since(start))
		return RunSummary{}, fmt.Errorf("%w: fittings: %v", ErrNoSnapshot, err)
	}

	kinds := e.cfg.Rules.ResolveKinds(fittings)
	e.metrics.UpdateModelCounts(len(segments), len(fittings))

	group, err := e.accessor.BeginGroup()
	if err != nil {
		e.metrics.RecordRun(metrics.RunAborted, time.Since(start))
		return RunSummary{}, fmt.Errorf("%w: %v", ErrGroup, err)
	}

	logger.Info("run started",
		logging.Int("segments", len(segments)),
		logging.Int("fittings", len(fittings)))

	summary := RunSummary{RunID: runID}

	timer := logging.StartTimer(logger, "main segment pass done", logging.Pass("main_segments"))
	e.scanMainSegments(logger, segments, kinds, &summary)
	timer.EndDebug()

	timer = logging.StartTimer(logger, "fitting pass done", logging.Pass("all_fittings"))
	e.scanAllFittings(logger, fittings, kinds, &summary)
	timer.EndDebug()

	if err := group.Assimilate(); err != nil {
		logger.Error("undo group assimilation failed", logging.Error(err))
	}

	summary.Duration = time.Since(start)
	e.metrics.RecordRun(metrics.RunCompleted, summary.Duration)
	logger.Info("run finished",
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("duration", summary.Duration))

	return summary, nil
}

// scanMainSegments resolves the tees hanging off every qualifying main
// segment. An identity enters the visited set before its owner resolves,
// so a tee reachable from two mains is processed exactly once and a dead
// owner is not retried from another main.
func (e *Engine) scanMainSegments(logger logging.Logger, segments []*model.Segment, kinds map[model.ElementID]rules.FittingKind, summary *RunSummary) {
	pass := logger.With(logging.Pass("main_segments"))
	visited := model.NewIDSet()

	for _, seg := range segments {
		if !e.cfg.Rules.Main.Qualifies(seg) {
			continue
		}

		var mainDir *geometry.Vec3
		if d, ok := seg.Direction(); ok {
			mainDir = &d
		}

		for _, ownerID := range e.builder.ConnectedOwners(seg.ID) {
			if !visited.Add(ownerID) {
				continue
			}
			fitting, ok := e.accessor.Fitting(ownerID)
			if !ok {
				continue
			}
			if kinds[fitting.ID] != rules.KindTee {
				continue
			}

			var branchDir *geometry.Vec3
			if branch, ok := e.builder.BranchSegment(fitting.ID, seg.ID); ok {
				if d, ok := branch.Direction(); ok {
					branchDir = &d
				}
			}

			cls := classify.Classify(mainDir, branchDir)
			plan := e.planner.TeePlan(cls)
			e.metrics.RecordPlanBuilt(string(rules.KindTee))

			outcome := e.applier.Apply(fitting.ID, plan)
			e.count(outcome, rules.KindTee, summary)
			pass.Debug("tee processed",
				logging.FittingID(uint64(fitting.ID)),
				logging.SegmentID(uint64(seg.ID)),
				logging.String("outcome", string(outcome)))
		}
	}
}

// scanAllFittings normalizes elbows and loose reducers. Tee handling
// belongs to the main-segment pass alone; the kinds are disjoint, so no
// fitting is counted by both passes for the same reason.
func (e *Engine) scanAllFittings(logger logging.Logger, fittings []*model.Fitting, kinds map[model.ElementID]rules.FittingKind, summary *RunSummary) {
	pass := logger.With(logging.Pass("all_fittings"))

	for _, f := range fittings {
		if !e.accessor.Live(f.ID) {
			continue
		}

		switch kinds[f.ID] {
		case rules.KindElbow:
			plan := e.planner.ElbowPlan()
			e.metrics.RecordPlanBuilt(string(rules.KindElbow))
			outcome := e.applier.Apply(f.ID, plan)
			e.count(outcome, rules.KindElbow, summary)
			pass.Debug("elbow processed",
				logging.FittingID(uint64(f.ID)),
				logging.String("outcome", string(outcome)))

		case rules.KindReducer:
			// The guard runs fresh against the live model, not the
			// snapshot: a flip earlier in this run may have changed
			// connectivity.
			if e.builder.LiveOwnerCount(f.ID) >= fullyConnectedOwners {
				summary.Skipped++
				e.metrics.RecordFittingSkipped(string(rules.KindReducer))
				pass.Debug("reducer fully connected",
					logging.FittingID(uint64(f.ID)))
				continue
			}
			plan := e.planner.ReducerNeutralPlan()
			e.metrics.RecordPlanBuilt(string(rules.KindReducer))
			outcome := e.applier.Apply(f.ID, plan)
			e.count(outcome, rules.KindReducer, summary)
			pass.Debug("reducer processed",
				logging.FittingID(uint64(f.ID)),
				logging.String("outcome", string(outcome)))
		}
	}
}

func (e *Engine) count(outcome Outcome, kind rules.FittingKind, summary *RunSummary) {
	if outcome == Applied {
		summary.Updated++
		e.metrics.RecordFittingUpdated(string(kind))
	} else {
		summary.Skipped++
		e.metrics.RecordFittingSkipped(string(kind))
	}
}
