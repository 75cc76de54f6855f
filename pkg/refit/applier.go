package refit

import (
	"github.com/mheijden/fitfix/pkg/logging"
	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/model"
)

// Outcome reports how an apply call ended.
type Outcome string

const (
	// Applied means the fitting's atomic unit committed.
	Applied Outcome = "applied"
	// Skipped means the unit was rolled back and no parameter changed.
	Skipped Outcome = "skipped"
)

// Applier writes one plan to one fitting inside a single atomic unit.
// Assignments whose parameter is missing or not yes/no backed are dropped
// one by one; any other fault rolls the whole unit back. The parameter
// named by protected is never cleared.
type Applier struct {
	accessor  model.Accessor
	protected string
	logger    logging.Logger
	metrics   *metrics.Registry
}

// NewApplier wires an applier against a model accessor. The protected
// name is the parameter no plan may set to false.
func NewApplier(accessor model.Accessor, protected string, logger logging.Logger, registry *metrics.Registry) *Applier {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}
	return &Applier{
		accessor:  accessor,
		protected: protected,
		logger:    logger,
		metrics:   registry,
	}
}

// Apply runs every assignment in the plan, then the optional flip,
// against one fitting. Applied means the unit committed; Skipped means it
// was rolled back with the fitting untouched.
func (a *Applier) Apply(fitting model.ElementID, plan Plan) Outcome {
	unit, err := a.accessor.BeginUnit()
	if err != nil {
		a.logger.Debug("unit open failed",
			logging.FittingID(uint64(fitting)),
			logging.Error(err))
		return Skipped
	}
	defer unit.Rollback()

	for _, assignment := range plan.Assignments {
		if assignment.Name == a.protected && !assignment.Value {
			continue
		}
		if err := unit.SetParam(fitting, assignment.Name, assignment.Value); err != nil {
			if model.IsParamMismatch(err) {
				a.logger.Debug("assignment dropped",
					logging.FittingID(uint64(fitting)),
					logging.Param(assignment.Name),
					logging.Error(err))
				continue
			}
			a.logger.Debug("apply fault",
				logging.FittingID(uint64(fitting)),
				logging.Param(assignment.Name),
				logging.Error(err))
			a.metrics.RecordRollback()
			return Skipped
		}
	}

	if plan.Flip {
		if f, ok := a.accessor.Fitting(fitting); ok && f.CanFlip() {
			if err := unit.Flip(fitting); err != nil {
				a.logger.Debug("flip fault",
					logging.FittingID(uint64(fitting)),
					logging.Error(err))
				a.metrics.RecordRollback()
				return Skipped
			}
		}
	}

	if err := unit.Commit(); err != nil {
		a.logger.Debug("commit fault",
			logging.FittingID(uint64(fitting)),
			logging.Error(err))
		a.metrics.RecordRollback()
		return Skipped
	}

	return Applied
}
