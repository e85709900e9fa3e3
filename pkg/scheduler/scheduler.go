// Package scheduler builds a placement model from servers, processes,
// and global constraints and solves it with pkg/solver, producing a
// normalized allocation result.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/vmscheduler/pkg/log"
	"github.com/cuemby/vmscheduler/pkg/metrics"
	"github.com/cuemby/vmscheduler/pkg/solver"
	"github.com/cuemby/vmscheduler/pkg/types"
)

// DefaultTimeLimit is the solver wall-clock budget used when the
// caller does not set one explicitly.
const DefaultTimeLimit = 30 * time.Second

// Scheduler owns one pkg/solver.Model for the lifetime of a single
// solve; it holds no state across calls and is not reused.
type Scheduler struct {
	servers     []types.Server
	processes   []types.Process
	constraints types.Constraints
	timeLimit   time.Duration
}

// NewScheduler returns a Scheduler for one preset.
func NewScheduler(servers []types.Server, processes []types.Process, constraints types.Constraints) *Scheduler {
	return &Scheduler{
		servers:     servers,
		processes:   processes,
		constraints: constraints,
		timeLimit:   DefaultTimeLimit,
	}
}

// WithTimeLimit overrides the solver wall-clock budget.
func (s *Scheduler) WithTimeLimit(d time.Duration) *Scheduler {
	s.timeLimit = d
	return s
}

// Solve runs variable layout, constraint building, objective
// building, the solve itself, and result extraction, in that fixed
// order. INFEASIBLE is returned as a *Result with Status "infeasible"
// and no error, matching the error-handling design's "infeasibility
// is data, not an error" rule; MODEL_INVALID is returned as an error
// since it indicates a bug in constraint construction.
func (s *Scheduler) Solve(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	logger := log.WithRunID(runID)

	model := solver.NewModel()

	vars := BuildVariables(model, s.servers, s.processes, s.constraints)
	metrics.VariablesCreated.Set(float64(model.NumVars()))

	metrics.ConstraintsEmitted.Reset()
	if err := BuildConstraints(model, vars); err != nil {
		return nil, err
	}
	BuildObjective(model, vars)

	timer := metrics.NewTimer()
	status, assignment := solver.NewSolver().Solve(ctx, model, s.timeLimit)
	timer.ObserveDuration(metrics.SolveDuration)
	metrics.SolveStatus.WithLabelValues(status.String()).Inc()

	logger.Info().Str("status", status.String()).Dur("elapsed", timer.Duration()).Msg("solve finished")

	switch status {
	case solver.ModelInvalid:
		return nil, NewSolverInternalError("solver reported the model as invalid")
	case solver.Infeasible, solver.Unknown:
		result := ExtractResult(vars, nil, status, runID)
		return result, nil
	}

	result := ExtractResult(vars, assignment, status, runID)

	if obj, ok := model.ObjectiveValue(assignment); ok {
		metrics.ObjectiveValue.Set(float64(obj))
	}

	used, idle := 0, 0
	for _, alloc := range result.Servers {
		if len(alloc.Processes) > 0 {
			used++
		} else {
			idle++
		}
	}
	metrics.ServersUsed.Set(float64(used))
	metrics.ServersIdle.Set(float64(idle))

	if result.CostWarning != "" {
		logger.Warn().Msg(result.CostWarning)
	}

	return result, nil
}
