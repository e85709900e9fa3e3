/*
Package scheduler turns a set of servers, processes, and global
constraints into a pkg/solver model, solves it, and extracts a
placement result.

# Files

  - scheduler.go - Scheduler, the single entry point: NewScheduler,
    Solve.
  - variables.go - the x[p,r,s] decision variable layout, server-used
    indicators, and the per-process chunk partitioning that redundancy
    and single-policy distinctness build on.
  - constraints.go - every constraint family, emitted in a fixed
    order.
  - objective.go - the three weighted sub-objectives and the
    priority-derived weight formula.
  - result.go - the post-solve allocation record and per-server
    utilization accounting.
  - errors.go - the ErrKind taxonomy shared with pkg/config.

# Usage

	preset, err := config.Load(presetDir)
	if err != nil {
	    return err
	}
	sched := scheduler.NewScheduler(preset.Servers, preset.Processes, preset.Constraints)
	result, err := sched.Solve(ctx)
	if err != nil {
	    return err // MODEL_INVALID or an overflowing scaled sum
	}
	if result.Status == "infeasible" {
	    // no assignment satisfies every constraint; not an error
	}

# Scope

A Scheduler is used once and discarded; it owns no state across
Solve calls and no cross-goroutine mutation occurs during one solve.
The only suspension point is the solver invocation itself, which
respects ctx cancellation and the configured time limit.
*/
package scheduler
