/*
Package solver implements a small boolean/integer constraint solver.

No third-party CP-SAT or ILP package is available for this project, so
pkg/solver is original code rather than a binding to one - but it is
shaped the way pkg/scheduler needs it shaped: bounded integer and
boolean variables, linear (in)equality constraints, reified constraints
via OnlyEnforceIf, boolean-OR clauses, a linear objective, and a
time-limited branch-and-bound search that returns OPTIMAL, FEASIBLE,
INFEASIBLE, MODEL_INVALID, or UNKNOWN.

# Model building

	m := solver.NewModel()
	x := m.NewBoolVar("x")
	y := m.NewIntVar(0, 10, "y")
	m.Add(solver.NewLinearExpr().Plus(x, 3).Plus(y, 1), solver.LE, 8)
	m.AddBoolOr(x.Lit(), x2.Not())
	m.Maximize(solver.NewLinearExpr().Plus(x, 10).Plus(y, 1))

# Reified constraints

	c := m.Add(expr, solver.LE, bound)
	c.OnlyEnforceIf(someBoolVar.Lit())

A reified constraint is skipped during propagation until every one of
its enforcement literals is already decided true; it is never treated
as active by default, which means a constraint the caller forgets to
enforce simply never fires rather than silently constraining the model.

# Solving

	status, assignment := solver.NewSolver().Solve(ctx, m, 30*time.Second)
	switch status {
	case solver.Optimal, solver.Feasible:
		v := assignment.Value(y)
	case solver.Infeasible:
		// no assignment satisfies every constraint
	case solver.Unknown:
		// time limit hit before any feasible assignment was found
	}

# Algorithm

Each search node propagates every constraint to bound consistency
(tightening a variable's domain against the domains of the other terms
in its constraints) to a fixpoint, then branches on the first
undecided variable by bisecting its domain, exploring the upper half
first - a reasonable default for maximization since large index values
often correspond to "process placed here" in pkg/scheduler's 0/1
variables. A running upper bound from the objective's free variables
prunes any branch that cannot beat the incumbent.

This is not a resolution-complete SAT engine: it has no clause
learning and no conflict-driven backtracking. For the placement models
pkg/scheduler builds - tens to low hundreds of servers and processes -
bound propagation prunes the search space enough for the time-limited
search to behave well in practice, and a loose limit always degrades
to FEASIBLE rather than looping forever.

# See Also

  - pkg/scheduler - the sole consumer of this package
*/
package solver
