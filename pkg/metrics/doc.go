/*
Package metrics provides Prometheus metrics collection and exposition for
vmscheduler.

Metrics are scoped to one solve invocation: the CLI optionally serves
/metrics for a Prometheus scrape right before it exits, so series report
on "the last run", not a long-lived process.

# Metrics Catalog

vmscheduler_variables_created:
  - Type: Gauge
  - Number of variables after the layout step: x[p,r,s] for eligible
    (replica, server) pairs plus one server-used indicator per server

vmscheduler_constraints_emitted{family}:
  - Type: GaugeVec
  - Constraints emitted per family (uniqueness, redundancy-distinctness,
    os-scope, affinity, anti-affinity, capacity, max-processes,
    critical-isolation, energy-cap, daily-cost-cap, forced-idle)

vmscheduler_solve_duration_seconds:
  - Type: Histogram
  - Wall-clock time inside Solver.Solve

vmscheduler_solve_status_total{status}:
  - Type: CounterVec
  - Count of solves by terminal status (optimal, feasible, infeasible,
    model_invalid, unknown)

vmscheduler_objective_value:
  - Type: Gauge
  - Scaled objective value of the last optimal/feasible solve

vmscheduler_servers_used / vmscheduler_servers_idle:
  - Type: Gauge
  - Count of servers hosting at least one replica, and count hosting none

vmscheduler_config_load_duration_seconds:
  - Type: Histogram
  - Time to load and validate a preset directory

# Usage

	timer := metrics.NewTimer()
	result, err := scheduler.Solve(ctx)
	timer.ObserveDuration(metrics.SolveDuration)
	metrics.SolveStatus.WithLabelValues(status.String()).Inc()

	http.Handle("/metrics", metrics.Handler())

# See Also

  - pkg/scheduler - produces the solve series
  - cmd/scheduler - records vmscheduler_config_load_duration_seconds
  - cmd/scheduler - the --metrics-addr flag that exposes them
*/
package metrics
