/*
Package types defines the core data structures used throughout vmscheduler.

This package contains the domain model shared by pkg/config, pkg/scheduler,
and cmd/scheduler: the physical servers, the processes (workload units with
replicas) to be placed on them, and the global placement constraints that
bound and shape that placement.

# Architecture

The types package is the foundation of vmscheduler's data model. It defines:

  - Server: a physical machine with RAM/CPU/disk/bandwidth capacity and
    optional location, OS, scope, and energy attributes.
  - Process: a workload unit with resource demands, a replica count, and
    optional placement rules (location, affinity, OS/scope compatibility).
  - Constraints: the global caps and preferences that apply across the
    whole placement (utilization caps, redundancy, load-balancing
    strategy, optimization priorities).

All types are immutable once a config.Preset has finished loading — see
pkg/scheduler for how they are consumed during one solve.

# Core Types

	Server:     identity + capacities + optional location/os/scope/energy
	Process:    identity + demands + replicas + placement rules
	Constraints: global caps, redundancy, load-balancing, priorities

# See Also

  - pkg/config - loads these types from YAML
  - pkg/scheduler - builds a solve from these types
*/
package types
