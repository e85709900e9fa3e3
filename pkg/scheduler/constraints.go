package scheduler

import (
	"math"

	"github.com/cuemby/vmscheduler/pkg/log"
	"github.com/cuemby/vmscheduler/pkg/metrics"
	"github.com/cuemby/vmscheduler/pkg/solver"
	"github.com/cuemby/vmscheduler/pkg/types"
)

// BuildConstraints emits every constraint family in a fixed order:
// uniqueness, location filter, redundancy partition, single-policy
// distinctness, OS, scope, affinity, anti-affinity, capacity,
// max-processes, critical isolation, energy cap, daily cost cap,
// forced idle. Order affects neither correctness nor solver
// performance materially; it is kept stable because it makes
// ConstraintsEmitted's per-family counts reproducible across runs on
// the same preset.
func BuildConstraints(model *solver.Model, v *Variables) error {
	emitUniqueness(model, v)
	emitRedundancyAndDistinctness(model, v)
	emitOSAndScope(model, v)
	emitAffinity(model, v)
	emitAntiAffinity(model, v)
	if err := emitCapacity(model, v); err != nil {
		return err
	}
	emitMaxProcesses(model, v)
	emitCriticalIsolation(model, v)
	emitEnergyCap(model, v)
	if err := emitDailyCostCap(model, v); err != nil {
		return err
	}
	emitForcedIdle(model, v)
	return nil
}

func count(family string, n int) {
	metrics.ConstraintsEmitted.WithLabelValues(family).Add(float64(n))
}

// emitUniqueness enforces exactly one server per replica. The
// location filter is already applied by Variables.eligibleServers, so
// this sum ranges only over eligible servers - an x[p,r,s]=0 for an
// ineligible server is implicit in never having a variable for it.
func emitUniqueness(model *solver.Model, v *Variables) {
	n := 0
	for _, key := range v.AllKeys() {
		expr := solver.NewLinearExpr()
		for _, si := range v.EligibleServersFor(key.ProcessIndex, key.Replica) {
			bv, _ := v.Lit(key.ProcessIndex, key.Replica, si)
			expr = expr.Plus(bv, 1)
		}
		model.Add(expr, solver.EQ, 1).WithName("uniqueness")
		n++
	}
	count("uniqueness", n)
}

// emitRedundancyAndDistinctness enforces, per chunk, that exactly
// base_replicas land in the chunk's allowed servers (implied already
// by uniqueness plus eligibility for redundant chunks) and that no two
// replicas of the same chunk share a server once the chunk has more
// than one replica. Distinctness applies to redundant chunks (pinned to
// a location) and to single-policy processes; the replicas of any other
// process may share a server.
func emitRedundancyAndDistinctness(model *solver.Model, v *Variables) {
	n := 0
	for pi, chunks := range v.Chunks {
		for _, chunk := range chunks {
			if len(chunk.Replicas) < 2 {
				continue
			}
			if chunk.Location == "" && v.Processes[pi].LocationPolicy != types.LocationPolicySingle {
				continue
			}
			servers := v.EligibleServersFor(pi, chunk.Replicas[0])
			for _, si := range servers {
				for i := 0; i < len(chunk.Replicas); i++ {
					for j := i + 1; j < len(chunk.Replicas); j++ {
						b1, ok1 := v.Lit(pi, chunk.Replicas[i], si)
						b2, ok2 := v.Lit(pi, chunk.Replicas[j], si)
						if !ok1 || !ok2 {
							continue
						}
						model.Add(
							solver.NewLinearExpr().Plus(b1, 1).Plus(b2, 1),
							solver.LE, 1,
						).WithName("distinctness")
						n++
					}
				}
			}
		}
	}
	count("redundancy-distinctness", n)
}

func emitOSAndScope(model *solver.Model, v *Variables) {
	// OS and scope compatibility are enforced by Variables never
	// creating a variable for an incompatible (process, server) pair;
	// there is nothing left to constrain here. The family is still
	// counted at zero so the metric always carries the label.
	count("os-scope", 0)
}

// emitAffinity encodes, for each replica of a process naming an
// affinity target, the existential clause
// not(x[P,r,s]) or (at least one replica of the target process is also
// on s). A target name with no matching process in the model is
// logged and skipped, never aborted.
func emitAffinity(model *solver.Model, v *Variables) {
	byName := make(map[string][]int)
	for pi, p := range v.Processes {
		byName[p.Name] = append(byName[p.Name], pi)
	}

	n := 0
	for pi, p := range v.Processes {
		for _, target := range p.Affinity {
			targets, ok := byName[target]
			if !ok {
				logger := log.WithComponent("scheduler")
				logger.Warn().
					Str("process", p.Name).Str("target", target).
					Msg("affinity target not found, dropping constraint")
				continue
			}
			for _, chunk := range v.Chunks[pi] {
				for _, r := range chunk.Replicas {
					for _, si := range v.EligibleServersFor(pi, r) {
						self, _ := v.Lit(pi, r, si)
						lits := []solver.Literal{self.Not()}
						for _, tpi := range targets {
							if tpi == pi {
								continue
							}
							for _, tchunk := range v.Chunks[tpi] {
								for _, tr := range tchunk.Replicas {
									if tv, ok := v.Lit(tpi, tr, si); ok {
										lits = append(lits, tv.Lit())
									}
								}
							}
						}
						// A clause with no candidate target literal
						// degenerates to "this replica may not be on s";
						// it still has to be emitted, or the solver could
						// place the replica there without any partner.
						model.AddBoolOr(lits...).WithName("affinity")
						n++
					}
				}
			}
		}
	}
	count("affinity", n)
}

// emitAntiAffinity forbids a server from hosting both a replica of P
// and a replica of any process named in P's non_affinity list. A
// process naming itself is silently ignored.
func emitAntiAffinity(model *solver.Model, v *Variables) {
	byName := make(map[string][]int)
	for pi, p := range v.Processes {
		byName[p.Name] = append(byName[p.Name], pi)
	}

	n := 0
	for pi, p := range v.Processes {
		for _, target := range p.NonAffinity {
			if target == p.Name {
				continue
			}
			targets, ok := byName[target]
			if !ok {
				logger := log.WithComponent("scheduler")
				logger.Warn().
					Str("process", p.Name).Str("target", target).
					Msg("non-affinity target not found, dropping constraint")
				continue
			}
			for _, chunk := range v.Chunks[pi] {
				for _, r := range chunk.Replicas {
					for _, si := range v.EligibleServersFor(pi, r) {
						b1, _ := v.Lit(pi, r, si)
						for _, tpi := range targets {
							for _, tchunk := range v.Chunks[tpi] {
								for _, tr := range tchunk.Replicas {
									b2, ok := v.Lit(tpi, tr, si)
									if !ok {
										continue
									}
									model.Add(
										solver.NewLinearExpr().Plus(b1, 1).Plus(b2, 1),
										solver.LE, 1,
									).WithName("anti-affinity")
									n++
								}
							}
						}
					}
				}
			}
		}
	}
	count("anti-affinity", n)
}

// addScaled appends coeff*bv to expr while accumulating the coefficient
// magnitude in sum, so a model whose scaled demand sums could exceed
// the solver's 64-bit range is rejected up front instead of silently
// wrapping inside the search.
func addScaled(expr solver.LinearExpr, bv solver.BoolVar, coeff int64, sum *int64) (solver.LinearExpr, error) {
	c := coeff
	if c < 0 {
		c = -c
	}
	if *sum > math.MaxInt64-c {
		return expr, NewOverflowError("scaled demand sum exceeds representable range")
	}
	*sum += c
	return expr.Plus(bv, coeff), nil
}

// emitCapacity bounds, per server and per resource, the scaled sum of
// placed demand by the scaled, percentage-capped server capacity. CPU
// uses the server-dependent coefficient from cpuDemand rather than a
// per-process constant.
func emitCapacity(model *solver.Model, v *Variables) error {
	n := 0
	for si, s := range v.Servers {
		ram := solver.NewLinearExpr()
		cpu := solver.NewLinearExpr()
		disk := solver.NewLinearExpr()
		bw := solver.NewLinearExpr()
		var sumRAM, sumCPU, sumDisk, sumBW int64

		for _, key := range v.AllKeys() {
			bv, ok := v.Lit(key.ProcessIndex, key.Replica, si)
			if !ok {
				continue
			}
			p := v.Processes[key.ProcessIndex]
			var err error
			if ram, err = addScaled(ram, bv, scale(p.RAM), &sumRAM); err != nil {
				return err
			}
			if cpu, err = addScaled(cpu, bv, scale(cpuDemand(p, s)), &sumCPU); err != nil {
				return err
			}
			if disk, err = addScaled(disk, bv, scale(p.Disk), &sumDisk); err != nil {
				return err
			}
			if bw, err = addScaled(bw, bv, scale(p.Bandwidth), &sumBW); err != nil {
				return err
			}
		}

		c := v.Constraints
		model.Add(ram, solver.LE, scaleCapacity(s.RAM, c.MaxRAMUsagePerServer, c.HasMaxRAMUsagePerServer)).WithName("capacity-ram")
		model.Add(cpu, solver.LE, scaleCapacity(s.CPU, c.MaxCPUUsagePerServer, c.HasMaxCPUUsagePerServer)).WithName("capacity-cpu")
		model.Add(disk, solver.LE, scaleCapacity(s.Disk, c.MaxDiskUsagePerServer, c.HasMaxDiskUsagePerServer)).WithName("capacity-disk")
		model.Add(bw, solver.LE, scaleCapacity(s.Bandwidth, c.MaxBandwidthUsagePerServer, c.HasMaxBandwidthUsagePerServer)).WithName("capacity-bandwidth")
		n += 4
	}
	count("capacity", n)
	return nil
}

func emitMaxProcesses(model *solver.Model, v *Variables) {
	if !v.Constraints.HasMaxProcessesPerServer {
		count("max-processes", 0)
		return
	}
	n := 0
	for si := range v.Servers {
		model.Add(v.ProcessCount(si), solver.LE, int64(v.Constraints.MaxProcessesPerServer)).WithName("max-processes")
		n++
	}
	count("max-processes", n)
}

// emitCriticalIsolation forbids a server from hosting both a critical
// and a non-critical replica when the policy is enabled.
func emitCriticalIsolation(model *solver.Model, v *Variables) {
	if !v.Constraints.IsolateCriticalProcesses {
		count("critical-isolation", 0)
		return
	}
	n := 0
	for si := range v.Servers {
		var critical, nonCritical []solver.BoolVar
		for _, key := range v.AllKeys() {
			bv, ok := v.Lit(key.ProcessIndex, key.Replica, si)
			if !ok {
				continue
			}
			if v.Processes[key.ProcessIndex].Critical {
				critical = append(critical, bv)
			} else {
				nonCritical = append(nonCritical, bv)
			}
		}
		for _, c := range critical {
			for _, nc := range nonCritical {
				model.Add(
					solver.NewLinearExpr().Plus(c, 1).Plus(nc, 1),
					solver.LE, 1,
				).WithName("critical-isolation")
				n++
			}
		}
	}
	count("critical-isolation", n)
}

// emitEnergyCap bounds the scaled sum of
// (process.ram/server.ram*server.cpu*10 + ln(1+process.ram)) per
// server when a cap is configured.
func emitEnergyCap(model *solver.Model, v *Variables) {
	if !v.Constraints.HasMaxEnergyConsumption {
		count("energy-cap", 0)
		return
	}
	n := 0
	for si, s := range v.Servers {
		expr := solver.NewLinearExpr()
		for _, key := range v.AllKeys() {
			bv, ok := v.Lit(key.ProcessIndex, key.Replica, si)
			if !ok {
				continue
			}
			p := v.Processes[key.ProcessIndex]
			derivedCPU := 0.0
			if s.RAM != 0 {
				derivedCPU = p.RAM / float64(s.RAM) * float64(s.CPU)
			}
			coeff := derivedCPU*10 + math.Log(1+p.RAM)
			expr = expr.Plus(bv, scale(coeff))
		}
		model.Add(expr, solver.LE, scale(v.Constraints.MaxEnergyConsumptionPerServer)).WithName("energy-cap")
		n++
	}
	count("energy-cap", n)
}

// costCentsCoefficient is the per-(process,server) cost contribution
// used by both the daily-cost constraint and the cost objective term:
// (process.cpu*10 + process.ram) * 24/1000 * server.energy_cost * 100,
// in integer cents. It intentionally does not match result.go's report
// formula - see DESIGN.md on cost model vs. reported cost.
func costCentsCoefficient(p types.Process, s types.Server, cpu float64) int64 {
	return int64(math.Round((cpu*10+p.RAM) * 24 / 1000 * s.EnergyCost * 100))
}

// idlePowerFactorCents is the idle surcharge counted once per server
// that ends up used, in cents.
func idlePowerFactorCents(s types.Server) int64 {
	return int64(math.Round(s.EnergyCost * 100))
}

// emitDailyCostCap bounds total_cost = sum_s (process cost + idle
// cost) by max_daily_cost (in cents) when a cap is configured.
func emitDailyCostCap(model *solver.Model, v *Variables) error {
	if !v.Constraints.HasMaxDailyCost {
		count("daily-cost-cap", 0)
		return nil
	}
	total := solver.NewLinearExpr()
	var sum int64
	for si, s := range v.Servers {
		if s.EnergyCost == 0 {
			continue
		}
		for _, key := range v.AllKeys() {
			bv, ok := v.Lit(key.ProcessIndex, key.Replica, si)
			if !ok {
				continue
			}
			p := v.Processes[key.ProcessIndex]
			coeff := costCentsCoefficient(p, s, cpuDemand(p, s))
			var err error
			if total, err = addScaled(total, bv, coeff, &sum); err != nil {
				return err
			}
		}
		var err error
		if total, err = addScaled(total, v.ServerUsed[si], idlePowerFactorCents(s), &sum); err != nil {
			return err
		}
	}
	capCents := int64(math.Round(v.Constraints.MaxDailyCost * 100))
	model.Add(total, solver.LE, capCents).WithName("daily-cost-cap")
	count("daily-cost-cap", 1)
	return nil
}

// emitForcedIdle requires at least servers_for_redundancy servers to
// carry zero replicas.
func emitForcedIdle(model *solver.Model, v *Variables) {
	k := v.Constraints.ServersForRedundancy
	if k <= 0 {
		count("forced-idle", 0)
		return
	}
	expr := solver.NewLinearExpr()
	for _, su := range v.ServerUsed {
		expr = expr.Plus(su, 1)
	}
	model.Add(expr, solver.LE, int64(len(v.Servers)-k)).WithName("forced-idle")
	count("forced-idle", 1)
}
