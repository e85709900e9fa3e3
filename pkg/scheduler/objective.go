package scheduler

import (
	"math"

	"github.com/cuemby/vmscheduler/pkg/log"
	"github.com/cuemby/vmscheduler/pkg/solver"
	"github.com/cuemby/vmscheduler/pkg/types"
)

// priorityWeight returns the weight for priority given the ranked
// optimization_priorities list: the priority at index i gets
// 10^(4-i); a recognized priority left off the list gets its default
// weight divided by ten instead of zero.
func priorityWeight(priority types.OptimizationPriority, ranked []types.OptimizationPriority) int64 {
	for i, p := range ranked {
		if p == priority {
			return int64(math.Pow(10, float64(4-i)))
		}
	}
	return types.DefaultPriorityWeights[priority] / 10
}

// BuildObjective constructs the single maximized weighted sum out of
// the load-balancing, green-energy, and cost sub-objectives and calls
// model.Maximize. If no term applies (no strategy configured, no
// green preference, no energy costs configured) the model is left
// without an objective, and any feasible solution is acceptable.
func BuildObjective(model *solver.Model, v *Variables) {
	terms := solver.NewLinearExpr()
	hasTerm := false

	if lb, ok := loadBalancingTerm(model, v); ok {
		terms = addExpr(terms, lb)
		hasTerm = true
	}
	if ge, ok := greenEnergyTerm(model, v); ok {
		terms = addExpr(terms, ge)
		hasTerm = true
	}
	if cost, ok := costTerm(model, v); ok {
		terms = addExpr(terms, cost)
		hasTerm = true
	}

	if hasTerm {
		model.Maximize(terms)
	}
}

func addExpr(a, b solver.LinearExpr) solver.LinearExpr {
	out := a
	for _, t := range b.Terms {
		out = out.Plus(t.Var, t.Coeff)
	}
	return out.PlusConst(b.Const)
}

func totalReplicas(v *Variables) int64 {
	var total int64
	for pi := range v.Processes {
		total += int64(v.ReplicaCount(pi))
	}
	return total
}

func loadBalancingTerm(model *solver.Model, v *Variables) (solver.LinearExpr, bool) {
	w := priorityWeight(types.PriorityLoadBalancing, v.Constraints.OptimizationPriorities)
	total := totalReplicas(v)

	switch v.Constraints.LoadBalancingStrategy {
	case types.LoadBalancingNone:
		return solver.LinearExpr{}, false

	case types.LoadBalancingRoundRobin:
		m := model.NewIntVar(0, total, "max_process_count")
		for si := range v.Servers {
			model.Add(v.ProcessCount(si).Plus(m, -1), solver.LE, 0).WithName("round-robin-envelope")
		}
		return solver.NewLinearExpr().Plus(m, -w), true

	case types.LoadBalancingBinPacking:
		expr := solver.NewLinearExpr()
		for _, su := range v.ServerUsed {
			expr = expr.Plus(su, -w)
		}
		return expr, true

	case types.LoadBalancingWeightedCapacity:
		return weightedCapacityTerm(model, v, w), true

	default:
		logger := log.WithComponent("scheduler")
		logger.Warn().
			Str("strategy", string(v.Constraints.LoadBalancingStrategy)).
			Msg("unrecognized load balancing strategy, skipping load-balancing objective term")
		return solver.LinearExpr{}, false
	}
}

// weightedCapacityTerm targets each server with a replica share
// proportional to the average of its RAM and CPU share of the whole
// pool, and penalizes the absolute deviation of actual placement from
// that target.
func weightedCapacityTerm(model *solver.Model, v *Variables, w int64) solver.LinearExpr {
	var sumRAM, sumCPU int64
	for _, s := range v.Servers {
		sumRAM += s.RAM
		sumCPU += s.CPU
	}
	total := float64(totalReplicas(v))

	expr := solver.NewLinearExpr()
	for si, s := range v.Servers {
		share := 0.0
		if sumRAM > 0 {
			share += float64(s.RAM) / float64(sumRAM)
		}
		if sumCPU > 0 {
			share += float64(s.CPU) / float64(sumCPU)
		}
		share /= 2

		target := int64(math.Round(total * share))
		bound := totalReplicas(v)

		dev := model.NewIntVar(-bound, bound, "deviation")
		model.Add(v.ProcessCount(si).Plus(dev, -1), solver.EQ, target).WithName("weighted-capacity-deviation")

		abs := model.NewIntVar(0, bound, "abs_deviation")
		model.Add(solver.NewLinearExpr().Plus(dev, 1).Plus(abs, -1), solver.LE, 0).WithName("weighted-capacity-abs-lower")
		model.Add(solver.NewLinearExpr().Plus(dev, -1).Plus(abs, -1), solver.LE, 0).WithName("weighted-capacity-abs-upper")

		expr = expr.Plus(abs, -w)
	}
	return expr
}

func greenEnergyTerm(model *solver.Model, v *Variables) (solver.LinearExpr, bool) {
	if !v.Constraints.PrioritizeGreenEnergy {
		return solver.LinearExpr{}, false
	}
	w := priorityWeight(types.PriorityGreenEnergy, v.Constraints.OptimizationPriorities)

	expr := solver.NewLinearExpr()
	found := false
	for _, key := range v.AllKeys() {
		for _, si := range v.EligibleServersFor(key.ProcessIndex, key.Replica) {
			if !v.Servers[si].GreenEnergy {
				continue
			}
			bv, _ := v.Lit(key.ProcessIndex, key.Replica, si)
			expr = expr.Plus(bv, w)
			found = true
		}
	}
	return expr, found
}

func costTerm(model *solver.Model, v *Variables) (solver.LinearExpr, bool) {
	var maxPossible int64
	for _, p := range v.Processes {
		for _, s := range v.Servers {
			if s.EnergyCost == 0 {
				continue
			}
			c := costCentsCoefficient(p, s, cpuDemand(p, s))
			if c > maxPossible {
				maxPossible = c
			}
		}
	}
	if maxPossible <= 0 {
		return solver.LinearExpr{}, false
	}

	w := priorityWeight(types.PriorityCost, v.Constraints.OptimizationPriorities)
	expr := solver.NewLinearExpr()
	found := false
	for _, key := range v.AllKeys() {
		for _, si := range v.EligibleServersFor(key.ProcessIndex, key.Replica) {
			s := v.Servers[si]
			if s.EnergyCost == 0 {
				continue
			}
			p := v.Processes[key.ProcessIndex]
			c := costCentsCoefficient(p, s, cpuDemand(p, s))
			coeff := int64(math.Round(float64(c*w) / float64(maxPossible)))
			if coeff == 0 {
				continue
			}
			bv, _ := v.Lit(key.ProcessIndex, key.Replica, si)
			expr = expr.Plus(bv, -coeff)
			found = true
		}
	}
	return expr, found
}
