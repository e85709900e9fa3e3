package scheduler

import (
	"gopkg.in/yaml.v3"

	"github.com/cuemby/vmscheduler/pkg/solver"
	"github.com/cuemby/vmscheduler/pkg/types"
)

// CostWarning is the budget-overrun hint issued whenever the reported
// daily cost exceeds max-daily-cost.
const CostWarning = "To strictly enforce the budget, try reducing the max-daily-cost constraint by 5-10%."

// Result is the normalized allocation record produced by one solve,
// serializable as YAML per the output contract.
type Result struct {
	RunID       string              `yaml:"run_id"`
	Status      string              `yaml:"status"`
	Servers     []ServerAllocation  `yaml:"servers"`
	Utilization []ServerUtilization `yaml:"utilization"`
	CostWarning string              `yaml:"cost_warning,omitempty"`
}

// ServerAllocation is the set of process replicas placed on one
// server.
type ServerAllocation struct {
	Name      string              `yaml:"name"`
	Processes []ProcessAllocation `yaml:"processes"`
}

// UnmarshalYAML decodes a server allocation and reads an empty
// processes list back as nil, the form ExtractResult gives a server
// with no placed replica, so a marshal/unmarshal round trip yields an
// equal record.
func (a *ServerAllocation) UnmarshalYAML(node *yaml.Node) error {
	type plain ServerAllocation
	var out plain
	if err := node.Decode(&out); err != nil {
		return err
	}
	if len(out.Processes) == 0 {
		out.Processes = nil
	}
	*a = ServerAllocation(out)
	return nil
}

// ProcessAllocation is one placed replica.
type ProcessAllocation struct {
	Name     string `yaml:"name"`
	Replica  int    `yaml:"replica"`
	Location string `yaml:"location,omitempty"`
}

// ServerUtilization is the post-hoc resource and cost accounting for
// one server.
type ServerUtilization struct {
	Name string `yaml:"name"`

	RAMUsed    float64 `yaml:"ram_used"`
	RAMTotal   int64   `yaml:"ram_total"`
	RAMPercent float64 `yaml:"ram_percent"`

	CPUUsed    float64 `yaml:"cpu_used"`
	CPUTotal   int64   `yaml:"cpu_total"`
	CPUPercent float64 `yaml:"cpu_percent"`

	DiskUsed    float64 `yaml:"disk_used"`
	DiskTotal   int64   `yaml:"disk_total"`
	DiskPercent float64 `yaml:"disk_percent"`

	BandwidthUsed    float64 `yaml:"bandwidth_used"`
	BandwidthTotal   int64   `yaml:"bandwidth_total"`
	BandwidthPercent float64 `yaml:"bandwidth_percent"`

	ProcessCount int     `yaml:"process_count"`
	Energy       float64 `yaml:"energy"`
	Cost         float64 `yaml:"cost"`
	Green        bool    `yaml:"green"`
	Location     string  `yaml:"location,omitempty"`
}

func percent(used float64, total int64) float64 {
	if total == 0 {
		return 0
	}
	return used / float64(total) * 100
}

// ExtractResult reads a solved Assignment into a Result. The reported
// energy is (cpu_used*24 + ram_used*5)/1000 kWh and the cost is
// energy * energy_cost * 24, a deliberately different model than the
// constraint-time cost coefficients in constraints.go - see DESIGN.md
// on cost model vs. reported cost. This function is the authoritative
// source for the allocation's reported shape; it does not affect
// feasibility, which was already decided by the solver.
func ExtractResult(v *Variables, assignment *solver.Assignment, status solver.Status, runID string) *Result {
	allocations := make([]ServerAllocation, len(v.Servers))
	for si, s := range v.Servers {
		allocations[si] = ServerAllocation{Name: s.Name}
	}
	utilization := make([]ServerUtilization, len(v.Servers))
	for si, s := range v.Servers {
		utilization[si] = ServerUtilization{
			Name:     s.Name,
			RAMTotal: s.RAM, CPUTotal: s.CPU, DiskTotal: s.Disk, BandwidthTotal: s.Bandwidth,
			Green:    s.GreenEnergy,
			Location: s.Location,
		}
	}

	if assignment != nil {
		for _, key := range v.AllKeys() {
			p := v.Processes[key.ProcessIndex]
			for _, si := range v.EligibleServersFor(key.ProcessIndex, key.Replica) {
				bv, _ := v.Lit(key.ProcessIndex, key.Replica, si)
				if !assignment.BooleanValue(bv) {
					continue
				}

				replicaIndex := key.Replica + 1
				if p.LocationPolicy == types.LocationPolicyRedundant && len(p.Location) > 0 {
					base := p.BaseReplicas()
					if base > 0 {
						replicaIndex = (key.Replica % base) + 1
					}
				}

				s := v.Servers[si]
				allocations[si].Processes = append(allocations[si].Processes, ProcessAllocation{
					Name:     p.Name,
					Replica:  replicaIndex,
					Location: s.Location,
				})

				u := &utilization[si]
				u.RAMUsed += p.RAM
				u.CPUUsed += cpuDemand(p, s)
				u.DiskUsed += p.Disk
				u.BandwidthUsed += p.Bandwidth
				u.ProcessCount++
			}
		}
	}

	totalCost := 0.0
	for si, s := range v.Servers {
		u := &utilization[si]
		u.RAMPercent = percent(u.RAMUsed, u.RAMTotal)
		u.CPUPercent = percent(u.CPUUsed, u.CPUTotal)
		u.DiskPercent = percent(u.DiskUsed, u.DiskTotal)
		u.BandwidthPercent = percent(u.BandwidthUsed, u.BandwidthTotal)

		u.Energy = (u.CPUUsed*24 + u.RAMUsed*5) / 1000
		u.Cost = u.Energy * s.EnergyCost * 24
		totalCost += u.Cost
	}

	result := &Result{
		RunID:       runID,
		Status:      status.String(),
		Servers:     allocations,
		Utilization: utilization,
	}
	if v.Constraints.HasMaxDailyCost && totalCost > v.Constraints.MaxDailyCost {
		result.CostWarning = CostWarning
	}
	return result
}
