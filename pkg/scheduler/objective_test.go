package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/vmscheduler/pkg/types"
)

func TestPriorityWeight(t *testing.T) {
	ranked := []types.OptimizationPriority{
		types.PriorityCost,
		types.PriorityLoadBalancing,
	}

	tests := []struct {
		name     string
		priority types.OptimizationPriority
		want     int64
	}{
		{name: "first ranked gets 10^4", priority: types.PriorityCost, want: 10000},
		{name: "second ranked gets 10^3", priority: types.PriorityLoadBalancing, want: 1000},
		{name: "unranked gets default over ten", priority: types.PriorityGreenEnergy, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, priorityWeight(tt.priority, ranked))
		})
	}
}

func TestPriorityWeightEmptyRankingFallsBackToDefaults(t *testing.T) {
	assert.Equal(t, int64(1000), priorityWeight(types.PriorityLoadBalancing, nil))
	assert.Equal(t, int64(100), priorityWeight(types.PriorityGreenEnergy, nil))
	assert.Equal(t, int64(10), priorityWeight(types.PriorityCost, nil))
}

// Bin packing should consolidate replicas onto as few servers as
// possible rather than spreading them.
func TestBinPackingConsolidatesOntoOneServer(t *testing.T) {
	servers := []types.Server{
		{Name: "s1", RAM: 16, CPU: 4, Disk: 100, Bandwidth: 1000},
		{Name: "s2", RAM: 16, CPU: 4, Disk: 100, Bandwidth: 1000},
	}
	processes := []types.Process{
		{Name: "p", RAM: 2, CPU: 1, Disk: 1, Bandwidth: 1, Replicas: 1},
		{Name: "q", RAM: 2, CPU: 1, Disk: 1, Bandwidth: 1, Replicas: 1},
	}

	result := solve(t, servers, processes, types.Constraints{LoadBalancingStrategy: types.LoadBalancingBinPacking})
	require.Equal(t, "optimal", result.Status)

	used := 0
	for _, s := range result.Servers {
		if len(s.Processes) > 0 {
			used++
		}
	}
	assert.Equal(t, 1, used)
}

// Weighted capacity should hand each server a replica share
// proportional to its slice of the pool's RAM and CPU.
func TestWeightedCapacityFollowsServerShares(t *testing.T) {
	servers := []types.Server{
		{Name: "big", RAM: 30, CPU: 3, Disk: 100, Bandwidth: 1000},
		{Name: "small", RAM: 10, CPU: 1, Disk: 100, Bandwidth: 1000},
	}
	processes := make([]types.Process, 4)
	for i := range processes {
		processes[i] = types.Process{
			Name: string(rune('p' + i)), RAM: 1, CPU: 0.5, Disk: 1, Bandwidth: 1, Replicas: 1,
		}
	}

	result := solve(t, servers, processes, types.Constraints{LoadBalancingStrategy: types.LoadBalancingWeightedCapacity})
	require.Equal(t, "optimal", result.Status)

	counts := map[string]int{}
	for _, s := range result.Servers {
		counts[s.Name] = len(s.Processes)
	}
	assert.Equal(t, 3, counts["big"])
	assert.Equal(t, 1, counts["small"])
}
