package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/vmscheduler/pkg/scheduler"
	"github.com/cuemby/vmscheduler/pkg/types"
)

func writePreset(t *testing.T, servers, processes, constraints string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "servers.yml"), []byte(servers), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "processes.yml"), []byte(processes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "constraints.yml"), []byte(constraints), 0o644))
	return dir
}

const minimalServers = `
servers:
  - name: s1
    ram: 16
    cpu: 4
    disk: 100
    bandwidth: 1000
`

const minimalProcesses = `
processes:
  - name: p1
    ram: 8
    disk: 10
    bandwidth: 100
`

const minimalConstraints = `
constraints:
  max-ram-usage-per-server: 80
`

func TestLoadMinimalPreset(t *testing.T) {
	dir := writePreset(t, minimalServers, minimalProcesses, minimalConstraints)

	preset, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, preset.Servers, 1)
	require.Len(t, preset.Processes, 1)

	assert.Equal(t, "s1", preset.Servers[0].Name)
	assert.Equal(t, int64(16), preset.Servers[0].RAM)
	assert.Equal(t, int64(4), preset.Servers[0].CPU)
	assert.False(t, preset.Servers[0].GreenEnergy)

	assert.Equal(t, "p1", preset.Processes[0].Name)
	assert.Equal(t, 1, preset.Processes[0].BaseReplicas())
	assert.Equal(t, types.LocationPolicyNone, preset.Processes[0].LocationPolicy)

	assert.Equal(t, 80.0, preset.Constraints.MaxRAMUsagePerServer)
	assert.True(t, preset.Constraints.HasMaxRAMUsagePerServer)
	assert.Equal(t, types.LoadBalancingNone, preset.Constraints.LoadBalancingStrategy,
		"an absent strategy must stay empty, not default to a real one")
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	require.Error(t, err)

	var schedErr *scheduler.Error
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, scheduler.ConfigNotFound, schedErr.Kind)
}

func TestLoadMissingRequiredServerField(t *testing.T) {
	servers := `
servers:
  - name: s1
    cpu: 4
    disk: 100
    bandwidth: 1000
`
	dir := writePreset(t, servers, minimalProcesses, minimalConstraints)

	_, err := Load(dir)
	require.Error(t, err)

	var schedErr *scheduler.Error
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, scheduler.ConfigMalformed, schedErr.Kind)
}

func TestLoadMissingRequiredProcessField(t *testing.T) {
	processes := `
processes:
  - name: p1
    disk: 10
    bandwidth: 100
`
	dir := writePreset(t, minimalServers, processes, minimalConstraints)

	_, err := Load(dir)
	require.Error(t, err)

	var schedErr *scheduler.Error
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, scheduler.ConfigMalformed, schedErr.Kind)
}

func TestGreenEnergySpellingPrecedence(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want bool
	}{
		{
			name: "contractual misspelling only",
			yaml: `
servers:
  - {name: s1, ram: 1, cpu: 1, disk: 1, bandwidth: 1, green-enegery: true}
`,
			want: true,
		},
		{
			name: "corrected spelling only",
			yaml: `
servers:
  - {name: s1, ram: 1, cpu: 1, disk: 1, bandwidth: 1, green-energy: true}
`,
			want: true,
		},
		{
			name: "misspelling wins when both present",
			yaml: `
servers:
  - {name: s1, ram: 1, cpu: 1, disk: 1, bandwidth: 1, green-enegery: false, green-energy: true}
`,
			want: false,
		},
		{
			name: "neither present",
			yaml: `
servers:
  - {name: s1, ram: 1, cpu: 1, disk: 1, bandwidth: 1}
`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePreset(t, tt.yaml, minimalProcesses, minimalConstraints)
			preset, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, preset.Servers[0].GreenEnergy)
		})
	}
}

func TestPercentageAsStringOrNumber(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want float64
	}{
		{name: "bare number", yaml: "constraints:\n  max-ram-usage-per-server: 80\n", want: 80},
		{name: "percent string", yaml: "constraints:\n  max-ram-usage-per-server: \"80%\"\n", want: 80},
		{name: "fractional string", yaml: "constraints:\n  max-ram-usage-per-server: \"72.5%\"\n", want: 72.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePreset(t, minimalServers, minimalProcesses, tt.yaml)
			preset, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, preset.Constraints.MaxRAMUsagePerServer)
		})
	}
}

func TestMaxProcessesPerServerPresenceTracking(t *testing.T) {
	dir := writePreset(t, minimalServers, minimalProcesses, "constraints:\n  max-processes-per-server: 0\n")
	preset, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, preset.Constraints.HasMaxProcessesPerServer)
	assert.Equal(t, 0, preset.Constraints.MaxProcessesPerServer)

	dir2 := writePreset(t, minimalServers, minimalProcesses, minimalConstraints)
	preset2, err := Load(dir2)
	require.NoError(t, err)
	assert.False(t, preset2.Constraints.HasMaxProcessesPerServer)
}

func TestForcedIdleServersLoaded(t *testing.T) {
	constraints := `
constraints:
  forced-idle-servers: [s2, s3]
`
	dir := writePreset(t, minimalServers, minimalProcesses, constraints)
	preset, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s3"}, preset.Constraints.ForcedIdleServers)
}

func TestOptimizationPrioritiesDropsUnrecognized(t *testing.T) {
	constraints := `
constraints:
  optimization-priorities: [load-balancing, bogus, cost]
`
	dir := writePreset(t, minimalServers, minimalProcesses, constraints)
	preset, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []types.OptimizationPriority{types.PriorityLoadBalancing, types.PriorityCost}, preset.Constraints.OptimizationPriorities)
}

// Presets write enum values hyphenated; the underscore spellings are
// accepted too.
func TestLoadBalancingStrategyAcceptsBothSpellings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want types.LoadBalancingStrategy
	}{
		{name: "hyphenated round-robin", yaml: "constraints:\n  load-balancing-strategy: round-robin\n", want: types.LoadBalancingRoundRobin},
		{name: "hyphenated bin-packing", yaml: "constraints:\n  load-balancing-strategy: bin-packing\n", want: types.LoadBalancingBinPacking},
		{name: "hyphenated weighted-capacity", yaml: "constraints:\n  load-balancing-strategy: weighted-capacity\n", want: types.LoadBalancingWeightedCapacity},
		{name: "underscore round_robin", yaml: "constraints:\n  load-balancing-strategy: round_robin\n", want: types.LoadBalancingRoundRobin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePreset(t, minimalServers, minimalProcesses, tt.yaml)
			preset, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, preset.Constraints.LoadBalancingStrategy)
		})
	}
}

func TestOptimizationPrioritiesAcceptHyphenatedSpelling(t *testing.T) {
	constraints := `
constraints:
  optimization-priorities: [load-balancing, green-energy, cost]
`
	dir := writePreset(t, minimalServers, minimalProcesses, constraints)
	preset, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []types.OptimizationPriority{
		types.PriorityLoadBalancing,
		types.PriorityGreenEnergy,
		types.PriorityCost,
	}, preset.Constraints.OptimizationPriorities)
}

func TestExplicitZeroPercentCapIsTrackedAsConfigured(t *testing.T) {
	dir := writePreset(t, minimalServers, minimalProcesses, "constraints:\n  max-ram-usage-per-server: 0\n")
	preset, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, preset.Constraints.HasMaxRAMUsagePerServer)
	assert.Equal(t, 0.0, preset.Constraints.MaxRAMUsagePerServer)

	dir2 := writePreset(t, minimalServers, minimalProcesses, "constraints: {}\n")
	preset2, err := Load(dir2)
	require.NoError(t, err)
	assert.False(t, preset2.Constraints.HasMaxRAMUsagePerServer)
}
