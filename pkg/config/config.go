// Package config loads the servers/processes/constraints preset
// directory into pkg/types values, following the same os.ReadFile +
// yaml.Unmarshal + wrapped-error pattern cmd/warren/apply.go used for
// loading a single resource file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/vmscheduler/pkg/log"
	"github.com/cuemby/vmscheduler/pkg/scheduler"
	"github.com/cuemby/vmscheduler/pkg/types"
)

// Preset is the fully parsed and validated contents of one preset
// directory.
type Preset struct {
	Servers     []types.Server
	Processes   []types.Process
	Constraints types.Constraints
}

// Load reads servers.yml, processes.yml, and constraints.yml from dir
// and returns a validated Preset. A missing file produces a
// *scheduler.Error of kind ConfigNotFound; a parse failure or a missing
// required field produces ConfigMalformed.
func Load(dir string) (*Preset, error) {
	servers, err := loadServers(filepath.Join(dir, "servers.yml"))
	if err != nil {
		return nil, err
	}
	processes, err := loadProcesses(filepath.Join(dir, "processes.yml"))
	if err != nil {
		return nil, err
	}
	constraints, err := loadConstraints(filepath.Join(dir, "constraints.yml"))
	if err != nil {
		return nil, err
	}

	return &Preset{Servers: servers, Processes: processes, Constraints: constraints}, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scheduler.NewConfigNotFoundError(path, err)
	}
	return data, nil
}

// --- servers.yml ---

type serversFile struct {
	Servers []rawServer `yaml:"servers"`
}

type rawServer struct {
	Name      string   `yaml:"name"`
	RAM       *int64   `yaml:"ram"`
	CPU       *int64   `yaml:"cpu"`
	Disk      *int64   `yaml:"disk"`
	Bandwidth *int64   `yaml:"bandwidth"`
	Location  string   `yaml:"geographical-location,omitempty"`
	OS        string   `yaml:"os,omitempty"`
	Scope     []string `yaml:"process-scope,omitempty"`

	// GreenEnegery is the contractual misspelling and wins over
	// GreenEnergy when both are present (Open Question (b)).
	GreenEnegery *bool `yaml:"green-enegery,omitempty"`
	GreenEnergy  *bool `yaml:"green-energy,omitempty"`

	EnergyCost float64 `yaml:"energy-cost,omitempty"`
}

func loadServers(path string) ([]types.Server, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var file serversFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, scheduler.NewConfigMalformedError(path, 0, "", err)
	}

	servers := make([]types.Server, 0, len(file.Servers))
	for i, raw := range file.Servers {
		if raw.RAM == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "ram", nil)
		}
		if raw.CPU == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "cpu", nil)
		}
		if raw.Disk == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "disk", nil)
		}
		if raw.Bandwidth == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "bandwidth", nil)
		}

		green := false
		switch {
		case raw.GreenEnegery != nil:
			green = *raw.GreenEnegery
		case raw.GreenEnergy != nil:
			green = *raw.GreenEnergy
		}

		servers = append(servers, types.Server{
			Name:        raw.Name,
			RAM:         *raw.RAM,
			CPU:         *raw.CPU,
			Disk:        *raw.Disk,
			Bandwidth:   *raw.Bandwidth,
			Location:    raw.Location,
			OS:          raw.OS,
			Scope:       raw.Scope,
			GreenEnergy: green,
			EnergyCost:  raw.EnergyCost,
		})
	}
	return servers, nil
}

// --- processes.yml ---

type processesFile struct {
	Processes []rawProcess `yaml:"processes"`
}

type rawProcess struct {
	Name      string   `yaml:"name"`
	RAM       *float64 `yaml:"ram"`
	Disk      *float64 `yaml:"disk"`
	Bandwidth *float64 `yaml:"bandwidth"`
	CPU       float64  `yaml:"cpu,omitempty"`

	Replicas       *int     `yaml:"replicas,omitempty"`
	Location       []string `yaml:"location,omitempty"`
	LocationPolicy string   `yaml:"location-policy,omitempty"`

	OS    string `yaml:"os,omitempty"`
	Scope string `yaml:"scope,omitempty"`

	Affinity    []string `yaml:"affinity,omitempty"`
	NonAffinity []string `yaml:"non-affinity,omitempty"`
	Critical    bool     `yaml:"critical,omitempty"`
}

func loadProcesses(path string) ([]types.Process, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var file processesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, scheduler.NewConfigMalformedError(path, 0, "", err)
	}

	processes := make([]types.Process, 0, len(file.Processes))
	for i, raw := range file.Processes {
		if raw.RAM == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "ram", nil)
		}
		if raw.Disk == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "disk", nil)
		}
		if raw.Bandwidth == nil {
			return nil, scheduler.NewConfigMalformedError(path, i, "bandwidth", nil)
		}

		policy := types.LocationPolicyNone
		if raw.LocationPolicy != "" {
			policy = types.LocationPolicy(raw.LocationPolicy)
		}

		replicas := 1
		if raw.Replicas != nil {
			replicas = *raw.Replicas
		}

		processes = append(processes, types.Process{
			Name:           raw.Name,
			RAM:            *raw.RAM,
			Disk:           *raw.Disk,
			Bandwidth:      *raw.Bandwidth,
			CPU:            raw.CPU,
			Replicas:       replicas,
			Location:       raw.Location,
			LocationPolicy: policy,
			OS:             raw.OS,
			Scope:          raw.Scope,
			Affinity:       raw.Affinity,
			NonAffinity:    raw.NonAffinity,
			Critical:       raw.Critical,
		})
	}
	return processes, nil
}

// --- constraints.yml ---

type constraintsFile struct {
	Constraints rawConstraints `yaml:"constraints"`
}

type rawConstraints struct {
	MaxRAMUsagePerServer       *percent `yaml:"max-ram-usage-per-server,omitempty"`
	MaxCPUUsagePerServer       *percent `yaml:"max-cpu-usage-per-server,omitempty"`
	MaxDiskUsagePerServer      *percent `yaml:"max-disk-usage-per-server,omitempty"`
	MaxBandwidthUsagePerServer *percent `yaml:"max-network-bandwidth-per-server,omitempty"`

	MaxProcessesPerServer *int `yaml:"max-processes-per-server,omitempty"`

	IsolateCriticalProcesses bool `yaml:"isolate-critical-processes,omitempty"`

	MaxEnergyConsumptionPerServer *float64 `yaml:"max-energy-consumption-per-server,omitempty"`
	MaxDailyCost                  *float64 `yaml:"max-daily-cost,omitempty"`

	ServersForRedundancy int `yaml:"servers-for-redundancy,omitempty"`

	LoadBalancingStrategy  string   `yaml:"load-balancing-strategy,omitempty"`
	PrioritizeGreenEnergy  bool     `yaml:"prioritize-green-energy,omitempty"`
	OptimizationPriorities []string `yaml:"optimization-priorities,omitempty"`

	// ForcedIdleServers names servers to exclude from placement entirely
	// for this run (e.g. drained ahead of decommission), so an operator
	// can drain a machine without hand-editing servers.yml.
	ForcedIdleServers []string `yaml:"forced-idle-servers,omitempty"`
}

// percent parses a constraint percentage that may be written as a bare
// number (80) or a string with a trailing percent sign ("80%").
type percent struct {
	value float64
}

func (p *percent) UnmarshalYAML(node *yaml.Node) error {
	var f float64
	if err := node.Decode(&f); err == nil {
		p.value = f
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("percentage value must be a number or a string like \"80%%\": %w", err)
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	p.value = f
	return nil
}

var validPriorities = map[string]types.OptimizationPriority{
	string(types.PriorityLoadBalancing): types.PriorityLoadBalancing,
	string(types.PriorityGreenEnergy):   types.PriorityGreenEnergy,
	string(types.PriorityCost):          types.PriorityCost,
}

// normalizeToken maps the hyphenated spellings presets use on enum
// values (round-robin, load-balancing, green-energy) onto the
// underscore constants in pkg/types. Both spellings are accepted.
func normalizeToken(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

func loadConstraints(path string) (types.Constraints, error) {
	data, err := readFile(path)
	if err != nil {
		return types.Constraints{}, err
	}

	var file constraintsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.Constraints{}, scheduler.NewConfigMalformedError(path, 0, "", err)
	}
	raw := file.Constraints

	// An absent load-balancing-strategy stays empty: no strategy means
	// no load-balancing objective term, not a silent round-robin.
	out := types.Constraints{
		IsolateCriticalProcesses: raw.IsolateCriticalProcesses,
		ServersForRedundancy:     raw.ServersForRedundancy,
		PrioritizeGreenEnergy:    raw.PrioritizeGreenEnergy,
		ForcedIdleServers:        raw.ForcedIdleServers,
	}

	if raw.MaxRAMUsagePerServer != nil {
		out.HasMaxRAMUsagePerServer = true
		out.MaxRAMUsagePerServer = raw.MaxRAMUsagePerServer.value
	}
	if raw.MaxCPUUsagePerServer != nil {
		out.HasMaxCPUUsagePerServer = true
		out.MaxCPUUsagePerServer = raw.MaxCPUUsagePerServer.value
	}
	if raw.MaxDiskUsagePerServer != nil {
		out.HasMaxDiskUsagePerServer = true
		out.MaxDiskUsagePerServer = raw.MaxDiskUsagePerServer.value
	}
	if raw.MaxBandwidthUsagePerServer != nil {
		out.HasMaxBandwidthUsagePerServer = true
		out.MaxBandwidthUsagePerServer = raw.MaxBandwidthUsagePerServer.value
	}

	if raw.MaxProcessesPerServer != nil {
		out.HasMaxProcessesPerServer = true
		out.MaxProcessesPerServer = *raw.MaxProcessesPerServer
	}
	if raw.MaxEnergyConsumptionPerServer != nil {
		out.HasMaxEnergyConsumption = true
		out.MaxEnergyConsumptionPerServer = *raw.MaxEnergyConsumptionPerServer
	}
	if raw.MaxDailyCost != nil {
		out.HasMaxDailyCost = true
		out.MaxDailyCost = *raw.MaxDailyCost
	}

	if raw.LoadBalancingStrategy != "" {
		out.LoadBalancingStrategy = types.LoadBalancingStrategy(normalizeToken(raw.LoadBalancingStrategy))
	}

	for _, token := range raw.OptimizationPriorities {
		p, ok := validPriorities[normalizeToken(token)]
		if !ok {
			logger := log.WithComponent("config")
			logger.Warn().Str("priority", token).Msg("dropping unrecognized optimization priority")
			continue
		}
		out.OptimizationPriorities = append(out.OptimizationPriorities, p)
	}

	return out, nil
}
