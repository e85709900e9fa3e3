package types

// Server is a physical machine available to host process replicas.
type Server struct {
	Name      string `yaml:"name"`
	RAM       int64  `yaml:"ram"`
	CPU       int64  `yaml:"cpu"`
	Disk      int64  `yaml:"disk"`
	Bandwidth int64  `yaml:"bandwidth"`

	Location string   `yaml:"geographical-location,omitempty"`
	OS       string   `yaml:"os,omitempty"`
	Scope    []string `yaml:"process-scope,omitempty"`

	// GreenEnergy is true when the server runs on renewable power. The
	// YAML key is resolved by pkg/config, which accepts both the
	// contractual green-enegery spelling and green-energy.
	GreenEnergy bool `yaml:"-"`

	// EnergyCost is currency per kWh. Zero means no energy cost is
	// modeled for this server, and it is excluded from the daily-cost
	// constraint and the cost objective term (the green-energy term
	// depends on GreenEnergy only).
	EnergyCost float64 `yaml:"energy-cost,omitempty"`
}

// LocationPolicy controls how a process's replicas are spread across
// geographical locations.
type LocationPolicy string

const (
	LocationPolicyNone      LocationPolicy = "none"
	LocationPolicySingle    LocationPolicy = "single"
	LocationPolicyRedundant LocationPolicy = "redundant"
)

// Process is a workload unit with a base replica count that must be
// placed on one or more servers.
type Process struct {
	Name string `yaml:"name"`

	RAM       float64 `yaml:"ram"`
	Disk      float64 `yaml:"disk"`
	Bandwidth float64 `yaml:"bandwidth"`

	// CPU is the explicit CPU demand. When zero, it is derived per
	// candidate server as (RAM / server.RAM) * server.CPU at
	// variable-weighting time; see pkg/scheduler/variables.go.
	CPU float64 `yaml:"cpu,omitempty"`

	// Replicas is the base replica count before the redundant-location
	// multiplier, already resolved by pkg/config (an absent YAML key
	// defaults to 1 there). An explicit zero is honored as-is: the
	// process gets no variables and the model stays feasible.
	Replicas int `yaml:"replicas,omitempty"`

	Location       []string       `yaml:"location,omitempty"`
	LocationPolicy LocationPolicy `yaml:"location-policy,omitempty"`

	OS    string `yaml:"os,omitempty"`
	Scope string `yaml:"scope,omitempty"`

	Affinity    []string `yaml:"affinity,omitempty"`
	NonAffinity []string `yaml:"non-affinity,omitempty"`
	Critical    bool     `yaml:"critical,omitempty"`
}

// BaseReplicas returns the resolved replica count (see Replicas).
func (p *Process) BaseReplicas() int {
	return p.Replicas
}

// EffectiveReplicas returns the total number of replica slots this
// process needs. Under a redundant location policy with a non-empty
// Location list, the base count is repeated once per location (each
// repetition forms a distinctness chunk pinned to that location); every
// other case is just the base count.
func (p *Process) EffectiveReplicas() int {
	base := p.BaseReplicas()
	if p.LocationPolicy == LocationPolicyRedundant && len(p.Location) > 0 {
		return base * len(p.Location)
	}
	return base
}

// LoadBalancingStrategy selects the objective term used to spread load
// across servers. pkg/config also accepts the hyphenated spellings
// (round-robin, bin-packing, weighted-capacity) and normalizes them to
// these constants. An empty strategy means no load-balancing term is
// added to the objective.
type LoadBalancingStrategy string

const (
	LoadBalancingNone             LoadBalancingStrategy = ""
	LoadBalancingRoundRobin       LoadBalancingStrategy = "round_robin"
	LoadBalancingBinPacking       LoadBalancingStrategy = "bin_packing"
	LoadBalancingWeightedCapacity LoadBalancingStrategy = "weighted_capacity"
)

// OptimizationPriority names one of the three sub-objectives that make
// up the weighted lexicographic objective.
type OptimizationPriority string

const (
	PriorityLoadBalancing OptimizationPriority = "load_balancing"
	PriorityGreenEnergy   OptimizationPriority = "green_energy"
	PriorityCost          OptimizationPriority = "cost"
)

// DefaultPriorityWeights are the base weights for each recognized
// priority. A priority listed in Constraints.OptimizationPriorities is
// weighted 10^(4-rank); a recognized priority left off the list still
// contributes, at weight/10 rather than zero.
var DefaultPriorityWeights = map[OptimizationPriority]int64{
	PriorityLoadBalancing: 10000,
	PriorityGreenEnergy:   1000,
	PriorityCost:          100,
}

// Constraints holds the global caps and preferences applied across the
// whole placement. The percentage caps and the optional numeric caps
// are resolved by pkg/config, which must distinguish "absent" from
// "explicitly zero" — a stricter-than-default cap — so those fields
// carry a companion Has* flag rather than relying on the zero value.
type Constraints struct {
	MaxRAMUsagePerServer       float64 `yaml:"-"`
	MaxCPUUsagePerServer       float64 `yaml:"-"`
	MaxDiskUsagePerServer      float64 `yaml:"-"`
	MaxBandwidthUsagePerServer float64 `yaml:"-"`

	// The percentage caps distinguish "absent" (full capacity) from an
	// explicit zero (a 0% cap, which makes any placement on that
	// resource infeasible).
	HasMaxRAMUsagePerServer       bool `yaml:"-"`
	HasMaxCPUUsagePerServer       bool `yaml:"-"`
	HasMaxDiskUsagePerServer      bool `yaml:"-"`
	HasMaxBandwidthUsagePerServer bool `yaml:"-"`

	MaxProcessesPerServer    int  `yaml:"-"`
	HasMaxProcessesPerServer bool `yaml:"-"`

	IsolateCriticalProcesses bool `yaml:"isolate-critical-processes,omitempty"`

	MaxEnergyConsumptionPerServer float64 `yaml:"-"`
	HasMaxEnergyConsumption       bool    `yaml:"-"`

	MaxDailyCost    float64 `yaml:"-"`
	HasMaxDailyCost bool    `yaml:"-"`

	ServersForRedundancy int `yaml:"servers-for-redundancy,omitempty"`

	LoadBalancingStrategy  LoadBalancingStrategy  `yaml:"load-balancing-strategy,omitempty"`
	PrioritizeGreenEnergy  bool                   `yaml:"prioritize-green-energy,omitempty"`
	OptimizationPriorities []OptimizationPriority `yaml:"optimization-priorities,omitempty"`

	// ForcedIdleServers names servers excluded from placement entirely
	// for this run (maintenance mode), e.g. drained ahead of decommission.
	ForcedIdleServers []string `yaml:"forced-idle-servers,omitempty"`
}
