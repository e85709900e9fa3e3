package scheduler

import (
	"math"
	"sort"

	"github.com/cuemby/vmscheduler/pkg/solver"
	"github.com/cuemby/vmscheduler/pkg/types"
)

// ScaleFactor is the fixed scale K: every floating-point demand and
// capacity is converted to an integer by multiplying by this before it
// enters the solver's pure-integer model.
const ScaleFactor int64 = 1000

// scale converts a floating point resource value to scaled integer
// units, rounding to the nearest unit.
func scale(f float64) int64 {
	return int64(math.Round(f * float64(ScaleFactor)))
}

// scaleCapacity applies a percentage cap to an integer capacity as
// floor(cap * K * pct / 100), in scaled units. An unconfigured cap
// returns the full scaled capacity; an explicitly configured zero (or
// negative) percent caps the resource at zero.
func scaleCapacity(capacity int64, percent float64, configured bool) int64 {
	if percent > 0 {
		return int64(math.Floor(float64(capacity*ScaleFactor) * percent / 100))
	}
	if configured {
		return 0
	}
	return capacity * ScaleFactor
}

// cpuDemand returns the CPU demand of process p on candidate server s:
// the explicit demand when set, otherwise the server-dependent
// derivation (p.RAM / s.RAM) * s.CPU. This must be computed per
// (process, server) pair rather than cached per process, since the
// coefficient varies with the candidate server.
func cpuDemand(p types.Process, s types.Server) float64 {
	if p.CPU != 0 {
		return p.CPU
	}
	if s.RAM == 0 {
		return 0
	}
	return (p.RAM / float64(s.RAM)) * float64(s.CPU)
}

// replicaKey identifies one replica slot of one process.
type replicaKey struct {
	ProcessIndex int
	Replica      int
}

// Chunk is one contiguous group of a process's replicas that must be
// placed as a unit - either pinned to one location (redundant policy)
// or simply required to land on distinct servers (single policy).
type Chunk struct {
	Replicas []int
	Location string // "" means no single pinned location
}

// Variables owns every decision variable and the bookkeeping needed to
// iterate them without re-deriving eligibility: the x[p,r,s] layout,
// per-server usage indicators, and the chunk partitioning used by the
// redundancy and single-policy-distinctness constraint families.
type Variables struct {
	Servers     []types.Server
	Processes   []types.Process
	Constraints types.Constraints

	x          map[replicaKey]map[int]solver.BoolVar
	ServerUsed []solver.BoolVar
	Chunks     map[int][]Chunk

	idleServers map[string]bool
}

// BuildVariables allocates the per-server serverUsed indicators, then
// for each process its chunk partition and its x[p,r,s] variables, and
// finally links every x[p,r,s] to serverUsed[s]. Ineligible (process,
// server) pairs - filtered by forced idle, location, OS, and scope -
// never get a variable at all, which is how those constraint families
// are enforced without an explicit x[p,r,s]=0 constraint; constraints.go
// emits no such constraint for any family.
func BuildVariables(model *solver.Model, servers []types.Server, processes []types.Process, constraints types.Constraints) *Variables {
	v := &Variables{
		Servers:     servers,
		Processes:   processes,
		Constraints: constraints,
		x:           make(map[replicaKey]map[int]solver.BoolVar),
		Chunks:      make(map[int][]Chunk),
		idleServers: make(map[string]bool, len(constraints.ForcedIdleServers)),
	}
	for _, name := range constraints.ForcedIdleServers {
		v.idleServers[name] = true
	}

	v.ServerUsed = make([]solver.BoolVar, len(servers))
	for si := range servers {
		v.ServerUsed[si] = model.NewBoolVar("server_used")
	}

	for pi, p := range processes {
		chunks := v.buildChunks(p)
		v.Chunks[pi] = chunks

		for _, chunk := range chunks {
			eligible := v.eligibleServers(p, chunk.Location)
			for _, r := range chunk.Replicas {
				key := replicaKey{ProcessIndex: pi, Replica: r}
				vars := make(map[int]solver.BoolVar, len(eligible))
				for _, si := range eligible {
					vars[si] = model.NewBoolVar("x")
				}
				v.x[key] = vars
			}
		}
	}

	for _, perServer := range v.x {
		for si, bv := range perServer {
			model.Add(
				solver.NewLinearExpr().Plus(bv, 1).Plus(v.ServerUsed[si], -1),
				solver.LE, 0,
			).WithName("server-used-link")
		}
	}

	return v
}

// buildChunks partitions a process's effective replicas per the
// derived-count rule: redundant policy with a non-empty location list
// gets one chunk of base_replicas per location; everything else is a
// single chunk covering every replica.
func (v *Variables) buildChunks(p types.Process) []Chunk {
	base := p.BaseReplicas()
	if p.LocationPolicy == types.LocationPolicyRedundant && len(p.Location) > 0 {
		chunks := make([]Chunk, len(p.Location))
		for i, loc := range p.Location {
			replicas := make([]int, base)
			for j := 0; j < base; j++ {
				replicas[j] = i*base + j
			}
			chunks[i] = Chunk{Replicas: replicas, Location: loc}
		}
		return chunks
	}

	replicas := make([]int, base)
	for i := range replicas {
		replicas[i] = i
	}
	return []Chunk{{Replicas: replicas}}
}

// eligibleServers returns, in server-index order, every server a
// replica of p may land on once forced-idle, location, OS, and scope
// compatibility are applied. pinnedLocation overrides p.Location when
// non-empty (a redundant chunk pinned to one location).
func (v *Variables) eligibleServers(p types.Process, pinnedLocation string) []int {
	var out []int
	for si, s := range v.Servers {
		if v.idleServers[s.Name] {
			continue
		}
		if pinnedLocation != "" {
			if s.Location != pinnedLocation {
				continue
			}
		} else if len(p.Location) > 0 && !contains(p.Location, s.Location) {
			continue
		}
		if p.OS != "" && s.OS != "" && p.OS != s.OS {
			continue
		}
		if p.Scope != "" && len(s.Scope) > 0 && !contains(s.Scope, p.Scope) {
			continue
		}
		out = append(out, si)
	}
	sort.Ints(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Lit returns the x[p,r,s] variable and whether that pair is eligible
// (has a variable at all).
func (v *Variables) Lit(processIndex, replica, serverIndex int) (solver.BoolVar, bool) {
	m, ok := v.x[replicaKey{ProcessIndex: processIndex, Replica: replica}]
	if !ok {
		return solver.BoolVar{}, false
	}
	bv, ok := m[serverIndex]
	return bv, ok
}

// EligibleServersFor returns the server indices, in order, that have a
// variable for the given (process, replica).
func (v *Variables) EligibleServersFor(processIndex, replica int) []int {
	m := v.x[replicaKey{ProcessIndex: processIndex, Replica: replica}]
	out := make([]int, 0, len(m))
	for si := range m {
		out = append(out, si)
	}
	sort.Ints(out)
	return out
}

// ReplicaCount returns the effective number of replica slots that have
// variables for process pi.
func (v *Variables) ReplicaCount(pi int) int {
	n := 0
	for _, c := range v.Chunks[pi] {
		n += len(c.Replicas)
	}
	return n
}

// ProcessCount returns the linear expression sum_{p,r} x[p,r,s] for
// one server, built fresh each call since pkg/solver expressions are
// immutable value types.
func (v *Variables) ProcessCount(serverIndex int) solver.LinearExpr {
	expr := solver.NewLinearExpr()
	for _, key := range v.AllKeys() {
		if bv, ok := v.Lit(key.ProcessIndex, key.Replica, serverIndex); ok {
			expr = expr.Plus(bv, 1)
		}
	}
	return expr
}

// AllKeys returns every (processIndex, replica) pair, including pairs
// with no eligible server, in a deterministic order.
func (v *Variables) AllKeys() []replicaKey {
	keys := make([]replicaKey, 0, len(v.x))
	for k := range v.x {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProcessIndex != keys[j].ProcessIndex {
			return keys[i].ProcessIndex < keys[j].ProcessIndex
		}
		return keys[i].Replica < keys[j].Replica
	})
	return keys
}
