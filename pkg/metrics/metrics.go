package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// VariablesCreated is the number of variables in the model after the
	// variable layout of the most recent solve: one x[p,r,s] per eligible
	// (replica, server) pair plus one server-used indicator per server.
	VariablesCreated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vmscheduler_variables_created",
			Help: "Number of placement variables created for the last solve",
		},
	)

	// ConstraintsEmitted tracks how many constraints each constraint
	// family contributed to the model, so a family that silently stops
	// emitting anything is visible.
	ConstraintsEmitted = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vmscheduler_constraints_emitted",
			Help: "Number of constraints emitted per family in the last solve",
		},
		[]string{"family"},
	)

	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vmscheduler_solve_duration_seconds",
			Help:    "Wall-clock time spent in the solver for one run",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	SolveStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vmscheduler_solve_status_total",
			Help: "Count of solves by terminal status",
		},
		[]string{"status"},
	)

	ObjectiveValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vmscheduler_objective_value",
			Help: "Scaled objective value of the last optimal/feasible solve",
		},
	)

	ServersUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vmscheduler_servers_used",
			Help: "Number of servers hosting at least one replica in the last solve",
		},
	)

	ServersIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vmscheduler_servers_idle",
			Help: "Number of servers hosting no replicas in the last solve",
		},
	)

	ConfigLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vmscheduler_config_load_duration_seconds",
			Help:    "Time taken to load and validate a preset directory",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(VariablesCreated)
	prometheus.MustRegister(ConstraintsEmitted)
	prometheus.MustRegister(SolveDuration)
	prometheus.MustRegister(SolveStatus)
	prometheus.MustRegister(ObjectiveValue)
	prometheus.MustRegister(ServersUsed)
	prometheus.MustRegister(ServersIdle)
	prometheus.MustRegister(ConfigLoadDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
