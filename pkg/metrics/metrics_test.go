package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerObservesElapsedDuration(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_solve_duration_seconds",
		Help:    "test histogram",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	time.Sleep(20 * time.Millisecond)
	timer.ObserveDuration(histogram)

	assert.Equal(t, 1, testutil.CollectAndCount(histogram))
	assert.GreaterOrEqual(t, timer.Duration(), 20*time.Millisecond)
}

func TestTimerObserveDurationVecLabels(t *testing.T) {
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_phase_duration_seconds",
			Help:    "test histogram vec",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	NewTimer().ObserveDurationVec(vec, "constraint-build")

	assert.Equal(t, 1, testutil.CollectAndCount(vec))
}

func TestConstraintsEmittedTracksPerFamily(t *testing.T) {
	ConstraintsEmitted.Reset()
	ConstraintsEmitted.WithLabelValues("uniqueness").Add(3)
	ConstraintsEmitted.WithLabelValues("anti-affinity").Add(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(ConstraintsEmitted.WithLabelValues("uniqueness")))
	assert.Equal(t, 2.0, testutil.ToFloat64(ConstraintsEmitted.WithLabelValues("anti-affinity")))
}

func TestSolveStatusCountsByLabel(t *testing.T) {
	before := testutil.ToFloat64(SolveStatus.WithLabelValues("infeasible"))
	SolveStatus.WithLabelValues("infeasible").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SolveStatus.WithLabelValues("infeasible")))
}

func TestHandlerExposesSchedulerSeries(t *testing.T) {
	VariablesCreated.Set(42)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "vmscheduler_variables_created 42"))
}
