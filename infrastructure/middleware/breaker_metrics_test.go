package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-icdmatch/infrastructure/icdapi"
)

func TestBreakerMetrics_ForwardsToPrometheus(t *testing.T) {
	pm := NewPrometheusMetrics()
	bm := NewBreakerMetrics(pm, "icdapi")

	bm.RecordSuccess()
	bm.RecordFailure()
	bm.RecordFailure()
	bm.RecordTrip()
	bm.RecordState(icdapi.StateOpen)

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.breakerCalls.WithLabelValues("icdapi", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.breakerCalls.WithLabelValues("icdapi", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.breakerCalls.WithLabelValues("icdapi", "rejected")))
	assert.Equal(t, float64(icdapi.StateOpen), testutil.ToFloat64(pm.systemGauges.WithLabelValues(MetricBreakerState)))
}
