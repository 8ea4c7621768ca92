package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncDecision("APPROVED")
		m.IncFaceFallback("selfie")
		m.IncRegionStrategy("pincode")
		m.ObservePipeline(time.Second)
		m.ObserveInferenceWait(time.Millisecond)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.IncDecision("APPROVED")
	m.IncDecision("APPROVED")
	m.IncDecision("REJECTED")
	m.IncRegionStrategy("district")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("APPROVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("REJECTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegionStrategy.WithLabelValues("district")))
}
