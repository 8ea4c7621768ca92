package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the verification collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Decisions      *prometheus.CounterVec
	FaceFallbacks  *prometheus.CounterVec
	RegionStrategy *prometheus.CounterVec
	PipelineTime   prometheus.Histogram
	InferenceWait  prometheus.Histogram
}

// New registers the collectors on the default registry. Call it once per process.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_verifications_total",
			Help: "Completed verifications by final decision",
		}, []string{"decision"}),

		FaceFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_face_fallback_total",
			Help: "Images embedded without a detected face region",
		}, []string{"role"}), // role: "document", "selfie"

		RegionStrategy: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_region_resolutions_total",
			Help: "Regional risk resolutions by winning strategy",
		}, []string{"strategy"}), // strategy: "pincode", "district", "none"

		PipelineTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_pipeline_duration_seconds",
			Help:    "Duration of a full verification pipeline run",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),

		InferenceWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_inference_wait_seconds",
			Help:    "Time spent waiting for a free inference worker",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) IncDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) IncFaceFallback(role string) {
	if m != nil {
		m.FaceFallbacks.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) IncRegionStrategy(strategy string) {
	if m != nil {
		m.RegionStrategy.WithLabelValues(strategy).Inc()
	}
}

func (m *Metrics) ObservePipeline(d time.Duration) {
	if m != nil {
		m.PipelineTime.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveInferenceWait(d time.Duration) {
	if m != nil {
		m.InferenceWait.Observe(d.Seconds())
	}
}
