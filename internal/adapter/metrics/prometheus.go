package metrics

import (
	"strconv"

	"genforge-core/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records generation metrics on its own registry.
type Prometheus struct {
	registry   *prometheus.Registry
	attempts   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	probes     *prometheus.CounterVec
	results    *prometheus.CounterVec
	confidence *prometheus.HistogramVec
	chainTime  prometheus.Histogram
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genforge",
			Name:      "attempts_total",
			Help:      "Provider attempts by tier and outcome.",
		}, []string{"tier", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genforge",
			Name:      "attempt_duration_seconds",
			Help:      "Latency of a single provider attempt.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"tier"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genforge",
			Name:      "probes_total",
			Help:      "Availability probes by tier and result.",
		}, []string{"tier", "available"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genforge",
			Name:      "results_total",
			Help:      "Completed generations by final provider tier.",
		}, []string{"provider", "cached"}),
		confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genforge",
			Name:      "result_confidence",
			Help:      "Confidence of completed generations.",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		}, []string{"provider"}),
		chainTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "genforge",
			Name:      "generation_duration_seconds",
			Help:      "End-to-end duration of the fallback chain.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	p.registry.MustRegister(p.attempts, p.latency, p.probes, p.results, p.confidence, p.chainTime)
	return p
}

// Registry exposes the registry for the /metrics handler.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) ObserveAttempt(tier entity.Tier, outcome entity.Outcome, latencyMs int64) {
	p.attempts.WithLabelValues(string(tier), string(outcome)).Inc()
	if tier != entity.TierFallback {
		p.latency.WithLabelValues(string(tier)).Observe(float64(latencyMs) / 1000)
	}
}

func (p *Prometheus) ObserveProbe(tier entity.Tier, available bool) {
	p.probes.WithLabelValues(string(tier), strconv.FormatBool(available)).Inc()
}

func (p *Prometheus) ObserveResult(result *entity.GenerationResult) {
	if result == nil {
		return
	}
	p.results.WithLabelValues(string(result.Provider), strconv.FormatBool(result.Cached)).Inc()
	p.confidence.WithLabelValues(string(result.Provider)).Observe(result.Confidence)
	p.chainTime.Observe(float64(result.ProcessingTimeMs) / 1000)
}
