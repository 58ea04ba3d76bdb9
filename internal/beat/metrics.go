package beat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis outcomes, used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeDuplicate   = "duplicate"
	OutcomeStale       = "stale"
	OutcomeFetchError  = "fetch_error"
	OutcomeDecodeError = "decode_error"
	OutcomeCanceled    = "canceled"
)

// Metrics holds Prometheus collectors for beat analysis. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	analyses *prometheus.CounterVec
	duration prometheus.Histogram
	peaks    prometheus.Histogram
	inFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beat_analyses_total",
				Help: "Beat analysis requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "beat_analysis_duration_seconds",
				Help:    "Time spent fetching, decoding and analysing a track",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		peaks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "beat_analysis_peaks",
				Help:    "Number of peaks kept per analysed track",
				Buckets: prometheus.LinearBuckets(0, 5, 8),
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "beat_analyses_in_flight",
				Help: "Analyses currently fetching or decoding, including superseded ones",
			},
		),
	}
	for _, c := range []prometheus.Collector{m.analyses, m.duration, m.peaks, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) outcome(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) kept(n int) {
	if m == nil {
		return
	}
	m.peaks.Observe(float64(n))
}
