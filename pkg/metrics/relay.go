package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics counts wallet events leaving the outbox.
type RelayMetrics struct {
	relayed *prometheus.CounterVec
	lag     prometheus.Histogram
}

// NewRelayMetrics registers the relay metrics on the provided registerer.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "outbox_relayed_total",
		Help:      "Outbox rows handled by the wallet event relay, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	lag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "outbox_publish_lag_seconds",
		Help:      "Delay between an event being queued and reaching Pub/Sub.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	})
	reg.MustRegister(relayed, lag)
	return &RelayMetrics{relayed: relayed, lag: lag}
}

// IncRelayed counts one handled outbox row.
func (m *RelayMetrics) IncRelayed(eventType, outcome string) {
	if m == nil || m.relayed == nil {
		return
	}
	m.relayed.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveLag records queue-to-publish delay in seconds.
func (m *RelayMetrics) ObserveLag(seconds float64) {
	if m == nil || m.lag == nil || seconds < 0 {
		return
	}
	m.lag.Observe(seconds)
}
