package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric.
const Namespace = "wealthguardian"

// WalletMetrics tracks settlement, transfer, and gateway activity.
type WalletMetrics struct {
	settlements *prometheus.CounterVec
	transfers   *prometheus.CounterVec
	gateway     *prometheus.HistogramVec
}

// NewWalletMetrics registers the wallet metrics on the provided registerer.
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	if reg == nil {
		return &WalletMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "payment_settlements_total",
		Help:      "Payment settlement attempts by entry path and outcome.",
	}, []string{"path", "outcome"})
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wallet_transfers_total",
		Help:      "Peer transfers by outcome.",
	}, []string{"outcome"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Payment gateway request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(settlements, transfers, gateway)
	return &WalletMetrics{
		settlements: settlements,
		transfers:   transfers,
		gateway:     gateway,
	}
}

// IncSettlement counts a settlement attempt.
func (m *WalletMetrics) IncSettlement(path, outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(path), normalizeLabel(outcome)).Inc()
}

// IncTransfer counts a transfer attempt.
func (m *WalletMetrics) IncTransfer(outcome string) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGatewayRequest records gateway latency.
func (m *WalletMetrics) ObserveGatewayRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(elapsed.Seconds())
}
