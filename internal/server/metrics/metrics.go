// Package metrics exposes Prometheus collectors for the voucher service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IssueDuration tracks the latency of voucher issuance, including the
	// device round-trips.
	IssueDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voucher_issue_duration_seconds",
			Help:    "Duration of voucher issuance requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"result"}, // success, exhausted, provisioning_failed, failed
	)

	// ProvisioningTotal counts device provisioning outcomes.
	ProvisioningTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucher_provisioning_total",
			Help: "Outcomes of RouterOS provisioning attempts",
		},
		[]string{"result"}, // created, skipped, failed
	)

	// RedemptionsTotal counts confirmed redemptions, including replays.
	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucher_redemptions_total",
			Help: "Confirmed voucher redemptions",
		},
		[]string{"result"}, // consumed, replay
	)
)

// RecordIssueDuration records the duration of one issuance request.
func RecordIssueDuration(result string, seconds float64) {
	IssueDuration.WithLabelValues(result).Observe(seconds)
}

// RecordProvisioning counts one provisioning outcome.
func RecordProvisioning(result string) {
	ProvisioningTotal.WithLabelValues(result).Inc()
}

// RecordRedemption counts one confirmed redemption.
func RecordRedemption(result string) {
	RedemptionsTotal.WithLabelValues(result).Inc()
}
