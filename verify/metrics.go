package verify

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records connection outcomes. A nil *Metrics records nothing.
type Metrics struct {
	verifications *prometheus.CounterVec
	duration      prometheus.Histogram
	challenges    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cip8_verifications_total",
			Help: "Wallet signature verifications by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cip8_verification_duration_seconds",
			Help:    "Time spent verifying a signed connection payload.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		challenges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cip8_challenges_issued_total",
			Help: "Connection challenges issued.",
		}),
	}

	for _, c := range []prometheus.Collector{m.verifications, m.duration, m.challenges} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// ObserveVerification records one connection attempt
func (m *Metrics) ObserveVerification(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// ChallengeIssued counts an issued challenge
func (m *Metrics) ChallengeIssued() {
	if m == nil {
		return
	}
	m.challenges.Inc()
}
