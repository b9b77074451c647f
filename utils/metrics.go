package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors exported on /metrics.
type Metrics struct {
	RequestCount   *prometheus.CounterVec
	MatchesCreated prometheus.Counter
	MatchOutcomes  *prometheus.CounterVec
	LeadsDenied    prometheus.Counter
	Redistribution *prometheus.CounterVec
	WebhookEvents  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexconnect_matches_created_total",
			Help: "Matches offered to lawyers.",
		}),
		MatchOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexconnect_match_outcomes_total",
				Help: "Terminal match transitions by status.",
			},
			[]string{"status"},
		),
		LeadsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexconnect_lead_reservations_denied_total",
			Help: "Lead reservations refused because the plan quota was exhausted.",
		}),
		Redistribution: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexconnect_case_redistributions_total",
				Help: "Case redistribution rounds by trigger.",
			},
			[]string{"trigger"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexconnect_stripe_webhook_events_total",
				Help: "Stripe webhook events by type and result.",
			},
			[]string{"type", "result"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.RequestCount, m.MatchesCreated, m.MatchOutcomes, m.LeadsDenied, m.Redistribution, m.WebhookEvents,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NopMetrics returns collectors registered on a throwaway registry, for tests
// and tools that do not expose /metrics.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(prometheus.NewRegistry())
	return m
}
