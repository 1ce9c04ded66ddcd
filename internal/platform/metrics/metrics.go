package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the campaign service.
type Metrics struct {
	PledgesCreated *prometheus.CounterVec
	PledgesSettled *prometheus.CounterVec
	PledgesExpired prometheus.Counter
	SatsRaised     prometheus.Counter
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PledgesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "evento_pledges_created_total",
			Help: "Total pledge intents created, by campaign scope",
		}, []string{"scope"}),
		PledgesSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "evento_pledges_settled_total",
			Help: "Total pledges settled, by campaign scope",
		}, []string{"scope"}),
		PledgesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "evento_pledges_expired_total",
			Help: "Total pledges whose invoice lapsed unpaid",
		}),
		SatsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "evento_sats_raised_total",
			Help: "Total satoshis raised across all campaigns",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evento_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route"}),
	}
}
