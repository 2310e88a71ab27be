package scoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskcompass",
			Subsystem: "scoring",
			Name:      "requests_total",
			Help:      "Requests sent to the scoring service by path and result",
		},
		[]string{"path", "result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskcompass",
			Subsystem: "scoring",
			Name:      "request_duration_seconds",
			Help:      "Latency of scoring service requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"path"},
	)
)

func observe(path, result string, started time.Time) {
	requestsTotal.WithLabelValues(path, result).Inc()
	requestDuration.WithLabelValues(path).Observe(time.Since(started).Seconds())
}
