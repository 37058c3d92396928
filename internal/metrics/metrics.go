// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sympos_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sympos_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sympos_emails_total",
		Help: "Emails handed to the email API, by result",
	}, []string{"result"})

	BadgesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sympos_badges_generated_total",
		Help: "Badge generations, by result",
	}, []string{"result"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sympos_review_reminders_total",
		Help: "Review deadline reminder emails sent",
	})

	DBPingLatency = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sympos_database_ping_seconds",
		Help: "Latency of the last database keepalive ping",
	})

	DBUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sympos_database_up",
		Help: "1 when the last database ping succeeded",
	})
)

// Result turns an error into the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
