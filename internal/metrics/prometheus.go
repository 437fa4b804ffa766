package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ForkliftsServiceOverdue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forklifts_service_overdue",
			Help: "Forklifts whose next service date has passed, per company",
		},
		[]string{"company"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events delivered per sink and result",
		},
		[]string{"sink", "type", "result"},
	)

	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Connected websocket clients",
		},
	)

	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_job_runs_total",
			Help: "Background job runs per job and result",
		},
		[]string{"job", "result"},
	)
)

var registerOnce sync.Once

// Init registers metrics with Prometheus
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequests)
		prometheus.MustRegister(HTTPDuration)
		prometheus.MustRegister(ForkliftsServiceOverdue)
		prometheus.MustRegister(EventsPublished)
		prometheus.MustRegister(WebsocketClients)
		prometheus.MustRegister(JobRuns)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result labels an outcome for the counters above.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
