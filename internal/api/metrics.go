package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topowave_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topowave_runs_total",
		Help: "Detection runs by outcome.",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "topowave_run_duration_seconds",
		Help:    "Wall-clock duration of detection runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per route pattern and status.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, req)
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

func observeRun(outcome string, elapsed time.Duration) {
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
}
