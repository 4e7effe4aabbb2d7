package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldplan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldplan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route", "method", "status"},
	)

	forecastsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldplan_forecasts_generated_total",
			Help: "Number of production forecasts generated, by method",
		},
		[]string{"method"},
	)

	dailyLogsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldplan_daily_logs_recorded_total",
			Help: "Number of daily production log entries recorded",
		},
	)

	regOnce sync.Once
)

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, forecastsGenerated, dailyLogsRecorded)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ForecastGenerated(method string) {
	forecastsGenerated.WithLabelValues(method).Inc()
}

func DailyLogRecorded() {
	dailyLogsRecorded.Inc()
}

// Middleware records request metrics labelled by the mux route template and logs failed requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := routeLabel(r)
		status := strconv.Itoa(rw.status)
		duration := time.Since(start)

		httpRequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method, status).Observe(duration.Seconds())

		if rw.status >= http.StatusInternalServerError {
			log.Errorf("%s %s failed with %d in %s", r.Method, route, rw.status, duration)
			return
		}
		log.Debugf("%s %s -> %d in %s", r.Method, route, rw.status, duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// routeLabel prefers the route template to keep label cardinality low.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
