package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	transformRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "transform_requests_total", Help: "transform requests by pair and outcome"},
		[]string{"pair", "outcome"},
	)

	transformDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transform_duration_seconds",
			Help:    "time spent in the transform capability, formatting included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pair"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequests,
		transformRequests,
		transformDuration,
	)
}

// Collect records response time and status for every request except the
// metrics endpoint itself.
func Collect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startTime := time.Now()

		defer func() {
			if r.URL.Path == "/metrics" {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			totalHttpRequests.WithLabelValues(strconv.Itoa(status), r.Method).Inc()
			responseTime.Observe(time.Since(startTime).Seconds())
		}()

		next.ServeHTTP(ww, r)
	})
}

func Handler() http.Handler { return promhttp.Handler() }

// Transforms records transform outcomes. It satisfies transform.Observer.
type Transforms struct{}

func (Transforms) ObserveTransform(pair string, outcome string, duration time.Duration) {
	transformRequests.WithLabelValues(pair, outcome).Inc()
	transformDuration.WithLabelValues(pair).Observe(duration.Seconds())
}
