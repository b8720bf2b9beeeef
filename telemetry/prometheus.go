package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusAnalytics implements Analytics on top of Prometheus collectors.
type PrometheusAnalytics struct {
	navigations *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	retries     *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
}

var _ Analytics = (*PrometheusAnalytics)(nil)

// NewPrometheusAnalytics creates the collectors and registers them with reg.
func NewPrometheusAnalytics(reg prometheus.Registerer) *PrometheusAnalytics {
	a := &PrometheusAnalytics{
		navigations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waypoint",
			Name:      "navigation_duration_seconds",
			Help:      "Duration of successful navigations.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"from", "to"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "navigation_errors_total",
			Help:      "Failed or blocked navigations by error kind.",
		}, []string{"kind", "critical"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "navigation_retries_total",
			Help:      "Operator-invoked navigation retries.",
		}, []string{"route"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "navigation_fallbacks_total",
			Help:      "Recovery navigations to a known-good route.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(a.navigations, a.errors, a.retries, a.fallbacks)
	return a
}

func (a *PrometheusAnalytics) Navigation(from, to string, duration time.Duration) {
	a.navigations.WithLabelValues(from, to).Observe(duration.Seconds())
}

func (a *PrometheusAnalytics) Error(kind string, critical bool) {
	c := "false"
	if critical {
		c = "true"
	}
	a.errors.WithLabelValues(kind, c).Inc()
}

func (a *PrometheusAnalytics) Retry(route string) {
	a.retries.WithLabelValues(route).Inc()
}

func (a *PrometheusAnalytics) Fallback(from, to string) {
	a.fallbacks.WithLabelValues(from, to).Inc()
}
