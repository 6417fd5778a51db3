package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storyapp/storyapp/pkg/router"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "storyapp").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registerer receives the collectors.
	// Default: prometheus.DefaultRegisterer
	Registerer prometheus.Registerer

	// Gatherer backs Handler.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry registers into and gathers from reg.
func WithRegistry(reg *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registerer = reg
		c.Gatherer = reg
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:  "storyapp",
		Buckets:    prometheus.DefBuckets,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	}
}

// Metrics holds the application's Prometheus collectors. It implements
// router.Observer, page.Observer and story.SyncObserver.
type Metrics struct {
	gatherer prometheus.Gatherer

	navigations    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	authRedirects  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	offlineSync    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Registering twice in
// the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registerer)

	return &Metrics{
		gatherer: config.Gatherer,

		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Location changes handled by the router, by route and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "page_render_duration_seconds",
			Help:        "Page render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"page"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "page_render_errors_total",
			Help:        "Page renders that returned an error",
			ConstLabels: config.ConstLabels,
		}, []string{"page"}),

		authRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "auth_redirects_total",
			Help:        "Protected page requests redirected to login",
			ConstLabels: config.ConstLabels,
		}, []string{"page"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected application shells",
			ConstLabels: config.ConstLabels,
		}),

		offlineSync: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "offline_sync_total",
			Help:        "Queued stories submitted during offline sync, by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "HTTP requests by chi route pattern and status code",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "code"}),
	}
}

// RouteHandled implements router.Observer.
func (m *Metrics) RouteHandled(pattern string, outcome router.Outcome, elapsed time.Duration) {
	if pattern == "" {
		pattern = "none"
	}
	m.navigations.WithLabelValues(pattern, string(outcome)).Inc()
}

// PageRendered implements page.Observer.
func (m *Metrics) PageRendered(name string, elapsed time.Duration, err error) {
	m.renderDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		m.renderErrors.WithLabelValues(name).Inc()
	}
}

// AuthRedirected implements page.Observer.
func (m *Metrics) AuthRedirected(name string) {
	m.authRedirects.WithLabelValues(name).Inc()
}

// StorySynced implements story.SyncObserver.
func (m *Metrics) StorySynced(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.offlineSync.WithLabelValues(result).Inc()
}

// SessionOpened records a connected shell.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed records a disconnected shell.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// Handler serves the gathered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument is chi middleware counting requests by route pattern.
// Unmatched requests are labeled "unmatched" to bound cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
	})
}

// statusWriter records the response status.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so WebSocket upgrades
// work behind Instrument.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
