package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console
type Metrics struct {
	registry *prometheus.Registry

	// Backend client metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// Plugin metrics
	PluginOperationsTotal *prometheus.CounterVec
	PluginsInstalled      prometheus.Gauge
	NavigationRebuilds    prometheus.Counter

	// Console server metrics
	HTTPRequestsTotal *prometheus.CounterVec
	WSClients         prometheus.Gauge
	NoticesTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opshub_backend_requests_total",
				Help: "Total number of backend API requests by outcome",
			},
			[]string{"method", "outcome"},
		),
		BackendRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opshub_backend_request_duration_seconds",
				Help:    "Duration of backend API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		PluginOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opshub_plugin_operations_total",
				Help: "Total number of plugin install/uninstall operations",
			},
			[]string{"plugin", "operation", "status"},
		),
		PluginsInstalled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "opshub_plugins_installed",
				Help: "Number of currently installed plugins",
			},
		),
		NavigationRebuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "opshub_navigation_rebuilds_total",
				Help: "Total number of navigation projection rebuilds",
			},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opshub_console_http_requests_total",
				Help: "Total number of console HTTP requests",
			},
			[]string{"method", "status"},
		),
		WSClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "opshub_console_ws_clients",
				Help: "Number of connected websocket clients",
			},
		),
		NoticesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opshub_notices_total",
				Help: "Total number of user notices emitted",
			},
			[]string{"level"},
		),
	}

	m.registry.MustRegister(
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.PluginOperationsTotal,
		m.PluginsInstalled,
		m.NavigationRebuilds,
		m.HTTPRequestsTotal,
		m.WSClients,
		m.NoticesTotal,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
