// Package metrics exposes Prometheus collectors for the HTTP surface and the widget renderer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsrecs"

// Collector owns a private registry and the metric vectors recorded by the service.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sidebarRenders  *prometheus.CounterVec
	editorScreens   *prometheus.CounterVec
	redirects       *prometheus.CounterVec
}

// NewCollector registers every metric on a fresh registry, plus the Go runtime collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sidebarRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sidebar_renders_total",
			Help:      "Sidebar renders by outcome",
		}, []string{"sidebar", "outcome"}),
		editorScreens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_screens_total",
			Help:      "Editor screens opened by record type",
		}, []string{"record_type"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permalink_redirects_total",
			Help:      "Permalink redirects by target kind",
		}, []string{"target"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.sidebarRenders,
		c.editorScreens,
		c.redirects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordHTTPRequest counts a finished request. Route is the matched pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSidebarRender counts a sidebar render; outcome is "ok" or "error".
func (c *Collector) RecordSidebarRender(sidebar, outcome string) {
	if c == nil {
		return
	}
	c.sidebarRenders.WithLabelValues(sidebar, outcome).Inc()
}

// RecordEditorScreen counts an opened editor screen.
func (c *Collector) RecordEditorScreen(recordType string) {
	if c == nil {
		return
	}
	c.editorScreens.WithLabelValues(recordType).Inc()
}

// RecordRedirect counts a permalink redirect; target is "external" or "default".
func (c *Collector) RecordRedirect(target string) {
	if c == nil {
		return
	}
	c.redirects.WithLabelValues(target).Inc()
}
