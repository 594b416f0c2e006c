// Package metrics exposes Prometheus metrics for the compile service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alnah/go-tex2pdf"
)

const namespace = "tex2pdf"

// Collector holds the service metrics. All metrics use the tex2pdf_ namespace.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	CompilesTotal   *prometheus.CounterVec
	CompileDuration *prometheus.HistogramVec
	RejectionsTotal *prometheus.CounterVec
	InFlight        prometheus.Gauge
	SlotWaitTotal   *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a Collector on a private registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,

		CompilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "total",
			Help:      "Total compile requests by outcome kind.",
		}, []string{"kind"}),

		CompileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "duration_seconds",
			Help:      "Compile duration in seconds by outcome kind.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind"}),

		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "rejections_total",
			Help:      "Sources rejected by the danger scan, by matched rule.",
		}, []string{"rule"}),

		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "in_flight",
			Help:      "Number of compiles currently holding a slot.",
		}),

		SlotWaitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "slot_wait_total",
			Help:      "Slot acquisitions by result (acquired, unavailable).",
		}, []string{"result"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.CompilesTotal,
		c.CompileDuration,
		c.RejectionsTotal,
		c.InFlight,
		c.SlotWaitTotal,
		c.RequestsTotal,
		c.RequestDuration,
	)

	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveOutcome records one finished compile.
func (c *Collector) ObserveOutcome(out tex2pdf.Outcome) {
	if c == nil {
		return
	}
	kind := out.Kind.String()
	c.CompilesTotal.WithLabelValues(kind).Inc()
	c.CompileDuration.WithLabelValues(kind).Observe(out.Duration.Seconds())
	if out.Kind == tex2pdf.KindSecurityRejected {
		c.RejectionsTotal.WithLabelValues(out.Rule).Inc()
	}
}

// SlotAcquired records a compile entering a slot.
func (c *Collector) SlotAcquired() {
	if c == nil {
		return
	}
	c.SlotWaitTotal.WithLabelValues("acquired").Inc()
	c.InFlight.Inc()
}

// SlotReleased records a compile leaving its slot.
func (c *Collector) SlotReleased() {
	if c == nil {
		return
	}
	c.InFlight.Dec()
}

// SlotUnavailable records a request turned away for lack of a slot.
func (c *Collector) SlotUnavailable() {
	if c == nil {
		return
	}
	c.SlotWaitTotal.WithLabelValues("unavailable").Inc()
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(route, method string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
