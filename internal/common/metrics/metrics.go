// Package metrics holds the Prometheus collectors shared by the API and workers.
// All methods are safe on a nil *Metrics so services can run without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crustalyst"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	ordersSubmitted  prometheus.Counter
	orderAmount      prometheus.Counter
	tableTransitions *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
	realtimeClients  prometheus.Gauge
	menuCache        *prometheus.CounterVec
	tablesReleased   prometheus.Counter
	staffCalls       prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ordersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "submitted_total",
			Help: "Orders accepted from kiosks.",
		}),
		orderAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "amount_total",
			Help: "Sum of submitted order totals.",
		}),
		tableTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tables", Name: "transitions_total",
			Help: "Table status writes by target status.",
		}, []string{"status"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "realtime", Name: "events_published_total",
			Help: "Change events published to the broker.",
		}, []string{"table"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "realtime", Name: "events_dropped_total",
			Help: "Change events that could not be published or delivered.",
		}, []string{"table"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "realtime", Name: "clients",
			Help: "Connected websocket subscribers.",
		}),
		menuCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "menu", Name: "reads_total",
			Help: "Menu reads by source (cache, db, stale, fallback).",
		}, []string{"source"}),
		tablesReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "housekeeping", Name: "tables_released_total",
			Help: "Tables moved from cleaning back to empty.",
		}),
		staffCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "staff", Name: "calls_total",
			Help: "Staff assistance requests.",
		}),
	}
	reg.MustRegister(
		m.httpRequests, m.httpDuration, m.ordersSubmitted, m.orderAmount,
		m.tableTransitions, m.eventsPublished, m.eventsDropped, m.realtimeClients,
		m.menuCache, m.tablesReleased, m.staffCalls,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) OrderSubmitted(amount float64) {
	if m == nil {
		return
	}
	m.ordersSubmitted.Inc()
	m.orderAmount.Add(amount)
}

func (m *Metrics) TableTransition(status string) {
	if m == nil {
		return
	}
	m.tableTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) EventPublished(table string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(table).Inc()
}

func (m *Metrics) EventDropped(table string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(table).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}

func (m *Metrics) MenuRead(source string) {
	if m == nil {
		return
	}
	m.menuCache.WithLabelValues(source).Inc()
}

func (m *Metrics) TablesReleased(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tablesReleased.Add(float64(n))
}

func (m *Metrics) StaffCalled() {
	if m == nil {
		return
	}
	m.staffCalls.Inc()
}
