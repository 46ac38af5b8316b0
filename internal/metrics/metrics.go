// Package metrics содержит Prometheus-метрики сервиса
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector хранит метрики приложения в собственном реестре
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Resolves       *prometheus.CounterVec
	Reparents      *prometheus.CounterVec
	Employees      prometheus.Gauge
	HierarchyDepth prometheus.Gauge
}

// NewCollector создаёт коллектор с заданным namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Resolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hierarchy_resolves_total",
				Help:      "Hierarchy recomputations by outcome",
			},
			[]string{"outcome"},
		),
		Reparents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hierarchy_reparents_total",
				Help:      "Manager changes by outcome",
			},
			[]string{"outcome"},
		),
		Employees: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "employees",
				Help:      "Employees in the current hierarchy",
			},
		),
		HierarchyDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hierarchy_levels",
				Help:      "Depth levels in the current hierarchy",
			},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Resolves,
		c.Reparents,
		c.Employees,
		c.HierarchyDepth,
	)

	return c
}

// Handler отдаёт метрики в формате Prometheus
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр коллектора
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveResolve учитывает результат пересчёта схемы
func (c *Collector) ObserveResolve(err error, employees, levels int) {
	if c == nil {
		return
	}
	if err != nil {
		c.Resolves.WithLabelValues("error").Inc()
		return
	}
	c.Resolves.WithLabelValues("ok").Inc()
	c.Employees.Set(float64(employees))
	c.HierarchyDepth.Set(float64(levels))
}

// ObserveReparent учитывает результат переподчинения
func (c *Collector) ObserveReparent(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.Reparents.WithLabelValues("rejected").Inc()
		return
	}
	c.Reparents.WithLabelValues("ok").Inc()
}
