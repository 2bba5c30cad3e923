package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome 标签值
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeSkip  = "unchanged"
)

// Metrics 服务指标。每个实例使用独立 registry，测试中可重复创建。
type Metrics struct {
	registry *prometheus.Registry

	SQLGenerations  *prometheus.CounterVec
	DeviceSearches  *prometheus.CounterVec
	DetectionRuns   *prometheus.CounterVec
	UnmappedDevices prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SQLGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo_data",
			Name:      "sql_generations_total",
			Help:      "SQL script generations by outcome.",
		}, []string{"outcome"}),
		DeviceSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo_data",
			Name:      "device_searches_total",
			Help:      "Marketing alias lookups by status.",
		}, []string{"status"}),
		DetectionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promo_data",
			Name:      "device_detection_runs_total",
			Help:      "New device detection runs by outcome.",
		}, []string{"outcome"}),
		UnmappedDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "promo_data",
			Name:      "unmapped_devices",
			Help:      "Unmapped devices found by the last detection that saw changes.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SQLGenerations,
		m.DeviceSearches,
		m.DetectionRuns,
		m.UnmappedDevices,
	)
	return m
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
