// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "motion"

// Metrics holds the channel and exchange collectors on a private registry
type Metrics struct {
	reg *prometheus.Registry

	channelsOpen    prometheus.Gauge
	connects        *prometheus.CounterVec
	exchanges       *prometheus.CounterVec
	exchangeRetries *prometheus.CounterVec
	exchangeLatency *prometheus.HistogramVec
	tableResets     prometheus.Counter
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		channelsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "channel", Name: "open", Help: "Open channels"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "channel", Name: "connects_total", Help: "Channel connect attempts"}, []string{"port", "result"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "total", Help: "Finished command exchanges"}, []string{"operation", "status"}),
		exchangeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "resends_total", Help: "Commands sent again after a bad reply"}, []string{"operation"}),
		exchangeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "duration_seconds", Help: "Exchange duration including resends",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}}, []string{"operation"}),
		tableResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "channel", Name: "table_resets_total", Help: "Channel table resets"}),
	}

	m.reg.MustRegister(
		m.channelsOpen,
		m.connects,
		m.exchanges,
		m.exchangeRetries,
		m.exchangeLatency,
		m.tableResets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          m.reg,
	})
}

// ObserveConnect counts a connect attempt
func (m *Metrics) ObserveConnect(port string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.connects.WithLabelValues(port, result).Inc()
}

// SetChannelsOpen records the number of used slots
func (m *Metrics) SetChannelsOpen(n int) {
	m.channelsOpen.Set(float64(n))
}

// ObserveExchange records a finished exchange
func (m *Metrics) ObserveExchange(operation string, status, attempts int, duration time.Duration) {
	m.exchanges.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	if attempts > 1 {
		m.exchangeRetries.WithLabelValues(operation).Add(float64(attempts - 1))
	}
	m.exchangeLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveReset counts a table reset
func (m *Metrics) ObserveReset() {
	m.tableResets.Inc()
}
