package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"AwesomeSentinel/internal/model"
)

// Metrics holds all Prometheus metrics for the dashboard service.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: result=ok|error
	ProviderErrors   *prometheus.CounterVec // labels: kind
	AnalysisDuration prometheus.Histogram
	BarsLoaded       prometheus.Gauge
	CurrentSignal    *prometheus.GaugeVec // labels: symbol; 1 buy, 0 neutral, -1 sell
	WSClients        prometheus.Gauge
	ChartBuilds      *prometheus.CounterVec // labels: cache=hit|miss

	gatherer prometheus.Gatherer
}

// NewMetrics registers all metrics on reg. Pass prometheus.NewRegistry() in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_analyses_total",
			Help: "Completed analysis pipeline runs by result",
		}, []string{"result"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_provider_errors_total",
			Help: "Data provider failures by kind",
		}, []string{"kind"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_analysis_duration_seconds",
			Help:    "Wall time of one analysis run including the provider fetch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		BarsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_bars_loaded",
			Help: "Number of weekly bars in the current analysis record",
		}),
		CurrentSignal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_current_signal",
			Help: "Signal of the current record: 1 buy, 0 neutral, -1 sell",
		}, []string{"symbol"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		ChartBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_chart_builds_total",
			Help: "Chart series requests by memo cache outcome",
		}, []string{"cache"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.AnalysesTotal,
		m.ProviderErrors,
		m.AnalysisDuration,
		m.BarsLoaded,
		m.CurrentSignal,
		m.WSClients,
		m.ChartBuilds,
	)
	return m
}

// ObserveSuccess records a completed run that replaced the current record.
func (m *Metrics) ObserveSuccess(rec *model.AnalysisRecord, took time.Duration) {
	m.AnalysesTotal.WithLabelValues("ok").Inc()
	m.AnalysisDuration.Observe(took.Seconds())
	m.BarsLoaded.Set(float64(len(rec.Bars)))
	m.CurrentSignal.Reset()
	m.CurrentSignal.WithLabelValues(rec.Symbol).Set(SignalValue(rec.Signal))
}

// ObserveFailure records a failed run; kind is a short error class.
func (m *Metrics) ObserveFailure(kind string, took time.Duration) {
	m.AnalysesTotal.WithLabelValues("error").Inc()
	m.ProviderErrors.WithLabelValues(kind).Inc()
	m.AnalysisDuration.Observe(took.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// SignalValue maps a signal onto the gauge scale.
func SignalValue(s model.Signal) float64 {
	switch s {
	case model.SignalBuy:
		return 1
	case model.SignalSell:
		return -1
	default:
		return 0
	}
}
