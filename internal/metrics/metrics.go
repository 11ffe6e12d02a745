package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ToolSwitchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoeditor_tool_switches_total",
		Help: "Total tool switches by tool id",
	}, []string{"tool"})
	UnknownToolsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoeditor_unknown_tools_total",
		Help: "Total switches to unrecognized tool ids",
	})
	CommitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoeditor_commits_total",
		Help: "Total store writes by lifecycle operation",
	}, []string{"op"})
	HistoryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoeditor_history_total",
		Help: "Total applied undo/redo steps",
	}, []string{"direction"})
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoeditor_exports_total",
		Help: "Total exports by format",
	}, []string{"format"})
	ExportDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoeditor_export_duration_ms",
		Help:    "Export duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geoeditor_sessions_active",
		Help: "Number of live editing sessions",
	})
	PersistFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoeditor_persist_failures_total",
		Help: "Total failed document writes by backend",
	}, []string{"backend"})
	OverlayFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoeditor_overlay_fetches_total",
		Help: "Overlay fetches by status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(ToolSwitchesTotal)
	prometheus.MustRegister(UnknownToolsTotal)
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(HistoryTotal)
	prometheus.MustRegister(ExportsTotal)
	prometheus.MustRegister(ExportDurationMs)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(PersistFailuresTotal)
	prometheus.MustRegister(OverlayFetchesTotal)
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
