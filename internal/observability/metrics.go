package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

const namespace = "disaforms"

// Metrics owns a private prometheus registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggOps       *prometheus.CounterVec
	aggLatency   *prometheus.HistogramVec
	aggConflicts *prometheus.CounterVec
	aggRollbacks *prometheus.CounterVec

	reportPages  *prometheus.CounterVec
	reportRender *prometheus.HistogramVec
	sigFailures  *prometheus.CounterVec

	dbStats *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total",
			Help: "API requests by method/route/form/status.",
		}, []string{"method", "route", "form", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/form/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "form", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aggOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_operations_total",
			Help: "Aggregate writes by operation/status.",
		}, []string{"operation", "status"}),
		aggLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by operation.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"operation"}),
		aggConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_conflicts_total",
			Help: "Guarded updates that lost their race.",
		}, []string{"operation"}),
		aggRollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_rollbacks_total",
			Help: "Aggregate transactions rolled back.",
		}, []string{"operation"}),
		reportPages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "report_pages_total",
			Help: "Report pages rendered by form/format.",
		}, []string{"form", "format"}),
		reportRender: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "report_render_duration_seconds",
			Help:    "Report render latency by form/format/status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"form", "format", "status"}),
		sigFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "report_signature_failures_total",
			Help: "Signature images that could not be decoded.",
		}, []string{"form"}),
		dbStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_pool",
			Help: "database/sql pool statistics.",
		}, []string{"stat"}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Gather exposes the registry for tests.
func (m *Metrics) Gather() (map[string]float64, error) {
	out := map[string]float64{}
	if m == nil {
		return out, nil
	}
	families, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = total
	}
	return out, nil
}

// ObserveAPI records one request. form is the check sheet type, "none" on
// routes that do not address one.
func (m *Metrics) ObserveAPI(method, route, form, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if form == "" {
		form = "none"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, form, status).Inc()
	m.apiLatency.WithLabelValues(method, route, form, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggOps.WithLabelValues(op, status).Inc()
	m.aggLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncAggregateRollback(op string) {
	if m == nil {
		return
	}
	m.aggRollbacks.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveReport(form, format, status string, pages int, dur time.Duration) {
	if m == nil {
		return
	}
	m.reportPages.WithLabelValues(form, format).Add(float64(pages))
	m.reportRender.WithLabelValues(form, format, status).Observe(dur.Seconds())
}

func (m *Metrics) IncSignatureFailure(form string) {
	if m == nil {
		return
	}
	m.sigFailures.WithLabelValues(strings.TrimSpace(form)).Inc()
}

// StartDBCollector samples pool statistics until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}
