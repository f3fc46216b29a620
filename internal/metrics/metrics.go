// Package metrics defines the prometheus collectors exported by vidhub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	VideoMutationsTotal        *prometheus.CounterVec
	DeleteStageFailuresTotal   *prometheus.CounterVec
	AssetOperationsTotal       *prometheus.CounterVec
	ViewWritesTotal            *prometheus.CounterVec
}

// New constructs unregistered collectors.
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		VideoMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_mutations_total",
				Help: "Video publish, update, delete and toggle attempts.",
			},
			[]string{"op", "result"},
		),
		DeleteStageFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_delete_stage_failures_total",
				Help: "Video deletions that stopped at a given cascade stage.",
			},
			[]string{"stage"},
		),
		AssetOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asset_operations_total",
				Help: "Remote asset uploads and deletions.",
			},
			[]string{"op", "kind", "result"},
		),
		ViewWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_view_writes_total",
				Help: "Background view-count writes.",
			},
			[]string{"result"},
		),
	}
}

// MustRegister registers every collector with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.VideoMutationsTotal,
		m.DeleteStageFailuresTotal,
		m.AssetOperationsTotal,
		m.ViewWritesTotal,
	)
}

// Handler exposes the gathered metrics in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Mutation counts a video mutation outcome.
func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	m.VideoMutationsTotal.WithLabelValues(op, result(err)).Inc()
}

// DeleteStageFailed counts a cascade stopping at stage.
func (m *Metrics) DeleteStageFailed(stage string) {
	if m == nil {
		return
	}
	m.DeleteStageFailuresTotal.WithLabelValues(stage).Inc()
}

// AssetOperation counts a remote asset call.
func (m *Metrics) AssetOperation(op, kind string, err error) {
	if m == nil {
		return
	}
	m.AssetOperationsTotal.WithLabelValues(op, kind, result(err)).Inc()
}

// ViewWrite counts a background view write.
func (m *Metrics) ViewWrite(err error) {
	if m == nil {
		return
	}
	m.ViewWritesTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
