package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shortshare/shortshare/pkg/metrics"
)

type Metrics struct {
	apiResponseTime *prometheus.HistogramVec
	apiErrorCounter *prometheus.CounterVec
	shareCreated    *prometheus.CounterVec
	shareResolved   *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime: metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter: metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		shareCreated:    metrics.NewCounterVec("share_created", []string{"kind"}),
		shareResolved:   metrics.NewCounterVec("share_resolved", []string{"kind", "outcome"}),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ShareCreatedInc(kind string) {
	m.shareCreated.WithLabelValues(kind).Inc()
}

// ShareResolvedInc outcome: consumed | stats | expired | gated
func (m *Metrics) ShareResolvedInc(kind, outcome string) {
	m.shareResolved.WithLabelValues(kind, outcome).Inc()
}
