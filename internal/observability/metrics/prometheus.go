// Package metrics provides the Prometheus implementation of the
// observability.Metrics contract. The downloader is a batch job, so metrics
// are collected in a private registry and pushed to a Pushgateway at the end
// of the run instead of being scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PrometheusMetrics implements observability.Metrics using the Prometheus
// client library. All metric names are prefixed with the service name.
type PrometheusMetrics struct {
	serviceName string
	registry    *prometheus.Registry

	processedTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	fileSizeBytes   *prometheus.HistogramVec
	inProgress      *prometheus.GaugeVec
}

// New creates a PrometheusMetrics instance with pre-configured metrics
// registered in a private registry:
//
//	{service}_processed_total{status,type}
//	{service}_errors_total{error_type,operation}
//	{service}_duration_seconds{operation}
//	{service}_file_size_bytes{type}
//	{service}_in_progress{operation}
func New(serviceName string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		serviceName: serviceName,
		registry:    prometheus.NewRegistry(),
	}

	m.processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_processed_total", serviceName),
			Help: fmt.Sprintf("Total processed items by %s", serviceName),
		},
		[]string{"status", "type"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", serviceName),
			Help: fmt.Sprintf("Total errors in %s", serviceName),
		},
		[]string{"error_type", "operation"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", serviceName),
			Help:    fmt.Sprintf("Operation duration in %s", serviceName),
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Exponential buckets from 1KB to 10GB, sized for satellite product files.
	m.fileSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_file_size_bytes", serviceName),
			Help:    fmt.Sprintf("File sizes processed by %s", serviceName),
			Buckets: prometheus.ExponentialBuckets(1024, 10, 8),
		},
		[]string{"type"},
	)

	m.inProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", serviceName),
			Help: fmt.Sprintf("Operations currently in progress in %s", serviceName),
		},
		[]string{"operation"},
	)

	m.registry.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
	)

	return m
}

func (m *PrometheusMetrics) RecordSuccess(operation string) {
	m.processedTotal.WithLabelValues("success", operation).Inc()
}

func (m *PrometheusMetrics) RecordError(operation string, errorType string) {
	m.processedTotal.WithLabelValues("error", operation).Inc()
	m.errorsTotal.WithLabelValues(errorType, operation).Inc()
}

func (m *PrometheusMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

func (m *PrometheusMetrics) RecordFileSize(productType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(productType).Observe(float64(bytes))
}

func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}

// Push sends the collected registry to a Pushgateway. Call once at the end of
// a run; a failed push must not fail the batch, so the caller logs the error
// and moves on.
func (m *PrometheusMetrics) Push(gatewayURL string) error {
	return push.New(gatewayURL, m.serviceName).
		Gatherer(m.registry).
		Push()
}
