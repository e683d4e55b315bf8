// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// Metrics holds all Prometheus metrics for the scanner. A nil *Metrics is
// valid and records nothing, so library code never has to branch on it.
type Metrics struct {
	ScansTotal         prometheus.Counter
	ScanDuration       prometheus.Histogram
	ScanRiskScore      prometheus.Histogram
	HoldingsClassified *prometheus.CounterVec
	RPCErrors          prometheus.Counter
	SourceLookups      *prometheus.CounterVec
	SourceErrors       *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_scanner"
	}

	return &Metrics{
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total completed wallet scans",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of one wallet scan",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ScanRiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_risk_score",
			Help:      "Distribution of portfolio risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		HoldingsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holdings_classified_total",
			Help:      "Holdings classified, labeled by verdict level",
		}, []string{"level"}),
		RPCErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "Chain RPC failures aborting a scan",
		}),
		SourceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_source_lookups_total",
			Help:      "Metadata source lookups, labeled by source",
		}, []string{"source"}),
		SourceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_source_errors_total",
			Help:      "Metadata source lookups degraded to no-data",
		}, []string{"source"}),
	}
}

// ObserveScan records a completed scan.
func (m *Metrics) ObserveScan(elapsed time.Duration, result *domain.ScanResult) {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
	m.ScanRiskScore.Observe(float64(result.Summary.RiskScore))
}

// IncClassified records one classified holding.
func (m *Metrics) IncClassified(level domain.RiskLevel) {
	if m == nil {
		return
	}
	m.HoldingsClassified.WithLabelValues(level.String()).Inc()
}

// IncRPCError records a chain RPC failure.
func (m *Metrics) IncRPCError() {
	if m == nil {
		return
	}
	m.RPCErrors.Inc()
}

// IncSourceLookup records a metadata source lookup.
func (m *Metrics) IncSourceLookup(source string) {
	if m == nil {
		return
	}
	m.SourceLookups.WithLabelValues(source).Inc()
}

// IncSourceError records a source lookup degraded to no-data.
func (m *Metrics) IncSourceError(source string) {
	if m == nil {
		return
	}
	m.SourceErrors.WithLabelValues(source).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
