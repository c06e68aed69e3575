// Package metrics holds the batch and price-check counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type Registry struct {
	reg                *prometheus.Registry
	DocumentsProcessed prometheus.Counter
	DocumentsFailed    prometheus.Counter
	DocumentsSkipped   prometheus.Counter
	RecordsExtracted   prometheus.Counter
	RowsRejected       *prometheus.CounterVec
	DocumentSeconds    prometheus.Histogram
	BatchSeconds       prometheus.Gauge

	PriceLookups *prometheus.CounterVec
	PriceDrops   prometheus.Counter
}

// NewRegistry builds a private registry; nothing is exported to the
// default prometheus registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	processed := prometheus.NewCounter(prometheus.CounterOpts{Name: "order_documents_processed_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "order_documents_failed_total"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "order_documents_skipped_total"})
	records := prometheus.NewCounter(prometheus.CounterOpts{Name: "order_records_extracted_total"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "order_rows_rejected_total"}, []string{"reason"})
	docSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_document_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	batchSeconds := prometheus.NewGauge(prometheus.GaugeOpts{Name: "order_batch_duration_seconds"})

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "price_lookups_total"}, []string{"outcome"})
	drops := prometheus.NewCounter(prometheus.CounterOpts{Name: "price_drops_total"})

	r.MustRegister(processed, failed, skipped, records, rejected, docSeconds, batchSeconds, lookups, drops)
	return &Registry{
		reg:                r,
		DocumentsProcessed: processed,
		DocumentsFailed:    failed,
		DocumentsSkipped:   skipped,
		RecordsExtracted:   records,
		RowsRejected:       rejected,
		DocumentSeconds:    docSeconds,
		BatchSeconds:       batchSeconds,
		PriceLookups:       lookups,
		PriceDrops:         drops,
	}
}

// Gatherer exposes the registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes the current values in node-exporter textfile format.
// An empty path is a no-op.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
