package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ValuationTotal counts order valuations by outcome (complete, aborted).
	ValuationTotal *prometheus.CounterVec
	// QCDerivedItems records how many QC analyses a derivation returned, by requested type.
	QCDerivedItems *prometheus.HistogramVec
	// InvoiceBatchTotal counts ad hoc invoice issuing outcomes (created, reused, error).
	InvoiceBatchTotal *prometheus.CounterVec
	// InvoiceTaskDuration records worker task latency in milliseconds.
	InvoiceTaskDuration *prometheus.HistogramVec
	// ReportGeneratedTotal counts samples-received report builds (ok, empty, cached, error).
	ReportGeneratedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers laboratory Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ValuationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "valuation_total",
			Help:      "Count of order valuations by outcome.",
		}, []string{"result"})
		QCDerivedItems = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qc_derived_items",
			Help:      "Number of QC analyses returned per derivation.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"type"})
		InvoiceBatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_batch_total",
			Help:      "Count of ad hoc invoice issuing outcomes.",
		}, []string{"result"})
		InvoiceTaskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_task_duration_ms",
			Help:      "Latency of invoice worker tasks in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"result"})
		ReportGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_generated_total",
			Help:      "Count of samples-received report builds by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, ValuationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ValuationTotal = v
			}
		})
		mustRegisterCollector(reg, QCDerivedItems, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				QCDerivedItems = v
			}
		})
		mustRegisterCollector(reg, InvoiceBatchTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceBatchTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceTaskDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				InvoiceTaskDuration = v
			}
		})
		mustRegisterCollector(reg, ReportGeneratedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportGeneratedTotal = v
			}
		})
	})
}
