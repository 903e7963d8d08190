package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/denysvitali/preclear/pkg/models"
)

// Metrics tracks validation runs, their outcome and the documents they
// extract. All methods are no-ops on a nil *Metrics.
type Metrics struct {
	ValidationsTotal      *prometheus.CounterVec
	ValidationDuration    prometheus.Histogram
	ValidationScore       prometheus.Histogram
	IssuesTotal           *prometheus.CounterVec
	DocumentsExtracted    *prometheus.CounterVec
	DocumentExtractErrors prometheus.Counter
	RulesLoaded           prometheus.Gauge
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "preclear_validations_total",
			Help: "Total number of shipment validations by status",
		}, []string{"status"}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "preclear_validation_duration_seconds",
			Help:    "Duration of a shipment validation including document extraction",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ValidationScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "preclear_validation_score",
			Help:    "Compliance score of validated shipments",
			Buckets: []float64{0, 10, 25, 40, 50, 60, 70, 80, 90, 95, 100},
		}),
		IssuesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "preclear_validation_issues_total",
			Help: "Total number of validation issues by severity and category",
		}, []string{"severity", "category"}),
		DocumentsExtracted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "preclear_documents_extracted_total",
			Help: "Total number of extracted documents by source type",
		}, []string{"source"}),
		DocumentExtractErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "preclear_document_extraction_errors_total",
			Help: "Total number of documents skipped because extraction failed",
		}),
		RulesLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "preclear_rules_loaded",
			Help: "Number of compliance rules in the loaded dataset",
		}),
	}
}

// ObserveValidation records a finished validation run.
// Call with time.Now() at the start of the run.
func (m *Metrics) ObserveValidation(start time.Time, result models.ValidationResult) {
	if m == nil {
		return
	}
	m.ValidationDuration.Observe(time.Since(start).Seconds())
	m.ValidationsTotal.WithLabelValues(result.Status).Inc()
	m.ValidationScore.Observe(float64(result.Score))
	for _, i := range result.Issues {
		m.IssuesTotal.WithLabelValues(string(i.Severity), string(i.Category)).Inc()
	}
}

func (m *Metrics) IncrementDocumentExtracted(source models.SourceType) {
	if m == nil {
		return
	}
	m.DocumentsExtracted.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) IncrementExtractionError() {
	if m == nil {
		return
	}
	m.DocumentExtractErrors.Inc()
}

func (m *Metrics) SetRulesLoaded(n int) {
	if m == nil {
		return
	}
	m.RulesLoaded.Set(float64(n))
}
