package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/denysvitali/preclear/pkg/metrics"
	"github.com/denysvitali/preclear/pkg/models"
)

func TestObserveValidation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveValidation(time.Now(), models.ValidationResult{
		Status: models.StatusFailed,
		Score:  0,
		Issues: []models.ValidationIssue{
			{Severity: models.SeverityError, Category: models.CategoryDocuments},
			{Severity: models.SeverityInfo, Category: models.CategoryPackingRequirement},
		},
	})
	m.ObserveValidation(time.Now(), models.ValidationResult{Status: models.StatusApproved, Score: 100})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues(models.StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues(models.StatusApproved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesTotal.WithLabelValues("error", "documents")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.IssuesTotal))
}

func TestDocumentsAndRules(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.IncrementDocumentExtracted(models.SourcePDF)
	m.IncrementDocumentExtracted(models.SourcePDF)
	m.IncrementExtractionError()
	m.SetRulesLoaded(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsExtracted.WithLabelValues("pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentExtractErrors))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.RulesLoaded))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveValidation(time.Now(), models.ValidationResult{})
		m.IncrementDocumentExtracted(models.SourceCSV)
		m.IncrementExtractionError()
		m.SetRulesLoaded(1)
	})
}
