package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/denysvitali/preclear/pkg/models"
)

func issue(sev models.Severity, cat models.Category) models.ValidationIssue {
	return models.ValidationIssue{Severity: sev, Category: cat, Message: string(sev)}
}

func TestScore(t *testing.T) {
	mixed := []models.ValidationIssue{
		issue(models.SeverityError, models.CategoryCompliance),
		issue(models.SeverityError, models.CategoryProductRestriction),
		issue(models.SeverityWarning, models.CategoryDataConsistency),
		issue(models.SeverityInfo, models.CategoryDataConsistency),
		issue(models.SeverityInfo, models.CategoryPackingRequirement),
		issue(models.SeverityInfo, models.CategoryPackingRequirement),
	}
	assert.Equal(t, 32, score(mixed))
	assert.Equal(t, 100, score(nil))

	many := make([]models.ValidationIssue, 5)
	for i := range many {
		many[i] = issue(models.SeverityError, models.CategoryCompliance)
	}
	assert.Equal(t, 0, score(many))

	withDocs := append([]models.ValidationIssue{issue(models.SeverityInfo, models.CategoryDataConsistency)},
		issue(models.SeverityError, models.CategoryDocuments))
	assert.Equal(t, 0, score(withDocs))

	// warnings in the documents category do not zero the score
	assert.Equal(t, 95, score([]models.ValidationIssue{issue(models.SeverityWarning, models.CategoryDocuments)}))
}

func TestRemoveOriginMismatch(t *testing.T) {
	issues := []models.ValidationIssue{
		{Severity: models.SeverityWarning, Category: models.CategoryDataConsistency, Message: "Origin country mismatch"},
		{Severity: models.SeverityWarning, Category: models.CategoryCompliance, Message: "Origin country mismatch"},
		{Severity: models.SeverityWarning, Category: models.CategoryDataConsistency, Message: "Weight discrepancy"},
	}
	filtered := removeOriginMismatch(issues)
	assert.Len(t, filtered, 2)
	assert.Equal(t, models.CategoryCompliance, filtered[0].Category)
	assert.Equal(t, "Weight discrepancy", filtered[1].Message)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "b", "a"}))
	assert.Equal(t, []string{}, dedupe(nil))
}
