package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/rules"
)

var log = logrus.StandardLogger().WithField("package", "validator")

const (
	maxScore = 100

	errorPenalty   = 30
	warningPenalty = 5
	infoPenalty    = 1
)

// RuleMatcher returns the compliance rules applicable to a shipment.
type RuleMatcher interface {
	FindMatchingRules(q rules.Query) []models.ComplianceRule
}

var _ RuleMatcher = (*rules.Dataset)(nil)

type Validator struct {
	rules RuleMatcher
	now   func() time.Time
}

type Option func(*Validator)

func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(matcher RuleMatcher, opts ...Option) *Validator {
	v := &Validator{
		rules: matcher,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// run holds the state of a single validation. It is never shared between
// calls to ValidateShipment.
type run struct {
	declared *models.ShipmentDetail
	docs     []models.ExtractedDocument
	issues   []models.ValidationIssue
	notes    []string
}

func (r *run) add(issue models.ValidationIssue) {
	r.issues = append(r.issues, issue)
}

// ValidateShipment reconciles the declared shipment data with the extracted
// documents and the rule dataset. It always returns a well-formed result: a
// panic during the run yields a result with status "error".
func (v *Validator) ValidateShipment(declared *models.ShipmentDetail, docs []models.ExtractedDocument) (result models.ValidationResult) {
	result = models.ValidationResult{
		RunID:     uuid.NewString(),
		StartedAt: v.now(),
	}
	if declared != nil {
		result.ShipmentID = declared.Shipment.ID
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("validation of shipment %q aborted: %v", result.ShipmentID, rec)
			v.fail(&result, fmt.Sprint(rec))
		}
	}()

	if declared == nil {
		v.fail(&result, "no declared shipment data")
		return result
	}

	r := &run{declared: declared, docs: docs}
	r.checkDocuments()
	r.checkDataConsistency()
	r.checkCompliance(v.rules)
	r.checkProductRestrictions()
	r.checkPackingRequirements()
	r.issues = removeOriginMismatch(r.issues)

	result.Issues = r.issues
	if result.Issues == nil {
		result.Issues = []models.ValidationIssue{}
	}
	result.PackingNotes = dedupe(r.notes)
	result.IsValid = !result.HasErrors()
	result.Score = score(result.Issues)
	if result.IsValid {
		result.Status = models.StatusApproved
	} else {
		result.Status = models.StatusFailed
	}
	result.Message = summary(&result)
	result.CompletedAt = v.now()

	log.Debugf("shipment %q validated: status=%s score=%d issues=%d",
		result.ShipmentID, result.Status, result.Score, len(result.Issues))
	return result
}

// fail turns result into an errored verdict carrying a single system issue.
func (v *Validator) fail(result *models.ValidationResult, reason string) {
	result.IsValid = false
	result.Status = models.StatusError
	result.Message = "Validation could not be completed"
	result.Score = 0
	result.PackingNotes = []string{}
	result.Issues = []models.ValidationIssue{{
		Severity:        models.SeverityError,
		Category:        models.CategorySystem,
		Message:         "Validation error",
		Details:         reason,
		SuggestedAction: "Retry the validation or contact support",
	}}
	result.CompletedAt = v.now()
}

func score(issues []models.ValidationIssue) int {
	var errs, warns, infos int
	for _, i := range issues {
		switch i.Severity {
		case models.SeverityError:
			if i.Category == models.CategoryDocuments {
				return 0
			}
			errs++
		case models.SeverityWarning:
			warns++
		case models.SeverityInfo:
			infos++
		}
	}
	s := maxScore - errorPenalty*errs - warningPenalty*warns - infoPenalty*infos
	return max(0, min(maxScore, s))
}

func summary(r *models.ValidationResult) string {
	if !r.IsValid {
		return fmt.Sprintf("Validation failed with %d error(s)", r.Count(models.SeverityError))
	}
	if w := r.Count(models.SeverityWarning); w > 0 {
		return fmt.Sprintf("Validation passed with %d warning(s)", w)
	}
	return "All validation checks passed"
}

// removeOriginMismatch drops origin country mismatches: the origin country
// consistency check is disabled.
func removeOriginMismatch(issues []models.ValidationIssue) []models.ValidationIssue {
	filtered := issues[:0]
	for _, i := range issues {
		if i.Message == "Origin country mismatch" && i.Category == models.CategoryDataConsistency {
			continue
		}
		filtered = append(filtered, i)
	}
	return filtered
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func containsAny(s string, substrings ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
