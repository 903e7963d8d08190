package models

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Category string

const (
	CategoryDocuments          Category = "documents"
	CategoryDataConsistency    Category = "data_consistency"
	CategoryCompliance         Category = "compliance"
	CategoryProductRestriction Category = "product_restriction"
	CategoryPackingRequirement Category = "packing_requirement"
	CategorySystem             Category = "system"
)

const (
	StatusApproved = "approved"
	StatusFailed   = "failed"
	StatusError    = "error"
)

type ValidationIssue struct {
	Severity        Severity `json:"severity"`
	Category        Category `json:"category"`
	Message         string   `json:"message"`
	Details         string   `json:"details,omitempty"`
	SuggestedAction string   `json:"suggestedAction,omitempty"`
}

// ValidationResult is the verdict of one validation run. It is not modified
// after being returned.
type ValidationResult struct {
	ShipmentID   string            `json:"shipmentId"`
	RunID        string            `json:"runId"`
	IsValid      bool              `json:"isValid"`
	Status       string            `json:"status"`
	Message      string            `json:"message"`
	Issues       []ValidationIssue `json:"issues"`
	Score        int               `json:"score"`
	StartedAt    time.Time         `json:"startedAt"`
	CompletedAt  time.Time         `json:"completedAt"`
	PackingNotes []string          `json:"packingNotes"`
}

// Count returns the number of issues with the given severity.
func (r *ValidationResult) Count(severity Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == severity {
			n++
		}
	}
	return n
}

func (r *ValidationResult) HasErrors() bool {
	return r.Count(SeverityError) > 0
}
