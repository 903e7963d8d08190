package validator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/rules"
)

const (
	weightTolerance = 0.10
	valueTolerance  = 0.05
	hsPrefixLength  = 4
)

func (r *run) checkDocuments() {
	if len(r.docs) == 0 {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryDocuments,
			Message:         "No documents provided",
			Details:         "At least a commercial invoice and a packing list are required for customs clearance.",
			SuggestedAction: "Upload the shipment documents",
		})
		return
	}

	if !r.hasDocumentType("commercial invoice") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryDocuments,
			Message:         "Missing commercial invoice",
			Details:         "A commercial invoice is required to declare the value of the goods.",
			SuggestedAction: "Upload a commercial invoice listing the goods, their value and the parties",
		})
	}
	if !r.hasDocumentType("packing list") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryDocuments,
			Message:         "Missing packing list",
			Details:         "A packing list is required to verify package contents and weights.",
			SuggestedAction: "Upload a packing list with package weights and dimensions",
		})
	}
}

// mergedFields combines the fields of all documents. The first document
// providing a field wins.
func (r *run) mergedFields() map[string]string {
	merged := map[string]string{}
	for _, d := range r.docs {
		for k, v := range d.Fields {
			if _, ok := merged[k]; ok {
				continue
			}
			merged[k] = v
		}
	}
	return merged
}

func (r *run) checkDataConsistency() {
	fields := r.mergedFields()

	if dest, ok := fields[models.FieldDestinationCountry]; ok {
		if consignee := r.declared.Consignee(); consignee != nil && consignee.Country != "" &&
			!strings.EqualFold(strings.TrimSpace(consignee.Country), strings.TrimSpace(dest)) {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityWarning,
				Category:        models.CategoryDataConsistency,
				Message:         "Destination country mismatch",
				Details:         fmt.Sprintf("Declared %q, documents state %q", consignee.Country, dest),
				SuggestedAction: "Verify the consignee country on the form and on the documents",
			})
		}
	}

	if weight, ok := parseDecimal(fields[models.FieldWeight]); ok {
		if declared, ok := r.declared.TotalWeightKg(); ok &&
			math.Abs(weight-declared) > declared*weightTolerance {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityWarning,
				Category:        models.CategoryDataConsistency,
				Message:         "Weight discrepancy",
				Details:         fmt.Sprintf("Declared %.2f kg, documents state %.2f kg", declared, weight),
				SuggestedAction: "Correct the declared package weights or the documents",
			})
		}
	}

	if hs := strings.TrimSpace(fields[models.FieldHSCode]); hs != "" {
		if item := r.declared.FirstItem(); item != nil && item.HSCode != "" {
			prefix := hs
			if len(prefix) > hsPrefixLength {
				prefix = prefix[:hsPrefixLength]
			}
			if !strings.HasPrefix(item.HSCode, prefix) {
				r.add(models.ValidationIssue{
					Severity:        models.SeverityWarning,
					Category:        models.CategoryDataConsistency,
					Message:         "HS code mismatch",
					Details:         fmt.Sprintf("Declared %s, documents state %s", item.HSCode, hs),
					SuggestedAction: "Verify the product classification",
				})
			}
		}
	}

	if value, ok := parseDecimal(fields[models.FieldTotalValue]); ok {
		if cv := r.declared.Shipment.CustomsValue; cv != nil &&
			math.Abs(value-*cv) > *cv*valueTolerance {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityInfo,
				Category:        models.CategoryDataConsistency,
				Message:         "Total value discrepancy",
				Details:         fmt.Sprintf("Declared %.2f %s, documents state %.2f", *cv, r.declared.Shipment.Currency, value),
				SuggestedAction: "Confirm the customs value matches the commercial invoice",
			})
		}
	}
}

func (r *run) checkCompliance(matcher RuleMatcher) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warnf("compliance check failed: %v", rec)
			r.add(models.ValidationIssue{
				Severity:        models.SeverityWarning,
				Category:        models.CategoryCompliance,
				Message:         "Compliance validation incomplete",
				Details:         fmt.Sprint(rec),
				SuggestedAction: "Review the shipment against the applicable regulations manually",
			})
		}
	}()
	if matcher == nil {
		return
	}

	q := rules.Query{Mode: r.declared.Shipment.Mode}
	if shipper := r.declared.Shipper(); shipper != nil {
		q.Origin = shipper.Country
	}
	if consignee := r.declared.Consignee(); consignee != nil {
		q.Destination = consignee.Country
	}
	if pkg := r.declared.FirstPackage(); pkg != nil {
		q.PackageType = pkg.Type
	}
	if item := r.declared.FirstItem(); item != nil {
		q.HSCode = item.HSCode
	}
	totalWeight, hasWeight := r.declared.TotalWeightKg()

	for _, rule := range matcher.FindMatchingRules(q) {
		if notes := strings.TrimSpace(rule.PackingNotes); notes != "" {
			r.notes = append(r.notes, notes)
		}

		if rule.Banned {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityError,
				Category:        models.CategoryCompliance,
				Message:         "Product is banned for this route",
				Details:         rule.BannedDetails,
				SuggestedAction: "This product cannot be shipped on this route",
			})
			continue
		}
		if rule.Restricted {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityWarning,
				Category:        models.CategoryCompliance,
				Message:         "Product is restricted for this route",
				Details:         rule.RestrictedDetails,
				SuggestedAction: "Attach the required permits or licenses",
			})
		}
		if !hasWeight {
			continue
		}
		if limit := rule.MaxWeightKgPerPackage; limit != nil && totalWeight > *limit {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityError,
				Category:        models.CategoryCompliance,
				Message:         "Package weight exceeds limit",
				Details:         fmt.Sprintf("%.2f kg exceeds the limit of %.2f kg per package", totalWeight, *limit),
				SuggestedAction: "Split the goods into lighter packages",
			})
		}
		if limit := rule.MaxTotalWeightKg; limit != nil && totalWeight > *limit {
			r.add(models.ValidationIssue{
				Severity:        models.SeverityError,
				Category:        models.CategoryCompliance,
				Message:         "Total weight exceeds limit",
				Details:         fmt.Sprintf("%.2f kg exceeds the total limit of %.2f kg", totalWeight, *limit),
				SuggestedAction: "Reduce the shipment weight or split it into several shipments",
			})
		}
	}
}

func (r *run) checkProductRestrictions() {
	product := r.declared.ProductText()
	if product == "" {
		return
	}

	if containsAny(product, "lithium", "battery") && strings.EqualFold(r.declared.Shipment.Mode, "air") &&
		!r.textContainsExact("IATA", "DG") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryProductRestriction,
			Message:         "Missing IATA dangerous goods documentation",
			Details:         "Lithium batteries shipped by air require a dangerous goods declaration.",
			SuggestedAction: "Upload a shipper's declaration for dangerous goods (IATA DGR)",
		})
	}
	if containsAny(product, "pharmaceutical", "medicine", "drug") &&
		!r.hasDocumentType("license", "certificate") && !r.textContainsExact("GMP") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryProductRestriction,
			Message:         "Missing pharmaceutical license or certificate",
			Details:         "Pharmaceutical products require an import license or a GMP certificate.",
			SuggestedAction: "Upload the import license or GMP certificate",
		})
	}
	if containsAny(product, "hazard", "chemical", "solvent") && !r.textContainsExact("ADR", "IMDG", "SDS") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryProductRestriction,
			Message:         "Missing hazardous materials documentation",
			Details:         "Hazardous goods require a safety data sheet and ADR/IMDG documentation.",
			SuggestedAction: "Upload the safety data sheet (SDS) and dangerous goods declaration",
		})
	}
	if containsAny(product, "animal", "pet") && !r.textContains("veterinary", "health certificate") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityError,
			Category:        models.CategoryProductRestriction,
			Message:         "Missing veterinary health certificate",
			Details:         "Animals and animal products require a veterinary health certificate.",
			SuggestedAction: "Upload a veterinary health certificate",
		})
	}
}

func (r *run) checkPackingRequirements() {
	product := r.declared.ProductText()
	if product == "" {
		return
	}
	mode := strings.ToLower(strings.TrimSpace(r.declared.Shipment.Mode))

	if (mode == "sea" || mode == "multimodal") && containsAny(product, "chemical") &&
		!r.textContainsExact("IMDG") && !r.textContains("packing") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityWarning,
			Category:        models.CategoryPackingRequirement,
			Message:         "IMDG packing requirements not documented",
			Details:         "Chemicals shipped by sea must be packed according to the IMDG code.",
			SuggestedAction: "Document the IMDG compliant packaging",
		})
	}
	if containsAny(product, "pharmaceutical", "fresh", "fruit", "vegetable") &&
		!r.textContains("temperature", "cold chain", "refrigerat") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityInfo,
			Category:        models.CategoryPackingRequirement,
			Message:         "Temperature control not documented",
			Details:         "Perishable goods usually require temperature controlled transport.",
			SuggestedAction: "State the cold chain requirements on the packing list",
		})
	}
	if containsAny(product, "electronic", "fragile", "toy") &&
		!r.textContains("shock", "protection", "cushion") {
		r.add(models.ValidationIssue{
			Severity:        models.SeverityInfo,
			Category:        models.CategoryPackingRequirement,
			Message:         "Protective packaging not documented",
			Details:         "Fragile goods should be packed with shock protection.",
			SuggestedAction: "Describe the protective packaging on the packing list",
		})
	}
}

// hasDocumentType reports whether any document type contains one of the
// given names, ignoring case.
func (r *run) hasDocumentType(names ...string) bool {
	for _, d := range r.docs {
		if containsAny(d.DocumentType, names...) {
			return true
		}
	}
	return false
}

func (r *run) textContains(words ...string) bool {
	for _, d := range r.docs {
		if containsAny(d.Text, words...) {
			return true
		}
	}
	return false
}

// textContainsExact matches acronyms with their case preserved.
func (r *run) textContainsExact(acronyms ...string) bool {
	for _, d := range r.docs {
		for _, a := range acronyms {
			if strings.Contains(d.Text, a) {
				return true
			}
		}
	}
	return false
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
