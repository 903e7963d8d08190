package rules

import (
	"errors"
	"strconv"
	"strings"

	"github.com/denysvitali/preclear/pkg/models"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitLine splits a line on delim outside of double quotes. Quote characters
// are kept in the field and removed by cleanField.
func splitLine(line string, delim rune) ([]string, error) {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == delim && !inQuotes:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, errUnterminatedQuote
	}
	fields = append(fields, cleanField(current.String()))
	return fields, nil
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// parseDecimal returns nil for blank or malformed values, meaning "no limit".
func parseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

type header map[string]int

func newHeader(fields []string) header {
	h := header{}
	for i, f := range fields {
		name := strings.ToLower(f)
		if _, ok := h[name]; !ok {
			h[name] = i
		}
	}
	return h
}

// get returns the value of column, or "" when the column is absent or the
// row is shorter than the header.
func (h header) get(fields []string, column string) string {
	idx, ok := h[column]
	if !ok || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func (h header) parseRule(fields []string) models.ComplianceRule {
	return models.ComplianceRule{
		OriginCountry:         h.get(fields, "origin_country"),
		OriginCountryISO:      h.get(fields, "origin_country_iso"),
		DestinationCountry:    h.get(fields, "country"),
		DestinationCountryISO: h.get(fields, "country_iso"),
		Mode:                  h.get(fields, "mode"),
		PackageType:           h.get(fields, "package_type"),
		ProductDescription:    h.get(fields, "product_description"),
		HSCode:                h.get(fields, "hs_code"),
		MaxWeightKgPerPackage: parseDecimal(h.get(fields, "max_weight_kg_per_package")),
		MaxTotalWeightKg:      parseDecimal(h.get(fields, "max_total_weight_kg")),
		Restricted:            parseBool(h.get(fields, "restricted")),
		RestrictedDetails:     h.get(fields, "restricted_details"),
		Banned:                parseBool(h.get(fields, "banned")),
		BannedDetails:         h.get(fields, "banned_details"),
		PackingNotes:          h.get(fields, "packing_notes"),
	}
}
