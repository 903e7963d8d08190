package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/denysvitali/preclear/pkg/models"
)

var (
	referenceRegexp = regexp.MustCompile(`#?\s*(\d{6,})`)
	amountRegexp    = regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2})(?:\D|$)`)
	hsCodeRegexp    = regexp.MustCompile(`\b(\d{6})\b`)
)

// ParseFields pulls known fields out of free text, line by line. Keywords are
// matched ignoring case and a later line overwrites an earlier one for the
// same field. The result is approximate by nature.
func ParseFields(text string, documentType string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)

		if strings.Contains(lower, "invoice") {
			setSubmatch(fields, models.FieldInvoiceNumber, referenceRegexp, line)
		}
		if containsAny(lower, "tracking", "shipment", "bl") {
			setSubmatch(fields, models.FieldTrackingNumber, referenceRegexp, line)
		}
		if strings.Contains(lower, "weight") {
			setAmount(fields, models.FieldWeight, line)
		}
		if containsAny(lower, "total", "value") {
			setAmount(fields, models.FieldTotalValue, line)
		}
		if containsAny(lower, "hs", "tariff") {
			setSubmatch(fields, models.FieldHSCode, hsCodeRegexp, line)
		}
		if strings.Contains(lower, "origin") {
			setToken(fields, models.FieldOriginCountry, line)
		}
		if strings.Contains(lower, "destination") {
			setToken(fields, models.FieldDestinationCountry, line)
		}
	}
	log.Debugf("parsed %d fields from %q document", len(fields), documentType)
	return fields
}

func setSubmatch(fields map[string]string, key string, re *regexp.Regexp, line string) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return
	}
	fields[key] = m[1]
}

// setAmount stores the first amount of line without its thousands separators.
// The decimal separator is kept as written.
func setAmount(fields map[string]string, key string, line string) {
	m := amountRegexp.FindStringSubmatch(line)
	if m == nil {
		return
	}
	amount := m[1]
	sep := len(amount) - 3
	fields[key] = strings.NewReplacer(",", "", ".", "").Replace(amount[:sep]) + amount[sep:]
}

func setToken(fields map[string]string, key string, line string) {
	if t := lastToken(line); t != "" {
		fields[key] = t
	}
}

// lastToken returns the last word longer than two characters, splitting on
// whitespace and punctuation.
func lastToken(line string) string {
	tokens := strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	for i := len(tokens) - 1; i >= 0; i-- {
		if len([]rune(tokens[i])) > 2 {
			return tokens[i]
		}
	}
	return ""
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// MergeFields fills the gaps of the heuristic fields with non-blank values
// from secondary. Heuristic values always win.
func MergeFields(heuristic, secondary map[string]string) map[string]string {
	merged := make(map[string]string, len(heuristic)+len(secondary))
	for k, v := range heuristic {
		merged[k] = v
	}
	for k, v := range secondary {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if existing, ok := merged[k]; ok && existing != "" {
			continue
		}
		merged[k] = strings.TrimSpace(v)
	}
	return merged
}
