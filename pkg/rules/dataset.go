package rules

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
)

var log = logrus.StandardLogger().WithField("package", "rules")

// Dataset is the in-memory table of shipping restriction rules. It is loaded
// once and only read afterwards.
type Dataset struct {
	// mu only orders the single Load against readers that start early.
	mu        sync.RWMutex
	rules     []models.ComplianceRule
	delimiter rune
}

type Option func(*Dataset)

func WithDelimiter(delim rune) Option {
	return func(d *Dataset) {
		d.delimiter = delim
	}
}

func New(opts ...Option) *Dataset {
	d := &Dataset{delimiter: ','}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query holds the shipment dimensions rules are matched against.
type Query struct {
	Origin      string
	Destination string
	Mode        string
	PackageType string
	HSCode      string
}

// LoadFile loads the dataset from path. A missing or unreadable file leaves
// the dataset empty.
func (d *Dataset) LoadFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		log.Warnf("unable to open rule dataset %s, continuing without rules: %v", path, err)
		return d.Len()
	}
	defer f.Close()
	return d.Load(f)
}

// Load parses a delimited source with a mandatory header row and returns the
// number of rules held afterwards. It does nothing when rules are already
// loaded. Malformed rows are logged and skipped.
func (d *Dataset) Load(r io.Reader) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rules) > 0 {
		log.Debugf("rule dataset already loaded (%d rules)", len(d.rules))
		return len(d.rules)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		log.Warnf("unable to read rule dataset, continuing without rules: %v", err)
		return 0
	}

	var lines []string
	for _, l := range strings.Split(string(b), "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) < 2 {
		log.Warnf("rule dataset has no data rows")
		return 0
	}

	headerFields, err := splitLine(lines[0], d.delimiter)
	if err != nil {
		log.Warnf("unable to parse rule dataset header: %v", err)
		return 0
	}
	h := newHeader(headerFields)

	rules := make([]models.ComplianceRule, 0, len(lines)-1)
	for i, line := range lines[1:] {
		fields, err := splitLine(line, d.delimiter)
		if err != nil {
			log.Warnf("skipping rule row %d: %v", i+2, err)
			continue
		}
		if len(fields) < len(headerFields) {
			log.Debugf("rule row %d has %d of %d fields, missing columns are blank", i+2, len(fields), len(headerFields))
		}
		rules = append(rules, h.parseRule(fields))
	}
	d.rules = rules
	log.Infof("loaded %d compliance rules", len(rules))
	return len(rules)
}

func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rules)
}

// FindMatchingRules returns, in dataset order, every rule whose dimensions are
// blank or equal (ignoring case) to the query. The rule HS code matches when
// the query HS code starts with it.
func (d *Dataset) FindMatchingRules(q Query) []models.ComplianceRule {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var matched []models.ComplianceRule
	for _, r := range d.rules {
		if Matches(r, q) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Matches reports whether rule applies to q.
func Matches(rule models.ComplianceRule, q Query) bool {
	return matchCountry(rule.OriginCountry, rule.OriginCountryISO, q.Origin) &&
		matchCountry(rule.DestinationCountry, rule.DestinationCountryISO, q.Destination) &&
		matchField(rule.Mode, q.Mode) &&
		matchField(rule.PackageType, q.PackageType) &&
		matchHSCode(rule.HSCode, q.HSCode)
}

func matchField(ruleValue, value string) bool {
	return ruleValue == "" || strings.EqualFold(ruleValue, strings.TrimSpace(value))
}

// matchCountry accepts either the country name or its ISO code.
func matchCountry(name, iso, value string) bool {
	if name == "" && iso == "" {
		return true
	}
	value = strings.TrimSpace(value)
	return (name != "" && strings.EqualFold(name, value)) ||
		(iso != "" && strings.EqualFold(iso, value))
}

func matchHSCode(ruleCode, code string) bool {
	return ruleCode == "" || strings.HasPrefix(strings.TrimSpace(code), ruleCode)
}
