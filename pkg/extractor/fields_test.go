package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/denysvitali/preclear/pkg/extractor"
	"github.com/denysvitali/preclear/pkg/models"
)

const invoiceText = `COMMERCIAL INVOICE
Invoice No: #1234567
Tracking number 99887766554
Gross weight: 115.00 kg
Total value: 2,500.00 USD
HS Code: 850410
Country of origin: China
Destination: Germany`

func TestParseFields(t *testing.T) {
	fields := extractor.ParseFields(invoiceText, "Commercial Invoice")
	assert.Equal(t, "1234567", fields[models.FieldInvoiceNumber])
	assert.Equal(t, "99887766554", fields[models.FieldTrackingNumber])
	assert.Equal(t, "115.00", fields[models.FieldWeight])
	assert.Equal(t, "2500.00", fields[models.FieldTotalValue])
	assert.Equal(t, "850410", fields[models.FieldHSCode])
	assert.Equal(t, "China", fields[models.FieldOriginCountry])
	assert.Equal(t, "Germany", fields[models.FieldDestinationCountry])
}

func TestParseFields_LastMatchWins(t *testing.T) {
	fields := extractor.ParseFields("Net weight 10.00\nGross weight 12,50", "Packing List")
	assert.Equal(t, "12,50", fields[models.FieldWeight])
}

func TestParseFields_AmountWithUnit(t *testing.T) {
	fields := extractor.ParseFields("Gross weight: 115.00kg\nTotal value: 2500.00USD", "Commercial Invoice")
	assert.Equal(t, "115.00", fields[models.FieldWeight])
	assert.Equal(t, "2500.00", fields[models.FieldTotalValue])
}

func TestParseFields_ThousandsSeparators(t *testing.T) {
	tests := map[string]string{
		"Total value: 1,234.56":       "1234.56",
		"Total value: 1.234.567,89":   "1234567,89",
		"Total value: USD 12,345.00.": "12345.00",
		"Total value: 12,50 EUR":      "12,50",
	}
	for line, want := range tests {
		fields := extractor.ParseFields(line, "Commercial Invoice")
		assert.Equal(t, want, fields[models.FieldTotalValue], line)
	}
}

func TestParseFields_ShortNumbersIgnored(t *testing.T) {
	fields := extractor.ParseFields("Invoice 12345\nweight 10 kg\nHS 8504", "Commercial Invoice")
	assert.NotContains(t, fields, models.FieldInvoiceNumber)
	assert.NotContains(t, fields, models.FieldWeight)
	assert.NotContains(t, fields, models.FieldHSCode)
}

func TestParseFields_KeywordsIgnoreCase(t *testing.T) {
	fields := extractor.ParseFields("SHIPMENT REF 4455667788\nTARIFF 300490", "Bill of Lading")
	assert.Equal(t, "4455667788", fields[models.FieldTrackingNumber])
	assert.Equal(t, "300490", fields[models.FieldHSCode])
}

func TestParseFields_CountryToken(t *testing.T) {
	fields := extractor.ParseFields("Origin: CN\nDestination: United States, NY", "Commercial Invoice")
	// Tokens of two characters or less are skipped.
	assert.Equal(t, "Origin", fields[models.FieldOriginCountry])
	assert.Equal(t, "States", fields[models.FieldDestinationCountry])

	fields = extractor.ParseFields("Origin country: USA", "Certificate of Origin")
	assert.Equal(t, "USA", fields[models.FieldOriginCountry])
}

func TestParseFields_Empty(t *testing.T) {
	assert.Empty(t, extractor.ParseFields("", "Commercial Invoice"))
}

func TestMergeFields(t *testing.T) {
	heuristic := map[string]string{models.FieldHSCode: "850410"}
	ai := map[string]string{
		models.FieldHSCode:        "999999",
		models.FieldWeight:        " 42.00 ",
		models.FieldOriginCountry: "  ",
	}
	merged := extractor.MergeFields(heuristic, ai)
	assert.Equal(t, map[string]string{
		models.FieldHSCode: "850410",
		models.FieldWeight: "42.00",
	}, merged)
}

func TestMergeFields_NilSecondary(t *testing.T) {
	merged := extractor.MergeFields(map[string]string{models.FieldWeight: "1.00"}, nil)
	assert.Equal(t, map[string]string{models.FieldWeight: "1.00"}, merged)
}
