package ocrtext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/denysvitali/preclear/pkg/ocrtext"
)

func TestLines(t *testing.T) {
	blocks := []ocrtext.Block{
		{Text: "Total weight: 115.00 kg", Top: 300, Left: 20},
		{Text: "COMMERCIAL INVOICE", Top: 10, Left: 20},
		{Text: "Invoice # 1234567", Top: 60, Left: 22},
		{Text: "Date: 2024-03-01", Top: 62, Left: 120},
		{Text: "Consignee", Top: 12, Left: 600},
		{Text: "Destination: Germany", Top: 50, Left: 605},
	}
	lines := ocrtext.Lines(blocks, 150, 10)
	assert.Equal(t, []string{
		"COMMERCIAL INVOICE",
		"Invoice # 1234567 Date: 2024-03-01",
		"Total weight: 115.00 kg",
		"Consignee",
		"Destination: Germany",
	}, lines)
}

func TestLines_SkipsBlankBlocks(t *testing.T) {
	lines := ocrtext.Lines([]ocrtext.Block{{Text: "  "}, {Text: "HS Code 850410", Top: 40}}, 150, 10)
	assert.Equal(t, []string{"HS Code 850410"}, lines)
}

func TestLines_Empty(t *testing.T) {
	assert.Empty(t, ocrtext.Lines(nil, 150, 10))
}
