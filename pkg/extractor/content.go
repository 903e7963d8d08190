package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/denysvitali/preclear/pkg/models"
)

// TextRecognizer turns image-like content into recognized text lines.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, content []byte) ([]string, error)
}

// ExtractContent converts raw document bytes to plain text according to the
// source type. PDF failures are returned; OCR failures degrade to no text.
func ExtractContent(ctx context.Context, source models.SourceType, content []byte, ocr TextRecognizer) (string, error) {
	switch source {
	case models.SourcePDF:
		return pdfText(content)
	case models.SourceCSV, models.SourceText, models.SourceJSON:
		return string(content), nil
	default:
		return recognize(ctx, ocr, content), nil
	}
}

func pdfText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text of page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func recognize(ctx context.Context, ocr TextRecognizer, content []byte) string {
	if ocr == nil {
		log.Debugf("no text recognizer configured, skipping OCR")
		return ""
	}
	lines, err := ocr.RecognizeText(ctx, content)
	if err != nil {
		log.Warnf("text recognition failed: %v", err)
		return ""
	}
	return strings.Join(lines, "\n")
}
