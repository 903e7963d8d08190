package ocrclient

import (
	"bytes"
	"context"
	"net/http"

	"github.com/denysvitali/preclear/pkg/ocrtext"
)

const (
	defaultMergeDistance      = 150
	defaultHorizontalDistance = 10
)

// Recognizer exposes the OCR client as a line-oriented text recognizer.
type Recognizer struct {
	client             *Client
	mergeDistance      float64
	horizontalDistance float64
}

func NewRecognizer(client *Client) *Recognizer {
	return &Recognizer{
		client:             client,
		mergeDistance:      defaultMergeDistance,
		horizontalDistance: defaultHorizontalDistance,
	}
}

// RecognizeText returns the recognized text lines in reading order, followed
// by one line per barcode value prefixed with "Barcode:".
func (r *Recognizer) RecognizeText(ctx context.Context, content []byte) ([]string, error) {
	res, err := r.client.Process(ctx, bytes.NewReader(content), http.DetectContentType(content))
	if err != nil {
		return nil, err
	}
	blocks := make([]ocrtext.Block, 0, len(res.TextBlocks))
	for _, b := range res.TextBlocks {
		blocks = append(blocks, ocrtext.Block{
			Text:   b.Text,
			Top:    b.BoundingBox.Top,
			Left:   b.BoundingBox.Left,
			Bottom: b.BoundingBox.Bottom,
			Right:  b.BoundingBox.Right,
		})
	}
	lines := ocrtext.Lines(blocks, r.mergeDistance, r.horizontalDistance)
	for _, v := range res.BarcodeValues() {
		lines = append(lines, "Barcode: "+v)
	}
	return lines, nil
}
