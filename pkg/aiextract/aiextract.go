package aiextract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/denysvitali/preclear/pkg/models"
)

var log = logrus.StandardLogger().WithField("package", "aiextract")

const (
	DefaultModel = "gemini-2.5-flash"
	// maxPromptChars bounds the document text sent to the model.
	maxPromptChars = 30000
)

const systemPrompt = `You extract fields from customs shipment documents (commercial invoices,
packing lists, bills of lading, certificates).

Respond ONLY with a single JSON object whose keys are a subset of:
invoice_number, tracking_number, weight, total_value, hs_code, origin_country, destination_country.
All values are strings. Omit a key when the document does not state it. Do not guess.
weight is the total gross weight in kilograms with two decimals, e.g. "115.00".
total_value is the invoice total with two decimals and no currency symbol.
hs_code is the 6 digit Harmonized System code without dots.`

// Extractor asks a Gemini model for the fields of a document.
type Extractor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New returns a nil Extractor and no error when apiKey is empty, so that
// callers can run without AI extraction.
func New(ctx context.Context, apiKey string, modelName string) (*Extractor, error) {
	if apiKey == "" {
		return nil, nil
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &Extractor{client: client, model: model}, nil
}

func (e *Extractor) Close() {
	if e == nil || e.client == nil {
		return
	}
	if err := e.client.Close(); err != nil {
		log.Warnf("failed to close Gemini client: %v", err)
	}
}

// ExtractFields returns the fields found by the model. Unknown keys and
// blank values are dropped.
func (e *Extractor) ExtractFields(ctx context.Context, text string, documentType string) (map[string]string, error) {
	if e == nil || e.model == nil {
		return map[string]string{}, nil
	}
	if strings.TrimSpace(text) == "" {
		return map[string]string{}, nil
	}

	resp, err := e.model.GenerateContent(ctx, genai.Text(buildPrompt(text, documentType)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			raw.WriteString(string(t))
		}
	}
	log.Debugf("model response: %s", raw.String())
	return ParseResponse(raw.String())
}

func buildPrompt(text string, documentType string) string {
	if len(text) > maxPromptChars {
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return fmt.Sprintf("Document type: %q\n\nDocument text:\n%s", documentType, text)
}

// ParseResponse decodes the JSON object returned by the model. Markdown code
// fences are tolerated and numeric values are converted to strings.
func ParseResponse(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var decoded map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	known := make(map[string]bool, len(models.FieldNames))
	for _, f := range models.FieldNames {
		known[f] = true
	}

	fields := map[string]string{}
	for k, v := range decoded {
		if !known[k] || v == nil {
			continue
		}
		var s string
		switch value := v.(type) {
		case string:
			s = value
		case float64:
			s = fmt.Sprintf("%.2f", value)
			if k == models.FieldHSCode {
				s = fmt.Sprintf("%.0f", value)
			}
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			fields[k] = s
		}
	}
	return fields, nil
}
