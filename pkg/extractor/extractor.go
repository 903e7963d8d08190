package extractor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/denysvitali/go-datesfinder"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/storage/model"
)

var log = logrus.StandardLogger().WithField("package", "extractor")

// FieldExtractor is an optional AI-backed extractor returning the same
// field names as ParseFields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string, documentType string) (map[string]string, error)
}

type Extractor struct {
	storage model.Retriever
	ocr     TextRecognizer
	ai      FieldExtractor
	now     func() time.Time
}

type Option func(*Extractor)

func WithTextRecognizer(ocr TextRecognizer) Option {
	return func(e *Extractor) {
		e.ocr = ocr
	}
}

func WithFieldExtractor(ai FieldExtractor) Option {
	return func(e *Extractor) {
		e.ai = ai
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

func New(storage model.Retriever, opts ...Option) *Extractor {
	e := &Extractor{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the stored document, converts it to text and parses its fields.
func (e *Extractor) Extract(ctx context.Context, doc models.DocumentRecord) (*models.ExtractedDocument, error) {
	file, err := e.storage.Retrieve(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", doc.StorageKey, err)
	}
	content, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.StorageKey, err)
	}

	source := models.SourceTypeOf(doc.FileName)
	log.Debugf("extracting %s (%s, %d bytes)", doc.ID, source, len(content))
	text, err := ExtractContent(ctx, source, content, e.ocr)
	if err != nil {
		return nil, fmt.Errorf("extract content of %s: %w", doc.FileName, err)
	}

	return &models.ExtractedDocument{
		DocumentID:   doc.ID,
		ShipmentID:   doc.ShipmentID,
		DocumentType: doc.DocumentType,
		FileName:     doc.FileName,
		Text:         text,
		ExtractedAt:  e.now(),
		SourceType:   source,
		Fields:       e.Fields(ctx, text, doc.DocumentType),
		Dates:        findDates(text),
	}, nil
}

// Fields runs the heuristic parser and completes it with the AI extractor, if any.
func (e *Extractor) Fields(ctx context.Context, text string, documentType string) map[string]string {
	fields := ParseFields(text, documentType)
	if e.ai == nil {
		return fields
	}
	aiFields, err := e.ai.ExtractFields(ctx, text, documentType)
	if err != nil {
		log.Warnf("AI field extraction failed for %q document: %v", documentType, err)
		return fields
	}
	return MergeFields(fields, aiFields)
}

func findDates(text string) []time.Time {
	dates, errs := datesfinder.FindDates(text)
	for _, err := range errs {
		log.Debugf("date parsing: %v", err)
	}
	if len(dates) == 0 {
		return nil
	}
	return dates
}
