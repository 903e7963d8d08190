package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/extractor"
	"github.com/denysvitali/preclear/pkg/metrics"
	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/shipments"
	"github.com/denysvitali/preclear/pkg/validator"
)

var log = logrus.StandardLogger().WithField("package", "orchestrator")

// ErrShipmentNotFound is returned when the shipment to validate does not exist.
var ErrShipmentNotFound = shipments.ErrNotFound

const (
	DocumentStatusPass = "pass"
	DocumentStatusFail = "fail"
)

type ShipmentRepository interface {
	GetShipmentDetail(ctx context.Context, shipmentID string) (*models.ShipmentDetail, error)
	ListDocuments(ctx context.Context, shipmentID string) ([]models.DocumentRecord, error)
	UpdateDocumentValidation(ctx context.Context, documentIDs []string, v models.DocumentValidation) error
	UpdateShipmentCompliance(ctx context.Context, shipmentID string, approved bool, score int) error
}

type DocumentExtractor interface {
	Extract(ctx context.Context, doc models.DocumentRecord) (*models.ExtractedDocument, error)
}

type ShipmentValidator interface {
	ValidateShipment(declared *models.ShipmentDetail, docs []models.ExtractedDocument) models.ValidationResult
}

// VerdictIndexer makes verdicts searchable.
type VerdictIndexer interface {
	Index(ctx context.Context, result models.ValidationResult, docs []models.ExtractedDocument) error
}

// VerdictPublisher notifies other services of a verdict.
type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, result models.ValidationResult) error
}

var (
	_ ShipmentRepository = (*shipments.PostgresRepository)(nil)
	_ DocumentExtractor  = (*extractor.Extractor)(nil)
	_ ShipmentValidator  = (*validator.Validator)(nil)
)

type Orchestrator struct {
	repo      ShipmentRepository
	extractor DocumentExtractor
	validator ShipmentValidator

	indexer   VerdictIndexer
	publisher VerdictPublisher
	metrics   *metrics.Metrics

	documentTimeout time.Duration
}

type Option func(*Orchestrator)

func WithIndexer(idx VerdictIndexer) Option {
	return func(o *Orchestrator) {
		o.indexer = idx
	}
}

func WithPublisher(p VerdictPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithDocumentTimeout bounds the extraction of each document.
func WithDocumentTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.documentTimeout = d
	}
}

func New(repo ShipmentRepository, ext DocumentExtractor, v ShipmentValidator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:            repo,
		extractor:       ext,
		validator:       v,
		documentTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// notes is the blob stored on each document record.
type notes struct {
	Status      string                   `json:"status"`
	Message     string                   `json:"message"`
	Score       int                      `json:"score"`
	Issues      []models.ValidationIssue `json:"issues"`
	CompletedAt time.Time                `json:"completedAt"`
}

// ValidateShipmentDocuments extracts the documents of a shipment, validates
// them against the declared data and persists the verdict. Documents that
// cannot be extracted are skipped. Persistence errors are returned together
// with the verdict.
func (o *Orchestrator) ValidateShipmentDocuments(ctx context.Context, shipmentID string) (models.ValidationResult, error) {
	start := time.Now()
	l := log.WithField("shipment", shipmentID)

	declared, err := o.repo.GetShipmentDetail(ctx, shipmentID)
	if err != nil {
		return models.ValidationResult{}, fmt.Errorf("unable to get shipment %s: %w", shipmentID, err)
	}

	records, err := o.repo.ListDocuments(ctx, shipmentID)
	if err != nil {
		return models.ValidationResult{}, fmt.Errorf("unable to list documents of %s: %w", shipmentID, err)
	}

	docs := o.extractAll(ctx, l, records)
	if err := ctx.Err(); err != nil {
		return models.ValidationResult{}, fmt.Errorf("validation of %s interrupted: %w", shipmentID, err)
	}

	result := o.validator.ValidateShipment(declared, docs)
	l.Infof("validation finished: status=%s score=%d issues=%d documents=%d/%d",
		result.Status, result.Score, len(result.Issues), len(docs), len(records))

	persistErr := o.persist(ctx, result, records)
	o.metrics.ObserveValidation(start, result)

	if o.indexer != nil {
		if err := o.indexer.Index(ctx, result, docs); err != nil {
			l.Warnf("unable to index verdict: %v", err)
		}
	}
	if o.publisher != nil {
		if err := o.publisher.PublishVerdict(ctx, result); err != nil {
			l.Warnf("unable to publish verdict: %v", err)
		}
	}
	return result, persistErr
}

func (o *Orchestrator) extractAll(ctx context.Context, l *logrus.Entry, records []models.DocumentRecord) []models.ExtractedDocument {
	docs := make([]models.ExtractedDocument, 0, len(records))
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if rec.StorageKey == "" {
			l.Warnf("document %s has no storage key, skipping", rec.ID)
			continue
		}

		doc, err := o.extract(ctx, rec)
		if err != nil {
			l.Warnf("unable to extract document %s (%s): %v", rec.ID, rec.FileName, err)
			o.metrics.IncrementExtractionError()
			continue
		}
		o.metrics.IncrementDocumentExtracted(doc.SourceType)
		docs = append(docs, *doc)
	}
	return docs
}

func (o *Orchestrator) extract(ctx context.Context, rec models.DocumentRecord) (doc *models.ExtractedDocument, err error) {
	if o.documentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.documentTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return o.extractor.Extract(ctx, rec)
}

func (o *Orchestrator) persist(ctx context.Context, result models.ValidationResult, records []models.DocumentRecord) error {
	blob, err := json.Marshal(notes{
		Status:      result.Status,
		Message:     result.Message,
		Score:       result.Score,
		Issues:      result.Issues,
		CompletedAt: result.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("unable to encode validation notes: %w", err)
	}

	status := DocumentStatusFail
	if result.IsValid {
		status = DocumentStatusPass
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	var errs []error
	if err := o.repo.UpdateDocumentValidation(ctx, ids, models.DocumentValidation{
		ValidationStatus: status,
		Confidence:       float64(result.Score) / 100,
		Notes:            string(blob),
	}); err != nil {
		errs = append(errs, fmt.Errorf("unable to store document validation: %w", err))
	}
	if err := o.repo.UpdateShipmentCompliance(ctx, result.ShipmentID, result.IsValid, result.Score); err != nil {
		errs = append(errs, fmt.Errorf("unable to store shipment compliance: %w", err))
	}
	return errors.Join(errs...)
}
