package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/orchestrator"
	"github.com/denysvitali/preclear/pkg/rules"
	"github.com/denysvitali/preclear/pkg/validator"
)

type docUpdate struct {
	ids []string
	v   models.DocumentValidation
}

type complianceUpdate struct {
	approved bool
	score    int
}

type fakeRepository struct {
	mu          sync.Mutex
	details     map[string]*models.ShipmentDetail
	documents   map[string][]models.DocumentRecord
	docUpdates  []docUpdate
	compliance  map[string]complianceUpdate
	updateError error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		details:    map[string]*models.ShipmentDetail{},
		documents:  map[string][]models.DocumentRecord{},
		compliance: map[string]complianceUpdate{},
	}
}

func (r *fakeRepository) GetShipmentDetail(_ context.Context, id string) (*models.ShipmentDetail, error) {
	d, ok := r.details[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", orchestrator.ErrShipmentNotFound, id)
	}
	return d, nil
}

func (r *fakeRepository) ListDocuments(_ context.Context, id string) ([]models.DocumentRecord, error) {
	return r.documents[id], nil
}

func (r *fakeRepository) UpdateDocumentValidation(_ context.Context, ids []string, v models.DocumentValidation) error {
	if r.updateError != nil {
		return r.updateError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docUpdates = append(r.docUpdates, docUpdate{ids: ids, v: v})
	return nil
}

func (r *fakeRepository) UpdateShipmentCompliance(_ context.Context, id string, approved bool, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compliance[id] = complianceUpdate{approved: approved, score: score}
	return nil
}

// fakeExtractor returns the documents keyed by storage key.
type fakeExtractor struct {
	docs map[string]models.ExtractedDocument
}

func (e *fakeExtractor) Extract(_ context.Context, rec models.DocumentRecord) (*models.ExtractedDocument, error) {
	doc, ok := e.docs[rec.StorageKey]
	if !ok {
		return nil, errors.New("corrupted PDF")
	}
	doc.DocumentID = rec.ID
	doc.DocumentType = rec.DocumentType
	return &doc, nil
}

type recordingIndexer struct {
	results []models.ValidationResult
	docs    [][]models.ExtractedDocument
}

func (i *recordingIndexer) Index(_ context.Context, r models.ValidationResult, docs []models.ExtractedDocument) error {
	i.results = append(i.results, r)
	i.docs = append(i.docs, docs)
	return nil
}

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) PublishVerdict(context.Context, models.ValidationResult) error {
	p.calls++
	return errors.New("broker unreachable")
}

func weight(f float64) *float64 {
	return &f
}

func shipment(id string) *models.ShipmentDetail {
	return &models.ShipmentDetail{
		Shipment: models.Shipment{ID: id, Mode: "road"},
		Parties: []models.Party{
			{Role: models.PartyRoleShipper, Country: "DE"},
			{Role: models.PartyRoleConsignee, Country: "CH"},
		},
		Packages: []models.Package{{WeightKg: weight(100), Type: "pallet"}},
		Items:    []models.Item{{Name: "Office chairs", HSCode: "940130"}},
	}
}

func setup() (*fakeRepository, *fakeExtractor) {
	repo := newFakeRepository()
	repo.details["shp-1"] = shipment("shp-1")
	repo.documents["shp-1"] = []models.DocumentRecord{
		{ID: "shp-1-doc-1", ShipmentID: "shp-1", DocumentType: "Commercial Invoice", FileName: "invoice.pdf", StorageKey: "shp-1/invoice.pdf"},
		{ID: "shp-1-doc-2", ShipmentID: "shp-1", DocumentType: "Packing List", FileName: "packing.csv", StorageKey: "shp-1/packing.csv"},
		{ID: "shp-1-doc-3", ShipmentID: "shp-1", DocumentType: "Photo", FileName: "photo.jpg"},
		{ID: "shp-1-doc-4", ShipmentID: "shp-1", DocumentType: "Certificate", FileName: "broken.pdf", StorageKey: "shp-1/broken.pdf"},
	}
	ext := &fakeExtractor{docs: map[string]models.ExtractedDocument{
		"shp-1/invoice.pdf": {SourceType: models.SourcePDF, Text: "Invoice 1234567"},
		"shp-1/packing.csv": {SourceType: models.SourceCSV, Text: "weight,115.00", Fields: map[string]string{models.FieldWeight: "115.00"}},
	}}
	return repo, ext
}

func TestValidateShipmentDocuments(t *testing.T) {
	repo, ext := setup()
	idx := &recordingIndexer{}
	pub := &failingPublisher{}
	o := orchestrator.New(repo, ext, validator.New(rules.New()),
		orchestrator.WithIndexer(idx),
		orchestrator.WithPublisher(pub),
		orchestrator.WithDocumentTimeout(time.Second),
	)

	result, err := o.ValidateShipmentDocuments(context.Background(), "shp-1")
	require.NoError(t, err)

	assert.Equal(t, "shp-1", result.ShipmentID)
	assert.True(t, result.IsValid)
	assert.Equal(t, 95, result.Score)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Weight discrepancy", result.Issues[0].Message)

	// the verdict is written onto every document, including skipped ones
	require.Len(t, repo.docUpdates, 1)
	update := repo.docUpdates[0]
	assert.Equal(t, []string{"shp-1-doc-1", "shp-1-doc-2", "shp-1-doc-3", "shp-1-doc-4"}, update.ids)
	assert.Equal(t, orchestrator.DocumentStatusPass, update.v.ValidationStatus)
	assert.InDelta(t, 0.95, update.v.Confidence, 1e-9)

	var notes map[string]any
	require.NoError(t, json.Unmarshal([]byte(update.v.Notes), &notes))
	assert.Equal(t, models.StatusApproved, notes["status"])
	assert.EqualValues(t, 95, notes["score"])
	assert.Len(t, notes["issues"], 1)
	assert.Contains(t, notes, "completedAt")

	assert.Equal(t, complianceUpdate{approved: true, score: 95}, repo.compliance["shp-1"])

	require.Len(t, idx.results, 1)
	assert.Len(t, idx.docs[0], 2)
	assert.Equal(t, 1, pub.calls)
}

func TestValidateShipmentDocuments_NoDocuments(t *testing.T) {
	repo, ext := setup()
	repo.details["shp-2"] = shipment("shp-2")
	o := orchestrator.New(repo, ext, validator.New(rules.New()))

	result, err := o.ValidateShipmentDocuments(context.Background(), "shp-2")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, "No documents provided", result.Issues[0].Message)
	assert.Equal(t, complianceUpdate{approved: false, score: 0}, repo.compliance["shp-2"])
}

func TestValidateShipmentDocuments_AllExtractionsFail(t *testing.T) {
	repo, _ := setup()
	o := orchestrator.New(repo, &fakeExtractor{}, validator.New(rules.New()))

	result, err := o.ValidateShipmentDocuments(context.Background(), "shp-1")
	require.NoError(t, err)
	assert.Equal(t, "No documents provided", result.Issues[0].Message)
	require.Len(t, repo.docUpdates, 1)
	assert.Equal(t, orchestrator.DocumentStatusFail, repo.docUpdates[0].v.ValidationStatus)
	assert.Zero(t, repo.docUpdates[0].v.Confidence)
}

func TestValidateShipmentDocuments_NotFound(t *testing.T) {
	repo, ext := setup()
	o := orchestrator.New(repo, ext, validator.New(rules.New()))

	_, err := o.ValidateShipmentDocuments(context.Background(), "missing")
	assert.ErrorIs(t, err, orchestrator.ErrShipmentNotFound)
	assert.Empty(t, repo.compliance)
}

func TestValidateShipmentDocuments_PersistError(t *testing.T) {
	repo, ext := setup()
	repo.updateError = errors.New("deadlock detected")
	o := orchestrator.New(repo, ext, validator.New(rules.New()))

	result, err := o.ValidateShipmentDocuments(context.Background(), "shp-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Equal(t, models.StatusApproved, result.Status)
	// the shipment is still updated
	assert.Equal(t, complianceUpdate{approved: true, score: 95}, repo.compliance["shp-1"])
}

func TestValidateShipmentDocuments_Cancelled(t *testing.T) {
	repo, ext := setup()
	o := orchestrator.New(repo, ext, validator.New(rules.New()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.ValidateShipmentDocuments(ctx, "shp-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.compliance)
}

func TestRunPool(t *testing.T) {
	repo, ext := setup()
	for i := 2; i <= 6; i++ {
		id := fmt.Sprintf("shp-%d", i)
		repo.details[id] = shipment(id)
	}
	o := orchestrator.New(repo, ext, validator.New(rules.New()))

	ch := make(chan string)
	go func() {
		for i := 1; i <= 7; i++ {
			ch <- fmt.Sprintf("shp-%d", i)
		}
		close(ch)
	}()
	orchestrator.RunPool(context.Background(), o, 3, ch)

	// shp-7 does not exist
	assert.Len(t, repo.compliance, 6)
}
