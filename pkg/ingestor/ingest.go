package ingestor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
	"github.com/denysvitali/preclear/pkg/storage/model"
)

var log = logrus.StandardLogger().WithField("package", "ingestor")

// DocumentRegistry persists the document records of a shipment.
type DocumentRegistry interface {
	InsertDocument(ctx context.Context, doc models.DocumentRecord) error
}

// Ingestor stores shipment documents and registers them so that a later
// validation run picks them up.
type Ingestor struct {
	storage  model.Storer
	registry DocumentRegistry
	now      func() time.Time
}

func New(storage model.Storer, registry DocumentRegistry) *Ingestor {
	return &Ingestor{storage: storage, registry: registry, now: time.Now}
}

type pending struct {
	record  models.DocumentRecord
	content []byte
}

// Ingest stores every document of src under the shipment and returns the
// records that were registered. Failed documents are logged and reported
// in the joined error.
func (i *Ingestor) Ingest(ctx context.Context, shipmentID string, src DocumentSource) ([]models.DocumentRecord, error) {
	if strings.TrimSpace(shipmentID) == "" {
		return nil, fmt.Errorf("shipment id cannot be empty")
	}

	ch := make(chan pending)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		records []models.DocumentRecord
		errs    []error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var inner sync.WaitGroup
		for p := range ch {
			inner.Add(1)
			go func(p pending) {
				defer inner.Done()
				err := i.store(ctx, p)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Errorf("unable to ingest %s: %v", p.record.FileName, err)
					errs = append(errs, err)
					return
				}
				records = append(records, p.record)
			}(p)
		}
		inner.Wait()
	}()

	var readErr error
	for src.Next() {
		f := src.Current()
		b, err := io.ReadAll(f.Reader)
		if err != nil {
			readErr = fmt.Errorf("unable to read %s: %w", f.Name, err)
			break
		}
		id := uuid.NewString()
		ch <- pending{
			record: models.DocumentRecord{
				ID:           id,
				ShipmentID:   shipmentID,
				DocumentType: f.DocumentType,
				FileName:     f.Name,
				StorageKey:   path.Join(shipmentID, id+strings.ToLower(path.Ext(f.Name))),
				UploadedAt:   i.now(),
			},
			content: b,
		}
	}
	close(ch)
	wg.Wait()

	if readErr == nil {
		readErr = src.Err()
	}
	return records, errors.Join(append(errs, readErr)...)
}

func (i *Ingestor) store(ctx context.Context, p pending) error {
	err := i.storage.Store(ctx, models.StoredFile{
		Reader:     bytes.NewReader(p.content),
		Key:        p.record.StorageKey,
		ModifiedAt: p.record.UploadedAt,
	})
	if err != nil {
		return fmt.Errorf("unable to store %s: %w", p.record.FileName, err)
	}
	if err := i.registry.InsertDocument(ctx, p.record); err != nil {
		return fmt.Errorf("unable to register %s: %w", p.record.FileName, err)
	}
	log.Debugf("ingested %q as %s", p.record.FileName, p.record.StorageKey)
	return nil
}
