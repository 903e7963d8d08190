package shipments

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/denysvitali/preclear/pkg/models"
)

var log = logrus.StandardLogger().WithField("package", "shipments")

// ErrNotFound is returned when a shipment does not exist.
var ErrNotFound = errors.New("shipment not found")

const (
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

//go:embed schema.sql
var schema string

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Connect opens and pings a PostgreSQL database.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Migrate creates the tables used by the repository if they are missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetShipmentDetail(ctx context.Context, shipmentID string) (*models.ShipmentDetail, error) {
	var detail models.ShipmentDetail

	err := r.db.GetContext(ctx, &detail.Shipment, `
		SELECT id, mode, customs_value, currency, created_at
		FROM shipments
		WHERE id = $1`, shipmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, shipmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	if err := r.db.SelectContext(ctx, &detail.Parties, `
		SELECT role, company, contact_name, address, city, country
		FROM shipment_parties
		WHERE shipment_id = $1`, shipmentID); err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}

	if err := r.db.SelectContext(ctx, &detail.Packages, `
		SELECT weight_kg, length_cm, width_cm, height_cm, package_type
		FROM shipment_packages
		WHERE shipment_id = $1
		ORDER BY position`, shipmentID); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	if err := r.db.SelectContext(ctx, &detail.Items, `
		SELECT name, description, category, hs_code, quantity, unit_price, total_value, origin_country
		FROM shipment_items
		WHERE shipment_id = $1
		ORDER BY position`, shipmentID); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &detail, nil
}

func (r *PostgresRepository) ListDocuments(ctx context.Context, shipmentID string) ([]models.DocumentRecord, error) {
	var docs []models.DocumentRecord
	if err := r.db.SelectContext(ctx, &docs, `
		SELECT id, shipment_id, document_type, file_name, storage_key, uploaded_at
		FROM shipment_documents
		WHERE shipment_id = $1
		ORDER BY uploaded_at, id`, shipmentID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// UpdateDocumentValidation writes the same validation outcome onto every
// given document.
func (r *PostgresRepository) UpdateDocumentValidation(ctx context.Context, documentIDs []string, v models.DocumentValidation) error {
	if len(documentIDs) == 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shipment_documents
		SET validation_status = $1, confidence = $2, validation_notes = $3
		WHERE id = ANY($4)`,
		v.ValidationStatus, v.Confidence, v.Notes, pq.Array(documentIDs))
	if err != nil {
		return fmt.Errorf("failed to update document validation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && int(n) != len(documentIDs) {
		log.Warnf("updated %d of %d documents", n, len(documentIDs))
	}
	return nil
}

// UpdateShipmentCompliance stores the automated approval and compliance
// score of a shipment.
func (r *PostgresRepository) UpdateShipmentCompliance(ctx context.Context, shipmentID string, approved bool, score int) error {
	approval := ApprovalRejected
	if approved {
		approval = ApprovalApproved
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET ai_approval = $1, compliance_score = $2, compliance_checked_at = now()
		WHERE id = $3`,
		approval, score, shipmentID)
	if err != nil {
		return fmt.Errorf("failed to update shipment compliance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, shipmentID)
	}
	return nil
}

// InsertDocument registers an uploaded document for a shipment.
func (r *PostgresRepository) InsertDocument(ctx context.Context, doc models.DocumentRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO shipment_documents (id, shipment_id, document_type, file_name, storage_key, uploaded_at)
		VALUES (:id, :shipment_id, :document_type, :file_name, :storage_key, :uploaded_at)`, doc)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: %s", ErrNotFound, doc.ShipmentID)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}
