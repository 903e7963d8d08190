package models

import (
	"path"
	"strings"
	"time"
)

// Known keys of ExtractedDocument.Fields.
const (
	FieldInvoiceNumber      = "invoice_number"
	FieldTrackingNumber     = "tracking_number"
	FieldWeight             = "weight"
	FieldTotalValue         = "total_value"
	FieldHSCode             = "hs_code"
	FieldOriginCountry      = "origin_country"
	FieldDestinationCountry = "destination_country"
)

var FieldNames = []string{
	FieldInvoiceNumber,
	FieldTrackingNumber,
	FieldWeight,
	FieldTotalValue,
	FieldHSCode,
	FieldOriginCountry,
	FieldDestinationCountry,
}

type SourceType string

const (
	SourcePDF     SourceType = "pdf"
	SourceCSV     SourceType = "csv"
	SourceText    SourceType = "text"
	SourceJSON    SourceType = "json"
	SourceImage   SourceType = "image"
	SourceUnknown SourceType = "unknown"
)

// SourceTypeOf maps a file name to the extraction strategy for its content.
func SourceTypeOf(fileName string) SourceType {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".pdf":
		return SourcePDF
	case ".csv":
		return SourceCSV
	case ".txt":
		return SourceText
	case ".json":
		return SourceJSON
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return SourceImage
	}
	return SourceUnknown
}

// DocumentRecord is a document uploaded for a shipment, as persisted.
type DocumentRecord struct {
	ID           string    `json:"id" db:"id"`
	ShipmentID   string    `json:"shipmentId" db:"shipment_id"`
	DocumentType string    `json:"documentType" db:"document_type"`
	FileName     string    `json:"fileName" db:"file_name"`
	StorageKey   string    `json:"storageKey" db:"storage_key"`
	UploadedAt   time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// ExtractedDocument is the result of extracting one DocumentRecord. It only
// lives for the duration of a validation run.
type ExtractedDocument struct {
	DocumentID   string            `json:"documentId"`
	ShipmentID   string            `json:"shipmentId"`
	DocumentType string            `json:"documentType"`
	FileName     string            `json:"fileName"`
	Text         string            `json:"text,omitempty"`
	ExtractedAt  time.Time         `json:"extractedAt"`
	SourceType   SourceType        `json:"sourceType"`
	Fields       map[string]string `json:"fields"`
	Dates        []time.Time       `json:"dates,omitempty"`
}

// DocumentValidation is what a validation run writes back onto a document record.
type DocumentValidation struct {
	ValidationStatus string  `db:"validation_status"`
	Confidence       float64 `db:"confidence"`
	Notes            string  `db:"validation_notes"`
}
