package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/denysvitali/preclear/pkg/models"
)

var validate = validator.New()

// ValidationRequest asks for the documents of a shipment to be validated.
type ValidationRequest struct {
	ShipmentID  string    `json:"shipment_id" validate:"required,max=64,printascii"`
	RequestedBy string    `json:"requested_by,omitempty" validate:"omitempty,max=128"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

// DecodeRequest parses and validates a ValidationRequest message.
func DecodeRequest(data []byte) (ValidationRequest, error) {
	var req ValidationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("invalid validation request: %w", err)
	}
	return req, nil
}

// VerdictEvent announces the outcome of a validation run.
type VerdictEvent struct {
	ShipmentID   string    `json:"shipment_id"`
	RunID        string    `json:"run_id"`
	Status       string    `json:"status"`
	IsValid      bool      `json:"is_valid"`
	Score        int       `json:"score"`
	Message      string    `json:"message"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Infos        int       `json:"infos"`
	PackingNotes []string  `json:"packing_notes,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

func NewVerdictEvent(result models.ValidationResult) VerdictEvent {
	return VerdictEvent{
		ShipmentID:   result.ShipmentID,
		RunID:        result.RunID,
		Status:       result.Status,
		IsValid:      result.IsValid,
		Score:        result.Score,
		Message:      result.Message,
		Errors:       result.Count(models.SeverityError),
		Warnings:     result.Count(models.SeverityWarning),
		Infos:        result.Count(models.SeverityInfo),
		PackingNotes: result.PackingNotes,
		CompletedAt:  result.CompletedAt,
	}
}
