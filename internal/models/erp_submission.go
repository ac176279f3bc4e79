// internal/models/erp_submission.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ERPSubmission is one attempt to push an order to the ERP intake endpoint.
// Attempts sharing an IdempotencyKey are retries of the same logical send.
// (QuoteID, Attempt) is unique so two concurrent sends cannot both start.
type ERPSubmission struct {
	BaseModel
	QuoteID        uuid.UUID  `json:"quote_id" gorm:"type:uuid;not null;uniqueIndex:idx_erp_submissions_attempt"`
	OrderNumber    int64      `json:"order_number" gorm:"not null;index"`
	IdempotencyKey string     `json:"idempotency_key" gorm:"size:64;not null;index"`
	Attempt        int        `json:"attempt" gorm:"not null;uniqueIndex:idx_erp_submissions_attempt"`
	Status         ERPStatus  `json:"status" gorm:"type:varchar(20);not null;index"`
	ERPNumber      string     `json:"erp_number,omitempty" gorm:"size:100"`
	ErrorMessage   string     `json:"error_message,omitempty" gorm:"type:text"`
	Payload        JSONB      `json:"payload"`
	SubmittedBy    uuid.UUID  `json:"submitted_by" gorm:"type:uuid;not null"`
	CompletedAt    *time.Time `json:"completed_at"`
}
