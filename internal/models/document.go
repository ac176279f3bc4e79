// internal/models/document.go
package models

import (
	"github.com/google/uuid"
)

type DocumentKind string

const (
	DocumentKindQuote   DocumentKind = "quote"
	DocumentKindOrder   DocumentKind = "order"
	DocumentKindCatalog DocumentKind = "catalog"
)

// Document records a generated PDF archived in storage.
type Document struct {
	BaseModel
	QuoteID     *uuid.UUID   `json:"quote_id" gorm:"type:uuid;index"`
	OrderNumber int64        `json:"order_number" gorm:"index"`
	Kind        DocumentKind `json:"kind" gorm:"type:varchar(10);not null"`
	Filename    string       `json:"filename" gorm:"size:255;not null"`
	StorageKey  string       `json:"storage_key" gorm:"size:500;not null"`
	ContentType string       `json:"content_type" gorm:"size:100"`
	Size        int64        `json:"size"`
	CreatedBy   uuid.UUID    `json:"created_by" gorm:"type:uuid;not null"`
	URL         string       `json:"url" gorm:"-"`
}
