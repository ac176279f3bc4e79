// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the id in Go so the same models work on sqlite and postgres.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB is a free-form JSON object column (jsonb on postgres, text elsewhere).
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
}

func (JSONB) GormDataType() string {
	return "json"
}

func (JSONB) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// StringArray stores a list of strings as a postgres text[] literal.
type StringArray pq.StringArray

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Enums
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

type QuoteKind string

const (
	QuoteKindQuote QuoteKind = "quote"
	QuoteKindOrder QuoteKind = "order"
)

// Label is the document title printed on the header band.
func (k QuoteKind) Label() string {
	if k == QuoteKindOrder {
		return "Pedido Fechado"
	}
	return "Orçamento"
}

func (k QuoteKind) Valid() bool {
	return k == QuoteKindQuote || k == QuoteKindOrder
}

type ERPStatus string

const (
	ERPStatusPending   ERPStatus = "pending"
	ERPStatusSuccess   ERPStatus = "success"
	ERPStatusFailed    ERPStatus = "failed"
	ERPStatusAmbiguous ERPStatus = "ambiguous"
)

type CustomerType string

const (
	CustomerTypeWholesaler CustomerType = "atacadista"
	CustomerTypeGarment    CustomerType = "confeccao"
)
