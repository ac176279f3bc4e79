// internal/models/quote.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/serramalhas/malhas-backend/internal/costing"
)

// Quote is a saved calculation. QuoteData is the frozen snapshot; the
// total columns duplicate its totals for listing and reporting.
type Quote struct {
	BaseModel
	OrderNumber      int64       `json:"order_number" gorm:"uniqueIndex;not null"`
	Kind             QuoteKind   `json:"kind" gorm:"type:varchar(10);not null;index"`
	ProductID        uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	TinturariaID     uuid.UUID   `json:"tinturaria_id" gorm:"type:uuid;not null"`
	UserID           uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	CustomerName     string      `json:"customer_name" gorm:"size:255;index"`
	PaymentMethod    string      `json:"payment_method" gorm:"size:255"`
	AdmDescription   string      `json:"adm_description" gorm:"type:text"`
	TotalKg          float64     `json:"total_kg" gorm:"type:double precision;not null"`
	AverageCostPerKg float64     `json:"average_cost_per_kg" gorm:"type:double precision;not null"`
	TotalValue       float64     `json:"total_value" gorm:"type:double precision;not null"`
	QuoteData        QuoteData   `json:"quote_data" gorm:"not null"`
	Warnings         StringArray `json:"warnings"`
	ConvertedAt      *time.Time  `json:"converted_at"`
}

// QuoteData is the quote_data column: the breakdown plus the commercial
// fields typed in when it was saved.
type QuoteData struct {
	Breakdown      costing.Breakdown `json:"breakdown"`
	CustomerName   string            `json:"customer_name"`
	PaymentMethod  string            `json:"payment_method"`
	AdmDescription string            `json:"adm_description"`
}

func (q QuoteData) Value() (driver.Value, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (q *QuoteData) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return errors.New("quote_data is null")
	case []byte:
		return json.Unmarshal(v, q)
	case string:
		return json.Unmarshal([]byte(v), q)
	default:
		return fmt.Errorf("unsupported quote_data source %T", value)
	}
}

func (QuoteData) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// OrderCounter holds the last order number handed out for a sequence name.
// It is only ever advanced with a single UPDATE ... RETURNING.
type OrderCounter struct {
	Name  string `gorm:"primaryKey;size:50"`
	Value int64  `gorm:"not null"`
}

const QuoteOrderSequence = "quotes"
