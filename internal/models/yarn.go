// internal/models/yarn.go
package models

import (
	"github.com/google/uuid"

	"github.com/serramalhas/malhas-backend/internal/costing"
)

type YarnType struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Unit string `json:"unit" gorm:"size:10;not null"`
}

func (y *YarnType) Class() costing.YarnClass {
	return costing.ClassifyYarn(y.Name)
}

func (y *YarnType) Ref() costing.YarnRef {
	return costing.YarnRef{ID: y.ID, Name: y.Name}
}

// YarnPrice is the price per kg of a yarn type on one date (YYYY-MM-DD).
type YarnPrice struct {
	BaseModel
	YarnTypeID    uuid.UUID `json:"yarn_type_id" gorm:"type:uuid;not null;uniqueIndex:idx_yarn_price_day"`
	EffectiveDate string    `json:"effective_date" gorm:"type:varchar(10);not null;uniqueIndex:idx_yarn_price_day"`
	Price         float64   `json:"price" gorm:"not null"`

	YarnType YarnType `json:"yarn_type,omitempty" gorm:"foreignKey:YarnTypeID"`
}

// FreightPrice is the freight cost per kg on one date.
type FreightPrice struct {
	BaseModel
	EffectiveDate string  `json:"effective_date" gorm:"type:varchar(10);not null;uniqueIndex"`
	Price         float64 `json:"price" gorm:"not null"`
}
