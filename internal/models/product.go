// internal/models/product.go
package models

import (
	"github.com/google/uuid"

	"github.com/serramalhas/malhas-backend/internal/costing"
)

type Product struct {
	BaseModel
	Code             string      `json:"code" gorm:"uniqueIndex;size:50;not null"`
	Name             string      `json:"name" gorm:"size:255;not null"`
	Composition      string      `json:"composition" gorm:"type:text"`
	WeightGSM        float64     `json:"weight_gsm" gorm:"column:weight_gsm"`
	WidthCM          float64     `json:"width_cm" gorm:"column:width_cm"`
	YieldMKg         float64     `json:"yield_m_kg" gorm:"column:yield_m_kg"`
	EfficiencyFactor float64     `json:"efficiency_factor" gorm:"not null"`
	WeavingCost      float64     `json:"weaving_cost" gorm:"not null"`
	IsActive         bool        `json:"is_active" gorm:"index"`
	GroupID          *uuid.UUID  `json:"group_id" gorm:"type:uuid;index"`
	Images           StringArray `json:"images"`

	// Relationships
	Yarns []ProductYarnComposition `json:"yarns,omitempty" gorm:"foreignKey:ProductID"`
}

// Info is the technical snapshot fed to the cost engine.
func (p *Product) Info() costing.ProductInfo {
	return costing.ProductInfo{
		ID:               p.ID,
		Code:             p.Code,
		Name:             p.Name,
		Composition:      p.Composition,
		WeightGSM:        p.WeightGSM,
		WidthCM:          p.WidthCM,
		YieldMKg:         p.YieldMKg,
		EfficiencyFactor: p.EfficiencyFactor,
		WeavingCost:      p.WeavingCost,
		Active:           p.IsActive,
	}
}

// ProductYarnComposition is the share of one yarn type in a product.
type ProductYarnComposition struct {
	BaseModel
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_yarn"`
	YarnTypeID uuid.UUID `json:"yarn_type_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_yarn"`
	Proportion float64   `json:"proportion" gorm:"not null"`

	YarnType YarnType `json:"yarn_type,omitempty" gorm:"foreignKey:YarnTypeID"`
}

func (ProductYarnComposition) TableName() string {
	return "product_yarns"
}
