// internal/models/tinturaria.go
package models

import (
	"github.com/google/uuid"

	"github.com/serramalhas/malhas-backend/internal/costing"
)

// Tinturaria is a dye house. A nil conversion factor falls back to the
// pricing.default_conversion_factor setting.
type Tinturaria struct {
	BaseModel
	Name             string   `json:"name" gorm:"uniqueIndex;size:100;not null"`
	ConversionFactor *float64 `json:"conversion_factor"`
}

func (t *Tinturaria) Info(defaultFactor float64) costing.TinturariaInfo {
	factor := defaultFactor
	if t.ConversionFactor != nil {
		factor = *t.ConversionFactor
	}
	return costing.TinturariaInfo{ID: t.ID, Name: t.Name, ConversionFactor: factor}
}

// DyeingCost is the cost per kg of one color for a (tinturaria, product) pair.
// A color without a row is not orderable for that pair.
type DyeingCost struct {
	BaseModel
	TinturariaID uuid.UUID `json:"tinturaria_id" gorm:"type:uuid;not null;uniqueIndex:idx_dyeing_cost_key"`
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_dyeing_cost_key;index"`
	ColorID      uuid.UUID `json:"color_id" gorm:"type:uuid;not null;uniqueIndex:idx_dyeing_cost_key"`
	Cost         float64   `json:"cost" gorm:"not null"`

	Color Color `json:"color,omitempty" gorm:"foreignKey:ColorID"`
}
