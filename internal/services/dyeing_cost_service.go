// internal/services/dyeing_cost_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type DyeingCostService struct {
	db     *gorm.DB
	colors *ColorService
}

type AddDyeingCostRequest struct {
	TinturariaID uuid.UUID `json:"tinturaria_id" validate:"required"`
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	ColorID      uuid.UUID `json:"color_id" validate:"required"`
	Cost         float64   `json:"cost" validate:"gt=0"`
}

type UpdateDyeingCostRequest struct {
	Cost float64 `json:"cost" validate:"gt=0"`
}

func NewDyeingCostService(db *gorm.DB, colors *ColorService) *DyeingCostService {
	return &DyeingCostService{db: db, colors: colors}
}

// List returns the costs of a (tinturaria, product) pair, cheapest first.
func (s *DyeingCostService) List(tinturariaID, productID uuid.UUID, search string) ([]models.DyeingCost, error) {
	query := s.db.Model(&models.DyeingCost{}).Preload("Color").
		Where("dyeing_costs.tinturaria_id = ? AND dyeing_costs.product_id = ?", tinturariaID, productID)

	if search != "" {
		query = query.Joins("JOIN colors ON colors.id = dyeing_costs.color_id").
			Where("LOWER(colors.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var costs []models.DyeingCost
	if err := query.Order("dyeing_costs.cost ASC").Find(&costs).Error; err != nil {
		return nil, dependencyError("list dyeing costs", err)
	}
	return costs, nil
}

func (s *DyeingCostService) Get(id uuid.UUID) (*models.DyeingCost, error) {
	var cost models.DyeingCost
	if err := s.db.Preload("Color").First(&cost, "id = ?", id).Error; err != nil {
		return nil, lookupError("dyeing_cost", "load dyeing cost", err)
	}
	return &cost, nil
}

func (s *DyeingCostService) Add(req *AddDyeingCostRequest) (*models.DyeingCost, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := s.ensurePair(req.TinturariaID, req.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.colors.GetColor(req.ColorID); err != nil {
		return nil, err
	}

	cost := &models.DyeingCost{
		TinturariaID: req.TinturariaID,
		ProductID:    req.ProductID,
		ColorID:      req.ColorID,
		Cost:         req.Cost,
	}
	if err := s.db.Create(cost).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "dyeing_cost.exists", Message: "color already has a cost for this pair"}
		}
		return nil, dependencyError("create dyeing cost", err)
	}
	return s.Get(cost.ID)
}

func (s *DyeingCostService) UpdateCost(id uuid.UUID, req *UpdateDyeingCostRequest) (*models.DyeingCost, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	cost, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(cost).Update("cost", req.Cost).Error; err != nil {
		return nil, dependencyError("update dyeing cost", err)
	}
	return s.Get(id)
}

func (s *DyeingCostService) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.db.Unscoped().Delete(&models.DyeingCost{}, "id = ?", id).Error; err != nil {
		return dependencyError("delete dyeing cost", err)
	}
	return nil
}

// Rates returns the orderable colors of a pair keyed by color id.
func (s *DyeingCostService) Rates(tinturariaID, productID uuid.UUID) (map[uuid.UUID]costing.DyeingRate, error) {
	costs, err := s.List(tinturariaID, productID, "")
	if err != nil {
		return nil, err
	}

	rates := make(map[uuid.UUID]costing.DyeingRate, len(costs))
	for _, c := range costs {
		rates[c.ColorID] = costing.DyeingRate{ColorName: c.Color.Name, Cost: c.Cost}
	}
	return rates, nil
}

// AvailableColors lists the colors that can be ordered for a pair. A color
// without a dyeing cost row is never returned.
func (s *DyeingCostService) AvailableColors(tinturariaID, productID uuid.UUID) ([]ColorOption, error) {
	costs, err := s.List(tinturariaID, productID, "")
	if err != nil {
		return nil, err
	}

	out := make([]ColorOption, 0, len(costs))
	for _, c := range costs {
		out = append(out, ColorOption{ID: c.ColorID, Name: c.Color.Name})
	}
	return out, nil
}

func (s *DyeingCostService) ensurePair(tinturariaID, productID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.Tinturaria{}).Where("id = ?", tinturariaID).Count(&count).Error; err != nil {
		return dependencyError("check tinturaria", err)
	}
	if count == 0 {
		return &NotFoundError{Resource: "tinturaria"}
	}
	if err := s.db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return dependencyError("check product", err)
	}
	if count == 0 {
		return &NotFoundError{Resource: "product"}
	}
	return nil
}

// upsert writes the cost of one color for a pair, inserting or replacing.
func (s *DyeingCostService) upsert(tx *gorm.DB, tinturariaID, productID, colorID uuid.UUID, value float64) error {
	row := &models.DyeingCost{
		TinturariaID: tinturariaID,
		ProductID:    productID,
		ColorID:      colorID,
		Cost:         value,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tinturaria_id"}, {Name: "product_id"}, {Name: "color_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cost", "updated_at", "deleted_at"}),
	}).Create(row).Error
}
