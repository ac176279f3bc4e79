// internal/services/tinturaria_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type TinturariaService struct {
	db *gorm.DB
}

type CreateTinturariaRequest struct {
	Name             string   `json:"name" validate:"required,max=100"`
	ConversionFactor *float64 `json:"conversion_factor,omitempty"`
}

type UpdateTinturariaRequest struct {
	Name             *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	ConversionFactor *float64 `json:"conversion_factor,omitempty"`
	// ClearConversionFactor falls back to the global default.
	ClearConversionFactor bool `json:"clear_conversion_factor,omitempty"`
}

func NewTinturariaService(db *gorm.DB) *TinturariaService {
	return &TinturariaService{db: db}
}

func (s *TinturariaService) List() ([]models.Tinturaria, error) {
	var items []models.Tinturaria
	if err := s.db.Order("name").Find(&items).Error; err != nil {
		return nil, dependencyError("list tinturarias", err)
	}
	return items, nil
}

func (s *TinturariaService) Get(id uuid.UUID) (*models.Tinturaria, error) {
	var t models.Tinturaria
	if err := s.db.First(&t, "id = ?", id).Error; err != nil {
		return nil, lookupError("tinturaria", "load tinturaria", err)
	}
	return &t, nil
}

func (s *TinturariaService) Create(req *CreateTinturariaRequest) (*models.Tinturaria, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	t := &models.Tinturaria{
		Name:             strings.TrimSpace(req.Name),
		ConversionFactor: req.ConversionFactor,
	}
	if err := s.db.Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "tinturaria.exists", Message: "tinturaria already exists"}
		}
		return nil, dependencyError("create tinturaria", err)
	}
	return t, nil
}

func (s *TinturariaService) Update(id uuid.UUID, req *UpdateTinturariaRequest) (*models.Tinturaria, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.ConversionFactor != nil {
		updates["conversion_factor"] = *req.ConversionFactor
	} else if req.ClearConversionFactor {
		updates["conversion_factor"] = nil
	}
	if len(updates) == 0 {
		return t, nil
	}

	if err := s.db.Model(t).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "tinturaria.exists", Message: "tinturaria already exists"}
		}
		return nil, dependencyError("update tinturaria", err)
	}
	return s.Get(id)
}

// Delete refuses while dyeing costs reference the tinturaria.
func (s *TinturariaService) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.DyeingCost{}).Where("tinturaria_id = ?", id).Count(&count).Error; err != nil {
		return dependencyError("count dyeing costs", err)
	}
	if count > 0 {
		return &ConflictError{Key: "tinturaria.in_use", Message: fmt.Sprintf("tinturaria still has %d dyeing costs", count)}
	}

	if err := s.db.Unscoped().Delete(&models.Tinturaria{}, "id = ?", id).Error; err != nil {
		return dependencyError("delete tinturaria", err)
	}
	return nil
}
