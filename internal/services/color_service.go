// internal/services/color_service.go
package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// DefaultScale groups colors registered without a scale.
const DefaultScale = "Outros"

type ColorService struct {
	db *gorm.DB
}

type CreateColorRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	HexCode  string `json:"hex_code" validate:"hexcolor_opt"`
	Category string `json:"category" validate:"max=50"`
	Scale    string `json:"scale" validate:"max=50"`
}

type UpdateColorRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	HexCode  *string `json:"hex_code,omitempty" validate:"omitempty,hexcolor_opt"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
	Scale    *string `json:"scale,omitempty" validate:"omitempty,max=50"`
}

type ColorGroup struct {
	Scale  string         `json:"scale"`
	Colors []models.Color `json:"colors"`
}

// ColorOption is the public projection of a color.
type ColorOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewColorService(db *gorm.DB) *ColorService {
	return &ColorService{db: db}
}

func (s *ColorService) ListColors(search string) ([]models.Color, error) {
	query := s.db.Order("scale, name")
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(scale) LIKE ?", pattern, pattern)
	}

	var colors []models.Color
	if err := query.Find(&colors).Error; err != nil {
		return nil, dependencyError("list colors", err)
	}
	return colors, nil
}

// GroupedByScale returns colors per scale, scales sorted by name with the
// default group last.
func (s *ColorService) GroupedByScale(search string) ([]ColorGroup, error) {
	colors, err := s.ListColors(search)
	if err != nil {
		return nil, err
	}
	return groupColors(colors), nil
}

func groupColors(colors []models.Color) []ColorGroup {
	index := make(map[string]int)
	var groups []ColorGroup
	for _, c := range colors {
		scale := strings.TrimSpace(c.Scale)
		if scale == "" {
			scale = DefaultScale
		}
		i, ok := index[scale]
		if !ok {
			i = len(groups)
			index[scale] = i
			groups = append(groups, ColorGroup{Scale: scale})
		}
		groups[i].Colors = append(groups[i].Colors, c)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Scale == DefaultScale {
			return false
		}
		if groups[b].Scale == DefaultScale {
			return true
		}
		return groups[a].Scale < groups[b].Scale
	})
	for _, g := range groups {
		sort.SliceStable(g.Colors, func(a, b int) bool { return g.Colors[a].Name < g.Colors[b].Name })
	}
	if groups == nil {
		groups = []ColorGroup{}
	}
	return groups
}

func (s *ColorService) GetColor(id uuid.UUID) (*models.Color, error) {
	var color models.Color
	if err := s.db.First(&color, "id = ?", id).Error; err != nil {
		return nil, lookupError("color", "load color", err)
	}
	return &color, nil
}

func (s *ColorService) CreateColor(req *CreateColorRequest) (*models.Color, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	name := utils.NormalizeName(req.Name)
	if name == "" {
		return nil, newValidationError("name", "name is required")
	}

	var count int64
	if err := s.db.Model(&models.Color{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, dependencyError("check color", err)
	}
	if count > 0 {
		return nil, &ConflictError{Key: "color.exists", Message: "color " + name + " already exists"}
	}

	color := &models.Color{
		Name:     name,
		HexCode:  strings.ToUpper(req.HexCode),
		Category: strings.TrimSpace(req.Category),
		Scale:    strings.TrimSpace(req.Scale),
	}
	if err := s.db.Create(color).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "color.exists", Message: "color " + name + " already exists"}
		}
		return nil, dependencyError("create color", err)
	}
	return color, nil
}

func (s *ColorService) UpdateColor(id uuid.UUID, req *UpdateColorRequest) (*models.Color, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	color, err := s.GetColor(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = utils.NormalizeName(*req.Name)
	}
	if req.HexCode != nil {
		updates["hex_code"] = strings.ToUpper(*req.HexCode)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Scale != nil {
		updates["scale"] = strings.TrimSpace(*req.Scale)
	}
	if len(updates) == 0 {
		return color, nil
	}

	if err := s.db.Model(color).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "color.exists", Message: "color already exists"}
		}
		return nil, dependencyError("update color", err)
	}
	return s.GetColor(id)
}

// FindOrCreateByName returns the color with the normalized name, creating it
// when missing. created reports whether a row was inserted.
func (s *ColorService) FindOrCreateByName(tx *gorm.DB, name string) (color *models.Color, created bool, err error) {
	name = utils.NormalizeName(name)
	if name == "" {
		return nil, false, newValidationError("name", "color name is empty")
	}

	var existing models.Color
	res := tx.Where("name = ?", name).Limit(1).Find(&existing)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &existing, false, nil
	}

	color = &models.Color{Name: name}
	if err := tx.Create(color).Error; err != nil {
		return nil, false, err
	}
	return color, true, nil
}

// ProductGroupColors returns the colors with a dyeing cost for any product
// sharing the group of productID. Unknown products and products without a
// group yield an empty list.
func (s *ColorService) ProductGroupColors(productID uuid.UUID) ([]ColorOption, error) {
	var product models.Product
	res := s.db.Select("id", "group_id").Where("id = ?", productID).Limit(1).Find(&product)
	if res.Error != nil {
		return nil, dependencyError("load product group", res.Error)
	}
	if res.RowsAffected == 0 || product.GroupID == nil {
		return []ColorOption{}, nil
	}

	groupProducts := s.db.Model(&models.Product{}).Select("id").Where("group_id = ?", *product.GroupID)
	colorIDs := s.db.Model(&models.DyeingCost{}).Select("color_id").Where("product_id IN (?)", groupProducts)

	var colors []models.Color
	if err := s.db.Where("id IN (?)", colorIDs).Order("name").Find(&colors).Error; err != nil {
		return nil, dependencyError("load group colors", err)
	}

	out := make([]ColorOption, 0, len(colors))
	for _, c := range colors {
		out = append(out, ColorOption{ID: c.ID, Name: c.Name})
	}
	return out, nil
}
