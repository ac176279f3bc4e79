// internal/services/product_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// compositionTolerance absorbs float noise when checking that proportions
// add up to at most one.
const compositionTolerance = 1e-9

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Code             string     `json:"code" validate:"required,max=50"`
	Name             string     `json:"name" validate:"required,max=255"`
	Composition      string     `json:"composition"`
	WeightGSM        float64    `json:"weight_gsm" validate:"gte=0"`
	WidthCM          float64    `json:"width_cm" validate:"gte=0"`
	YieldMKg         float64    `json:"yield_m_kg" validate:"gte=0"`
	EfficiencyFactor float64    `json:"efficiency_factor" validate:"efficiency"`
	WeavingCost      float64    `json:"weaving_cost" validate:"gte=0"`
	IsActive         *bool      `json:"is_active,omitempty"`
	GroupID          *uuid.UUID `json:"group_id,omitempty"`
	Images           []string   `json:"images,omitempty" validate:"omitempty,dive,url"`
}

type UpdateProductRequest struct {
	Code             *string    `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Name             *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Composition      *string    `json:"composition,omitempty"`
	WeightGSM        *float64   `json:"weight_gsm,omitempty" validate:"omitempty,gte=0"`
	WidthCM          *float64   `json:"width_cm,omitempty" validate:"omitempty,gte=0"`
	YieldMKg         *float64   `json:"yield_m_kg,omitempty" validate:"omitempty,gte=0"`
	EfficiencyFactor *float64   `json:"efficiency_factor,omitempty" validate:"omitempty,efficiency"`
	WeavingCost      *float64   `json:"weaving_cost,omitempty" validate:"omitempty,gte=0"`
	IsActive         *bool      `json:"is_active,omitempty"`
	GroupID          *uuid.UUID `json:"group_id,omitempty"`
	ClearGroup       bool       `json:"clear_group,omitempty"`
	Images           []string   `json:"images,omitempty" validate:"omitempty,dive,url"`
}

type CompositionItem struct {
	YarnTypeID uuid.UUID `json:"yarn_type_id" validate:"required"`
	Proportion float64   `json:"proportion" validate:"proportion"`
}

type SetCompositionRequest struct {
	Yarns []CompositionItem `json:"yarns" validate:"required,min=1,dive"`
}

type CompositionResult struct {
	Yarns    []models.ProductYarnComposition `json:"yarns"`
	Total    float64                         `json:"total"`
	Warnings []string                        `json:"warnings,omitempty"`
}

type ProductListParams struct {
	utils.PaginationParams
	Active *bool
}

// PublicProduct is the catalog view of a product, without cost fields.
type PublicProduct struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Composition string     `json:"composition"`
	WeightGSM   float64    `json:"weight_gsm"`
	WidthCM     float64    `json:"width_cm"`
	YieldMKg    float64    `json:"yield_m_kg"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	Images      []string   `json:"images"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		Composition:      req.Composition,
		WeightGSM:        req.WeightGSM,
		WidthCM:          req.WidthCM,
		YieldMKg:         req.YieldMKg,
		EfficiencyFactor: req.EfficiencyFactor,
		WeavingCost:      req.WeavingCost,
		IsActive:         req.IsActive == nil || *req.IsActive,
		GroupID:          req.GroupID,
		Images:           models.StringArray(req.Images),
	}

	if err := s.db.Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "product.code_exists", Message: "product code already exists"}
		}
		return nil, dependencyError("create product", err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Yarns").Preload("Yarns.YarnType").First(&product, "id = ?", id).Error; err != nil {
		return nil, lookupError("product", "load product", err)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	// Prepare updates
	updates := make(map[string]interface{})
	if req.Code != nil {
		updates["code"] = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Composition != nil {
		updates["composition"] = *req.Composition
	}
	if req.WeightGSM != nil {
		updates["weight_gsm"] = *req.WeightGSM
	}
	if req.WidthCM != nil {
		updates["width_cm"] = *req.WidthCM
	}
	if req.YieldMKg != nil {
		updates["yield_m_kg"] = *req.YieldMKg
	}
	if req.EfficiencyFactor != nil {
		updates["efficiency_factor"] = *req.EfficiencyFactor
	}
	if req.WeavingCost != nil {
		updates["weaving_cost"] = *req.WeavingCost
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.GroupID != nil {
		updates["group_id"] = *req.GroupID
	} else if req.ClearGroup {
		updates["group_id"] = nil
	}
	if req.Images != nil {
		updates["images"] = models.StringArray(req.Images)
	}

	if len(updates) == 0 {
		return product, nil
	}

	// Apply updates
	if err := s.db.Model(product).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Key: "product.code_exists", Message: "product code already exists"}
		}
		return nil, dependencyError("update product", err)
	}

	return s.GetProduct(id)
}

// DeleteProduct refuses while dyeing costs or composition rows still point
// at the product; nothing is cascaded.
func (s *ProductService) DeleteProduct(id uuid.UUID) error {
	if _, err := s.GetProduct(id); err != nil {
		return err
	}

	var dyeing, yarns int64
	if err := s.db.Model(&models.DyeingCost{}).Where("product_id = ?", id).Count(&dyeing).Error; err != nil {
		return dependencyError("count dyeing costs", err)
	}
	if err := s.db.Model(&models.ProductYarnComposition{}).Where("product_id = ?", id).Count(&yarns).Error; err != nil {
		return dependencyError("count product yarns", err)
	}
	if dyeing > 0 || yarns > 0 {
		return &ConflictError{
			Key:     "product.in_use",
			Message: fmt.Sprintf("product still has %d dyeing costs and %d composition rows", dyeing, yarns),
		}
	}

	if err := s.db.Unscoped().Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return dependencyError("delete product", err)
	}
	return nil
}

func (s *ProductService) ListProducts(params ProductListParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}
	if pattern := utils.SearchPattern(params.PaginationParams); pattern != "" {
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dependencyError("count products", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "code", "name", "weaving_cost"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, dependencyError("list products", err)
	}

	return products, total, nil
}

// AddImage appends a catalog image URL to the product gallery.
func (s *ProductService) AddImage(id uuid.UUID, url string) (*models.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	images := append(models.StringArray{}, product.Images...)
	images = append(images, url)
	if err := s.db.Model(product).Update("images", images).Error; err != nil {
		return nil, dependencyError("update product images", err)
	}
	return s.GetProduct(id)
}

// ProductsByIDs loads products for the catalog, all active ones when ids is
// empty. Order is by code.
func (s *ProductService) ProductsByIDs(ids []uuid.UUID) ([]models.Product, error) {
	query := s.db.Order("code")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Where("is_active = ?", true)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, dependencyError("load catalog products", err)
	}
	return products, nil
}

func (s *ProductService) ListPublic() ([]PublicProduct, error) {
	var products []models.Product
	if err := s.db.Where("is_active = ?", true).Order("code").Find(&products).Error; err != nil {
		return nil, dependencyError("list public products", err)
	}

	out := make([]PublicProduct, 0, len(products))
	for _, p := range products {
		images := []string(p.Images)
		if images == nil {
			images = []string{}
		}
		out = append(out, PublicProduct{
			ID:          p.ID,
			Code:        p.Code,
			Name:        p.Name,
			Composition: p.Composition,
			WeightGSM:   p.WeightGSM,
			WidthCM:     p.WidthCM,
			YieldMKg:    p.YieldMKg,
			GroupID:     p.GroupID,
			Images:      images,
		})
	}
	return out, nil
}

func (s *ProductService) GetComposition(productID uuid.UUID) (*CompositionResult, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}

	var rows []models.ProductYarnComposition
	if err := s.db.Preload("YarnType").Where("product_id = ?", productID).
		Order("proportion DESC").Find(&rows).Error; err != nil {
		return nil, dependencyError("load composition", err)
	}
	return summarizeComposition(rows), nil
}

// SetComposition replaces every yarn row of the product.
func (s *ProductService) SetComposition(productID uuid.UUID, req *SetCompositionRequest) (*CompositionResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(req.Yarns))
	ids := make([]uuid.UUID, 0, len(req.Yarns))
	for _, item := range req.Yarns {
		if seen[item.YarnTypeID] {
			return nil, newValidationError("yarns", "yarn type repeated in composition: "+item.YarnTypeID.String())
		}
		seen[item.YarnTypeID] = true
		ids = append(ids, item.YarnTypeID)
	}

	var yarnTypes []models.YarnType
	if err := s.db.Where("id IN ?", ids).Find(&yarnTypes).Error; err != nil {
		return nil, dependencyError("load yarn types", err)
	}
	if len(yarnTypes) != len(ids) {
		return nil, &NotFoundError{Resource: "yarn_type"}
	}
	for _, y := range yarnTypes {
		if y.Class() == costing.YarnClassFreight {
			return nil, newValidationError("yarns", y.Name+" is not a yarn")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("product_id = ?", productID).Delete(&models.ProductYarnComposition{}).Error; err != nil {
			return err
		}
		rows := make([]models.ProductYarnComposition, 0, len(req.Yarns))
		for _, item := range req.Yarns {
			rows = append(rows, models.ProductYarnComposition{
				ProductID:  productID,
				YarnTypeID: item.YarnTypeID,
				Proportion: item.Proportion,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, dependencyError("save composition", err)
	}

	return s.GetComposition(productID)
}

func summarizeComposition(rows []models.ProductYarnComposition) *CompositionResult {
	result := &CompositionResult{Yarns: rows}
	for _, r := range rows {
		result.Total += r.Proportion
	}
	if result.Total > 1+compositionTolerance {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("proportions add up to %s%%", utils.FormatDecimalBR(result.Total*100, 2)))
	}
	if result.Yarns == nil {
		result.Yarns = []models.ProductYarnComposition{}
	}
	return result
}
