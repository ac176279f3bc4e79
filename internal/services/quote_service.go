// internal/services/quote_service.go
package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/database"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type QuoteService struct {
	db         *gorm.DB
	calculator *CalculatorService
}

type SaveQuoteRequest struct {
	CalculationRequest
	Kind           models.QuoteKind `json:"kind"`
	CustomerName   string           `json:"customer_name" validate:"required,max=255"`
	PaymentMethod  string           `json:"payment_method" validate:"max=255"`
	AdmDescription string           `json:"adm_description" validate:"max=2000"`
}

type QuoteListParams struct {
	utils.PaginationParams
	ProductID *uuid.UUID
	Kind      models.QuoteKind
}

func NewQuoteService(db *gorm.DB, calculator *CalculatorService) *QuoteService {
	return &QuoteService{db: db, calculator: calculator}
}

// Save recomputes the breakdown and stores it with the next order number.
// Totals sent by the client are never used.
func (s *QuoteService) Save(req *SaveQuoteRequest, userID uuid.UUID, isAdmin bool) (*models.Quote, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.Kind == "" {
		req.Kind = models.QuoteKindQuote
	}
	if !req.Kind.Valid() {
		return nil, newValidationError("kind", "kind must be quote or order")
	}

	breakdown, err := s.calculator.Calculate(&req.CalculationRequest, isAdmin)
	if err != nil {
		return nil, err
	}

	quote := &models.Quote{
		Kind:             req.Kind,
		ProductID:        req.ProductID,
		TinturariaID:     req.TinturariaID,
		UserID:           userID,
		CustomerName:     strings.TrimSpace(req.CustomerName),
		PaymentMethod:    strings.TrimSpace(req.PaymentMethod),
		AdmDescription:   strings.TrimSpace(req.AdmDescription),
		TotalKg:          breakdown.Totals.TotalKg,
		AverageCostPerKg: breakdown.Totals.AverageCostPerKg,
		TotalValue:       breakdown.Totals.TotalValue,
		Warnings:         models.StringArray(breakdown.Warnings()),
	}
	quote.QuoteData = models.QuoteData{
		Breakdown:      *breakdown,
		CustomerName:   quote.CustomerName,
		PaymentMethod:  quote.PaymentMethod,
		AdmDescription: quote.AdmDescription,
	}
	if req.Kind == models.QuoteKindOrder {
		now := time.Now()
		quote.ConvertedAt = &now
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		next, err := nextOrderNumber(tx)
		if err != nil {
			return err
		}
		quote.OrderNumber = next
		return tx.Create(quote).Error
	})
	if err != nil {
		return nil, dependencyError("save quote", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_number": quote.OrderNumber,
		"kind":         quote.Kind,
		"user_id":      userID,
		"total_value":  quote.TotalValue,
	}).Info("quote saved")
	return quote, nil
}

// nextOrderNumber advances the counter row inside tx. Concurrent callers
// serialize on the row lock, so numbers are unique and increasing.
func nextOrderNumber(tx *gorm.DB) (int64, error) {
	var next int64
	res := tx.Raw("UPDATE order_counters SET value = value + 1 WHERE name = ? RETURNING value",
		models.QuoteOrderSequence).Scan(&next)
	if res.Error != nil {
		return 0, res.Error
	}
	if next == 0 {
		return 0, fmt.Errorf("order counter %q is missing", models.QuoteOrderSequence)
	}
	return next, nil
}

func (s *QuoteService) GetByID(id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.First(&quote, "id = ?", id).Error; err != nil {
		return nil, lookupError("quote", "load quote", err)
	}
	return &quote, nil
}

func (s *QuoteService) GetByOrderNumber(orderNumber int64) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.First(&quote, "order_number = ?", orderNumber).Error; err != nil {
		return nil, lookupError("quote", "load quote", err)
	}
	return &quote, nil
}

func (s *QuoteService) List(params QuoteListParams) ([]models.Quote, int64, error) {
	query := s.db.Model(&models.Quote{})

	if pattern := utils.SearchPattern(params.PaginationParams); pattern != "" {
		query = query.Where("LOWER(customer_name) LIKE ?", pattern)
	}
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dependencyError("count quotes", err)
	}

	allowedSortFields := []string{"created_at", "order_number", "customer_name", "total_value", "total_kg"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var quotes []models.Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, 0, dependencyError("list quotes", err)
	}
	return quotes, total, nil
}

// ConvertToOrder marks a quote as a confirmed order. The order number and
// the snapshot do not change.
func (s *QuoteService) ConvertToOrder(orderNumber int64) (*models.Quote, error) {
	quote, err := s.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if quote.Kind == models.QuoteKindOrder {
		return nil, &ConflictError{Key: "quote.already_order", Message: "quote is already an order"}
	}

	now := time.Now()
	res := s.db.Model(&models.Quote{}).
		Where("id = ? AND kind = ?", quote.ID, models.QuoteKindQuote).
		Updates(map[string]interface{}{"kind": models.QuoteKindOrder, "converted_at": now})
	if res.Error != nil {
		return nil, dependencyError("convert quote", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Key: "quote.already_order", Message: "quote is already an order"}
	}

	quote.Kind = models.QuoteKindOrder
	quote.ConvertedAt = &now
	return quote, nil
}

// SnapshotTotals re-totals a stored quote from its color lines only.
func SnapshotTotals(q *models.Quote) costing.Totals {
	return q.QuoteData.Breakdown.Recompute()
}

var quoteExportHeader = []interface{}{
	"Número", "Tipo", "Data", "Cliente", "Artigo", "Tinturaria", "Total (kg)", "Média R$/kg", "Total R$", "Pagamento",
}

// ExportXLSX writes the quotes matching params (all pages) to a workbook.
func (s *QuoteService) ExportXLSX(params QuoteListParams) ([]byte, error) {
	params.Page = 1
	params.Limit = 10000
	quotes, _, err := s.List(params)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orcamentos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &quoteExportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, q := range quotes {
		b := q.QuoteData.Breakdown
		row := []interface{}{
			q.OrderNumber,
			q.Kind.Label(),
			q.CreatedAt.Format("02/01/2006"),
			q.CustomerName,
			b.Product.Code + " - " + b.Product.Name,
			b.Tinturaria.Name,
			utils.Round2(q.TotalKg),
			utils.Round2(q.AverageCostPerKg),
			utils.Round2(q.TotalValue),
			q.PaymentMethod,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
