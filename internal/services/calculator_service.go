// internal/services/calculator_service.go
package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/models"
)

// CalculatorService assembles the engine input from reference data and
// runs the cost formula. Nothing is persisted.
type CalculatorService struct {
	db          *gorm.DB
	cfg         config.PricingConfig
	calendar    *PricingCalendar
	products    *ProductService
	tinturarias *TinturariaService
	yarns       *YarnService
	freight     *FreightService
	dyeing      *DyeingCostService
	settings    *SettingsService
}

type CalculationEntry struct {
	ColorID  uuid.UUID `json:"color_id"`
	Quantity float64   `json:"quantity"`
}

type CalculationRequest struct {
	ProductID    uuid.UUID          `json:"product_id"`
	TinturariaID uuid.UUID          `json:"tinturaria_id"`
	Entries      []CalculationEntry `json:"entries"`
	// Substitutions maps an original yarn type id to its replacement.
	Substitutions   map[uuid.UUID]uuid.UUID `json:"substitutions,omitempty"`
	SpecialDiscount float64                 `json:"special_discount"`
	// ConversionFactor overrides the tinturaria factor. Honored for admins only.
	ConversionFactor *float64 `json:"conversion_factor,omitempty"`
}

func NewCalculatorService(
	db *gorm.DB,
	cfg config.PricingConfig,
	calendar *PricingCalendar,
	products *ProductService,
	tinturarias *TinturariaService,
	yarns *YarnService,
	freight *FreightService,
	dyeing *DyeingCostService,
	settings *SettingsService,
) *CalculatorService {
	return &CalculatorService{
		db:          db,
		cfg:         cfg,
		calendar:    calendar,
		products:    products,
		tinturarias: tinturarias,
		yarns:       yarns,
		freight:     freight,
		dyeing:      dyeing,
		settings:    settings,
	}
}

// Calculate prices req with today's yarn and freight prices. Calculation
// problems come back as *costing.ValidationError.
func (s *CalculatorService) Calculate(req *CalculationRequest, isAdmin bool) (*costing.Breakdown, error) {
	in, err := s.buildInput(req, isAdmin)
	if err != nil {
		return nil, err
	}

	breakdown, err := costing.Calculate(*in)
	if err != nil {
		return nil, err
	}

	if breakdown.MissingPrice != nil {
		logrus.WithFields(logrus.Fields{
			"product_id":   req.ProductID,
			"pricing_date": breakdown.PricingDate,
			"yarns":        breakdown.MissingPrice.Yarns,
		}).Warn("calculation used zero for unpriced yarns")
	}
	return breakdown, nil
}

func (s *CalculatorService) buildInput(req *CalculationRequest, isAdmin bool) (*costing.Input, error) {
	if req.ProductID == uuid.Nil || req.TinturariaID == uuid.Nil {
		return nil, &costing.ValidationError{
			Code:    costing.CodeSelectionRequired,
			Message: "product and tinturaria must be selected",
		}
	}

	product, err := s.products.GetProduct(req.ProductID)
	if err != nil {
		return nil, err
	}
	tinturaria, err := s.tinturarias.Get(req.TinturariaID)
	if err != nil {
		return nil, err
	}

	defaultFactor, err := s.settings.Float(SettingDefaultConversionFactor, s.cfg.DefaultConversionFactor)
	if err != nil {
		return nil, err
	}
	tInfo := tinturaria.Info(defaultFactor)
	if isAdmin && req.ConversionFactor != nil {
		tInfo.ConversionFactor = *req.ConversionFactor
	}

	composition := make([]costing.CompositionLine, 0, len(product.Yarns))
	for _, y := range product.Yarns {
		composition = append(composition, costing.CompositionLine{
			Yarn:       y.YarnType.Ref(),
			Proportion: y.Proportion,
		})
	}

	substitutions, err := s.loadSubstitutions(req.Substitutions)
	if err != nil {
		return nil, err
	}

	today := s.calendar.Today()
	prices, err := s.yarns.PricesOn(today)
	if err != nil {
		return nil, err
	}

	var freightCost float64
	freight, err := s.freight.Today()
	if err != nil {
		return nil, err
	}
	if freight != nil {
		freightCost = freight.Price
	}

	rates, err := s.dyeing.Rates(req.TinturariaID, req.ProductID)
	if err != nil {
		return nil, err
	}

	entries := make([]costing.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, costing.Entry{ColorID: e.ColorID, Quantity: e.Quantity})
	}

	return &costing.Input{
		Product:          product.Info(),
		Tinturaria:       tInfo,
		Composition:      composition,
		Substitutions:    substitutions,
		YarnPrices:       prices,
		FreightCost:      freightCost,
		DyeingCosts:      rates,
		Entries:          entries,
		ConversionFactor: tInfo.ConversionFactor,
		SpecialDiscount:  req.SpecialDiscount,
		PricingDate:      today,
	}, nil
}

// loadSubstitutions resolves replacement yarn ids to names. An unknown
// replacement is reported as an invalid substitution.
func (s *CalculatorService) loadSubstitutions(subs map[uuid.UUID]uuid.UUID) (map[uuid.UUID]costing.YarnRef, error) {
	if len(subs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(subs))
	for _, repl := range subs {
		ids = append(ids, repl)
	}
	var yarns []models.YarnType
	if err := s.db.Where("id IN ?", ids).Find(&yarns).Error; err != nil {
		return nil, dependencyError("load replacement yarns", err)
	}
	byID := make(map[uuid.UUID]models.YarnType, len(yarns))
	for _, y := range yarns {
		byID[y.ID] = y
	}

	out := make(map[uuid.UUID]costing.YarnRef, len(subs))
	for orig, repl := range subs {
		y, ok := byID[repl]
		if !ok {
			return nil, &costing.ValidationError{
				Code:    costing.CodeInvalidSubstitution,
				Message: "replacement yarn does not exist",
				Details: []string{repl.String()},
			}
		}
		out[orig] = y.Ref()
	}
	return out, nil
}
