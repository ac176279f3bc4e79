// internal/services/lead_service.go
package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// LeadService turns the public order form into a pre-filled WhatsApp
// message for the sales team.
type LeadService struct {
	whatsapp config.WhatsAppConfig
	pricing  config.PricingConfig
	products *ProductService
	colors   *ColorService
}

type LeadColor struct {
	ColorID  uuid.UUID `json:"color_id" validate:"required"`
	Quantity float64   `json:"quantity" validate:"gt=0"`
}

type WhatsAppLeadRequest struct {
	WhatsApp     string              `json:"whatsapp" validate:"required,phone_br"`
	FullName     string              `json:"full_name" validate:"required,max=255"`
	CityUF       string              `json:"city_uf" validate:"required,max=100"`
	CompanyName  string              `json:"company_name" validate:"required,max=255"`
	CustomerType models.CustomerType `json:"customer_type" validate:"required,oneof=atacadista confeccao"`
	ProductID    uuid.UUID           `json:"product_id" validate:"required"`
	Colors       []LeadColor         `json:"colors" validate:"required,min=1,dive"`
}

type WhatsAppLead struct {
	Message    string  `json:"message"`
	URL        string  `json:"url"`
	TotalKg    float64 `json:"total_kg"`
	MinimumLot float64 `json:"minimum_lot"`
}

type ContactLinks struct {
	Sales   string `json:"sales"`
	Contact string `json:"contact"`
}

func NewLeadService(whatsapp config.WhatsAppConfig, pricing config.PricingConfig, products *ProductService, colors *ColorService) *LeadService {
	return &LeadService{whatsapp: whatsapp, pricing: pricing, products: products, colors: colors}
}

// MinimumLot is the smallest quantity per color: lower for polyamide
// articles.
func (s *LeadService) MinimumLot(p *models.Product) float64 {
	text := strings.ToLower(p.Name + " " + p.Composition)
	if strings.Contains(text, "poliamida") {
		return s.pricing.MinLotPolyamideKg
	}
	return s.pricing.MinLotDefaultKg
}

func (s *LeadService) BuildWhatsAppLead(req *WhatsAppLeadRequest) (*WhatsAppLead, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.products.GetProduct(req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, &NotFoundError{Resource: "product"}
	}

	available, err := s.colors.ProductGroupColors(product.ID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(available))
	for _, c := range available {
		names[c.ID] = c.Name
	}

	minLot := s.MinimumLot(product)
	seen := make(map[uuid.UUID]bool, len(req.Colors))
	var lines []string
	var total float64
	for _, c := range req.Colors {
		if seen[c.ColorID] {
			return nil, &ValidationError{
				Code:    "duplicate_color",
				Field:   "colors",
				Message: "color added twice",
				Key:     "lead.duplicate_color",
			}
		}
		seen[c.ColorID] = true

		name, ok := names[c.ColorID]
		if !ok {
			return nil, &ValidationError{
				Code:    "color_unavailable",
				Field:   "colors",
				Message: "color is not offered for this article",
				Key:     "calculation.color_unavailable",
			}
		}
		if c.Quantity < minLot {
			return nil, &ValidationError{
				Code:    "minimum_lot",
				Field:   "colors",
				Message: fmt.Sprintf("minimum quantity per color is %s kg", formatKg(minLot)),
				Key:     "lead.minimum_lot",
				Args:    []interface{}{formatKg(minLot)},
			}
		}

		lines = append(lines, fmt.Sprintf("  - %s: %skg", name, formatKg(c.Quantity)))
		total += c.Quantity
	}

	customerType := "Confeccao"
	if req.CustomerType == models.CustomerTypeWholesaler {
		customerType = "Atacadista de Malha"
	}
	composition := ""
	if product.Composition != "" {
		composition = "Composicao: " + product.Composition
	}

	message := strings.Join([]string{
		"*NOVO PEDIDO - FAST MALHAS*",
		"",
		"*Dados do Cliente:*",
		"Nome: " + strings.TrimSpace(req.FullName),
		"WhatsApp: " + utils.FormatPhoneBR(req.WhatsApp),
		"Empresa: " + strings.TrimSpace(req.CompanyName),
		"Cidade/UF: " + strings.TrimSpace(req.CityUF),
		"Tipo: " + customerType,
		"",
		"*Pedido:*",
		"Artigo: " + product.Code + " - " + product.Name,
		composition,
		"",
		"*Cores e Quantidades:*",
		strings.Join(lines, "\n"),
		"",
		"*Total: " + formatKg(total) + "kg*",
	}, "\n")

	return &WhatsAppLead{
		Message:    message,
		URL:        whatsAppURL(s.whatsapp.SalesNumber, message),
		TotalKg:    total,
		MinimumLot: minLot,
	}, nil
}

func (s *LeadService) Contact() ContactLinks {
	return ContactLinks{
		Sales:   whatsAppURL(s.whatsapp.SalesNumber, ""),
		Contact: whatsAppURL(s.whatsapp.ContactNumber, ""),
	}
}

func whatsAppURL(number, text string) string {
	link := "https://wa.me/" + number
	if text == "" {
		return link
	}
	// wa.me expects %20 rather than +
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
