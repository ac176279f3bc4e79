// internal/handlers/public.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// PublicHandler serves the unauthenticated catalog site.
type PublicHandler struct {
	productService *services.ProductService
	colorService   *services.ColorService
	leadService    *services.LeadService
}

func NewPublicHandler(productService *services.ProductService, colorService *services.ColorService, leadService *services.LeadService) *PublicHandler {
	return &PublicHandler{
		productService: productService,
		colorService:   colorService,
		leadService:    leadService,
	}
}

// GET /public/products
func (h *PublicHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.ListPublic()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"products": products,
	})
}

// POST /public/product-group-colors
// A missing or unknown product answers with an empty list.
func (h *PublicHandler) GetProductGroupColors(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId"`
	}
	_ = c.ShouldBindJSON(&req)

	colors := []services.ColorOption{}
	if productID, err := uuid.Parse(req.ProductID); err == nil {
		found, err := h.colorService.ProductGroupColors(productID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		if found != nil {
			colors = found
		}
	}

	c.Header("Cache-Control", "public, max-age=300")
	utils.SuccessResponse(c, gin.H{
		"colors": colors,
	})
}

// POST /public/leads/whatsapp
func (h *PublicHandler) CreateWhatsAppLead(c *gin.Context) {
	var req services.WhatsAppLeadRequest
	if !bindJSON(c, &req) {
		return
	}

	lead, err := h.leadService.BuildWhatsAppLead(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"lead": lead,
	})
}

// GET /public/contact
func (h *PublicHandler) GetContact(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"whatsapp": h.leadService.Contact(),
	})
}
