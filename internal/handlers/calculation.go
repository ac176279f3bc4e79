// internal/handlers/calculation.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type CalculationHandler struct {
	calculatorService *services.CalculatorService
}

func NewCalculationHandler(calculatorService *services.CalculatorService) *CalculationHandler {
	return &CalculationHandler{
		calculatorService: calculatorService,
	}
}

// POST /calculations
// The breakdown is a preview; nothing is stored.
func (h *CalculationHandler) Calculate(c *gin.Context) {
	var req services.CalculationRequest
	if !bindJSON(c, &req) {
		return
	}

	breakdown, err := h.calculatorService.Calculate(&req, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"breakdown": breakdown,
	})
}
