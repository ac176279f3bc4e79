// internal/handlers/yarn.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// YarnHandler serves yarn types, daily yarn prices and the daily freight price.
type YarnHandler struct {
	yarnService    *services.YarnService
	freightService *services.FreightService
}

func NewYarnHandler(yarnService *services.YarnService, freightService *services.FreightService) *YarnHandler {
	return &YarnHandler{
		yarnService:    yarnService,
		freightService: freightService,
	}
}

// GET /admin/yarn-types
func (h *YarnHandler) GetYarnTypes(c *gin.Context) {
	groups, err := h.yarnService.ListYarnTypes()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"yarn_types": groups,
	})
}

// POST /admin/yarn-types
func (h *YarnHandler) CreateYarnType(c *gin.Context) {
	var req services.CreateYarnTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	yarnType, err := h.yarnService.CreateYarnType(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"yarn_type": yarnType,
	})
}

// GET /admin/yarn-prices/today
func (h *YarnHandler) GetTodayPrices(c *gin.Context) {
	prices, err := h.yarnService.TodayPrices()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"prices": prices,
	})
}

// PUT /admin/yarn-prices/today
func (h *YarnHandler) SaveTodayPrices(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SaveYarnPricesRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.yarnService.SaveTodayPrices(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyYarnPricesSaved),
		"result":  result,
	})
}

// GET /admin/yarn-types/:id/prices?limit=30
func (h *YarnHandler) GetPriceHistory(c *gin.Context) {
	yarnTypeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	limit := 30
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 365 {
			limit = l
		}
	}

	prices, err := h.yarnService.PriceHistory(yarnTypeID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"prices": prices,
	})
}

// GET /admin/freight/today
func (h *YarnHandler) GetTodayFreight(c *gin.Context) {
	freight, err := h.freightService.Today()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"freight": freight,
	})
}

// PUT /admin/freight/today
func (h *YarnHandler) SaveTodayFreight(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SaveFreightRequest
	if !bindJSON(c, &req) {
		return
	}

	freight, err := h.freightService.SaveToday(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFreightSaved),
		"freight": freight,
	})
}
