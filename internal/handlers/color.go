// internal/handlers/color.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type ColorHandler struct {
	colorService *services.ColorService
}

func NewColorHandler(colorService *services.ColorService) *ColorHandler {
	return &ColorHandler{
		colorService: colorService,
	}
}

// GET /admin/colors?search=
func (h *ColorHandler) GetColors(c *gin.Context) {
	colors, err := h.colorService.ListColors(c.Query("search"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"colors": colors,
	})
}

// GET /public/colors
func (h *ColorHandler) GetGroupedColors(c *gin.Context) {
	groups, err := h.colorService.GroupedByScale(c.Query("search"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"groups": groups,
	})
}

// POST /admin/colors
func (h *ColorHandler) CreateColor(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateColorRequest
	if !bindJSON(c, &req) {
		return
	}

	color, err := h.colorService.CreateColor(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyColorCreated),
		"color":   color,
	})
}

// PUT /admin/colors/:id
func (h *ColorHandler) UpdateColor(c *gin.Context) {
	colorID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateColorRequest
	if !bindJSON(c, &req) {
		return
	}

	color, err := h.colorService.UpdateColor(colorID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"color": color,
	})
}
