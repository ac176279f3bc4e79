// internal/handlers/tinturaria.go
package handlers

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

const maxImportFileSize = 5 * 1024 * 1024 // 5MB

// TinturariaHandler serves dye houses and their per-color dyeing costs.
type TinturariaHandler struct {
	tinturariaService *services.TinturariaService
	dyeingCostService *services.DyeingCostService
}

func NewTinturariaHandler(tinturariaService *services.TinturariaService, dyeingCostService *services.DyeingCostService) *TinturariaHandler {
	return &TinturariaHandler{
		tinturariaService: tinturariaService,
		dyeingCostService: dyeingCostService,
	}
}

// GET /admin/tinturarias
func (h *TinturariaHandler) GetTinturarias(c *gin.Context) {
	tinturarias, err := h.tinturariaService.List()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"tinturarias": tinturarias,
	})
}

// POST /admin/tinturarias
func (h *TinturariaHandler) CreateTinturaria(c *gin.Context) {
	var req services.CreateTinturariaRequest
	if !bindJSON(c, &req) {
		return
	}

	tinturaria, err := h.tinturariaService.Create(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"tinturaria": tinturaria,
	})
}

// PUT /admin/tinturarias/:id
func (h *TinturariaHandler) UpdateTinturaria(c *gin.Context) {
	tinturariaID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTinturariaRequest
	if !bindJSON(c, &req) {
		return
	}

	tinturaria, err := h.tinturariaService.Update(tinturariaID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"tinturaria": tinturaria,
	})
}

// DELETE /admin/tinturarias/:id
func (h *TinturariaHandler) DeleteTinturaria(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	tinturariaID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.tinturariaService.Delete(tinturariaID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyTinturariaDeleted),
	})
}

// pairQuery reads the required tinturaria_id and product_id query parameters.
func pairQuery(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	lang := utils.GetLangFromContext(c)

	tinturariaID, err := uuid.Parse(c.Query("tinturaria_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "tinturaria_id"), nil)
		return uuid.Nil, uuid.Nil, false
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "product_id"), nil)
		return uuid.Nil, uuid.Nil, false
	}
	return tinturariaID, productID, true
}

// GET /admin/dyeing-costs?tinturaria_id=&product_id=&search=
func (h *TinturariaHandler) GetDyeingCosts(c *gin.Context) {
	tinturariaID, productID, ok := pairQuery(c)
	if !ok {
		return
	}

	costs, err := h.dyeingCostService.List(tinturariaID, productID, c.Query("search"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"dyeing_costs": costs,
	})
}

// GET /dyeing-costs/colors?tinturaria_id=&product_id=
func (h *TinturariaHandler) GetAvailableColors(c *gin.Context) {
	tinturariaID, productID, ok := pairQuery(c)
	if !ok {
		return
	}

	colors, err := h.dyeingCostService.AvailableColors(tinturariaID, productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"colors": colors,
	})
}

// POST /admin/dyeing-costs
func (h *TinturariaHandler) AddDyeingCost(c *gin.Context) {
	var req services.AddDyeingCostRequest
	if !bindJSON(c, &req) {
		return
	}

	cost, err := h.dyeingCostService.Add(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"dyeing_cost": cost,
	})
}

// PUT /admin/dyeing-costs/:id
func (h *TinturariaHandler) UpdateDyeingCost(c *gin.Context) {
	costID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateDyeingCostRequest
	if !bindJSON(c, &req) {
		return
	}

	cost, err := h.dyeingCostService.UpdateCost(costID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"dyeing_cost": cost,
	})
}

// DELETE /admin/dyeing-costs/:id
func (h *TinturariaHandler) DeleteDyeingCost(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	costID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.dyeingCostService.Delete(costID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDyeingCostDeleted),
	})
}

// POST /admin/dyeing-costs/import
func (h *TinturariaHandler) ImportDyeingCostsText(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.ImportDyeingCostsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.dyeingCostService.ImportText(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondImport(c, lang, result)
}

// POST /admin/dyeing-costs/import/xlsx (multipart: tinturaria_id, product_id, commit, file)
func (h *TinturariaHandler) ImportDyeingCostsXLSX(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	tinturariaID, err := uuid.Parse(c.PostForm("tinturaria_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "tinturaria_id"), nil)
		return
	}
	productID, err := uuid.Parse(c.PostForm("product_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "product_id"), nil)
		return
	}
	commit, _ := strconv.ParseBool(c.PostForm("commit"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), nil)
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)
		return
	}
	if fileHeader.Size > maxImportFileSize {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooLarge), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportFileSize))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), err.Error())
		return
	}

	result, err := h.dyeingCostService.ImportXLSX(tinturariaID, productID, data, commit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondImport(c, lang, result)
}

func respondImport(c *gin.Context, lang string, result *services.ImportResult) {
	payload := gin.H{"result": result}
	if result.Committed {
		payload["message"] = i18n.T(lang, i18n.KeyDyeingCostsImported)
	}
	utils.SuccessResponse(c, payload)
}
