// internal/handlers/quote.go
package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// QuoteHandler serves saved quotes, their documents and ERP submissions.
type QuoteHandler struct {
	quoteService    *services.QuoteService
	documentService *services.DocumentService
	erpService      *services.ERPService
	calendar        *services.PricingCalendar
}

func NewQuoteHandler(
	quoteService *services.QuoteService,
	documentService *services.DocumentService,
	erpService *services.ERPService,
	calendar *services.PricingCalendar,
) *QuoteHandler {
	return &QuoteHandler{
		quoteService:    quoteService,
		documentService: documentService,
		erpService:      erpService,
		calendar:        calendar,
	}
}

func quoteListParams(c *gin.Context) (services.QuoteListParams, bool) {
	params := services.QuoteListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Kind:             models.QuoteKind(c.Query("kind")),
	}

	productID, ok := uuidQuery(c, "product_id")
	if !ok {
		return params, false
	}
	params.ProductID = productID
	return params, true
}

// POST /admin/quotes
func (h *QuoteHandler) SaveQuote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.SaveQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.Save(&req, userID, isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyQuoteSaved),
		"order_number": quote.OrderNumber,
		"quote":        quote,
	})
}

// GET /admin/quotes
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	params, ok := quoteListParams(c)
	if !ok {
		return
	}

	quotes, total, err := h.quoteService.List(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(quotes, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /admin/quotes/export
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	params, ok := quoteListParams(c)
	if !ok {
		return
	}

	data, err := h.quoteService.ExportXLSX(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("Orcamentos_%s.xlsx", h.calendar.Now().Format("20060102"))
	sendFile(c, filename, xlsxContentType, data)
}

// GET /admin/quotes/:order_number
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	orderNumber, ok := orderNumberParam(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.GetByOrderNumber(orderNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote":  quote,
		"totals": services.SnapshotTotals(quote),
	})
}

// GET /admin/quotes/id/:id
func (h *QuoteHandler) GetQuoteByID(c *gin.Context) {
	quoteID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.quoteService.GetByID(quoteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"quote":  quote,
		"totals": services.SnapshotTotals(quote),
	})
}

// POST /admin/quotes/:order_number/convert
func (h *QuoteHandler) ConvertToOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	orderNumber, ok := orderNumberParam(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.ConvertToOrder(orderNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyQuoteConverted),
		"quote":   quote,
	})
}

// GET /admin/quotes/:order_number/pdf?kind=quote|order
func (h *QuoteHandler) QuotePDF(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderNumber, ok := orderNumberParam(c)
	if !ok {
		return
	}

	doc, err := h.documentService.QuoteDocument(orderNumber, models.QuoteKind(c.Query("kind")), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if doc.Document.URL != "" {
		c.Header("X-Document-URL", doc.Document.URL)
	}
	sendFile(c, doc.Document.Filename, doc.Document.ContentType, doc.Data)
}

// GET /admin/quotes/:order_number/documents
func (h *QuoteHandler) GetDocuments(c *gin.Context) {
	orderNumber, ok := orderNumberParam(c)
	if !ok {
		return
	}

	docs, err := h.documentService.ListForQuote(orderNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"documents": docs,
	})
}

// POST /admin/documents/preview
func (h *QuoteHandler) PreviewDocument(c *gin.Context) {
	var req services.PreviewDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.documentService.Preview(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendFile(c, doc.Document.Filename, doc.Document.ContentType, doc.Data)
}

// POST /admin/quotes/:order_number/erp
func (h *QuoteHandler) SubmitERP(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderNumber, ok := orderNumberParam(c)
	if !ok {
		return
	}

	var req services.SubmitERPRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	submission, err := h.erpService.Submit(c.Request.Context(), orderNumber, &req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	payload := gin.H{"submission": submission}
	if submission.Status == models.ERPStatusSuccess {
		payload["message"] = i18n.T(lang, i18n.KeyERPSubmitted)
	}
	utils.SuccessResponse(c, payload)
}

// GET /admin/quotes/:order_number/erp
func (h *QuoteHandler) GetERPHistory(c *gin.Context) {
	orderNumber, ok := orderNumberParam(c)
	if !ok {
		return
	}

	submissions, err := h.erpService.History(orderNumber)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"submissions": submissions,
	})
}
