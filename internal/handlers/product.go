// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

type ProductHandler struct {
	productService  *services.ProductService
	storageService  *services.StorageService
	documentService *services.DocumentService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService, documentService *services.DocumentService) *ProductHandler {
	return &ProductHandler{
		productService:  productService,
		storageService:  storageService,
		documentService: documentService,
	}
}

// GET /admin/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	listParams := services.ProductListParams{
		PaginationParams: params,
	}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			listParams.Active = &active
		}
	}

	products, total, err := h.productService.ListProducts(listParams)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(productID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(productID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// GET /admin/products/:id/composition
func (h *ProductHandler) GetComposition(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	composition, err := h.productService.GetComposition(productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"composition": composition,
	})
}

// PUT /admin/products/:id/composition
func (h *ProductHandler) SetComposition(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.SetCompositionRequest
	if !bindJSON(c, &req) {
		return
	}

	composition, err := h.productService.SetComposition(productID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"composition": composition,
	})
}

// POST /admin/products/:id/images
func (h *ProductHandler) UploadProductImages(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), err.Error())
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), nil)
		return
	}

	var uploadedImages []*services.UploadResult
	var rejected []gin.H
	options := h.storageService.GetDefaultUploadOptions("products")

	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			rejected = append(rejected, gin.H{"file": fileHeader.Filename, "error": err.Error()})
			continue
		}

		if err := h.storageService.ValidateImage(file); err != nil {
			file.Close()
			rejected = append(rejected, gin.H{"file": fileHeader.Filename, "error": i18n.T(lang, i18n.KeyFileInvalidType)})
			continue
		}

		result, err := h.storageService.UploadFile(file, fileHeader, options)
		file.Close()
		if err != nil {
			rejected = append(rejected, gin.H{"file": fileHeader.Filename, "error": err.Error()})
			continue
		}

		if _, err := h.productService.AddImage(productID, result.URL); err != nil {
			if delErr := h.storageService.DeleteFile(result.Key); delErr != nil {
				logrus.WithError(delErr).WithField("key", result.Key).Warn("Failed to remove orphan image")
			}
			handleServiceError(c, err)
			return
		}
		uploadedImages = append(uploadedImages, result)
	}

	product, err := h.productService.GetProduct(productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product":  product,
		"images":   uploadedImages,
		"rejected": rejected,
	})
}

// POST /admin/products/catalog
func (h *ProductHandler) ExportCatalog(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CatalogRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	doc, err := h.documentService.Catalog(&req, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendFile(c, doc.Document.Filename, doc.Document.ContentType, doc.Data)
}
