// internal/services/document_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/pdf"
)

// DocumentService renders quote, order and catalog PDFs and archives them.
type DocumentService struct {
	db       *gorm.DB
	cfg      config.DocumentsConfig
	quotes   *QuoteService
	products *ProductService
	storage  *StorageService
	settings *SettingsService
	calendar *PricingCalendar
}

// GeneratedDocument is a rendered PDF plus its archive record.
type GeneratedDocument struct {
	Document *models.Document `json:"document"`
	Data     []byte           `json:"-"`
}

type PreviewDocumentRequest struct {
	Kind        models.QuoteKind `json:"kind"`
	OrderNumber int64            `json:"order_number"`
}

type CatalogRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

func NewDocumentService(
	db *gorm.DB,
	cfg config.DocumentsConfig,
	quotes *QuoteService,
	products *ProductService,
	storage *StorageService,
	settings *SettingsService,
	calendar *PricingCalendar,
) *DocumentService {
	return &DocumentService{
		db:       db,
		cfg:      cfg,
		quotes:   quotes,
		products: products,
		storage:  storage,
		settings: settings,
		calendar: calendar,
	}
}

func (s *DocumentService) brand() (pdf.Brand, error) {
	footer, err := s.settings.String(SettingDocumentsFooter, "")
	if err != nil {
		return pdf.Brand{}, err
	}
	return pdf.Brand{
		CompanyName: s.cfg.CompanyName,
		LogoPath:    s.cfg.LogoPath,
		FooterText:  footer,
	}, nil
}

// QuoteDocument renders a saved quote from its snapshot and archives it.
// Empty kind uses the stored kind. An order document needs a converted quote.
func (s *DocumentService) QuoteDocument(orderNumber int64, kind models.QuoteKind, userID uuid.UUID) (*GeneratedDocument, error) {
	quote, data, err := s.savedQuoteData(orderNumber, kind)
	if err != nil {
		return nil, err
	}

	doc, err := s.render(data)
	if err != nil {
		return nil, err
	}

	docKind := models.DocumentKindQuote
	if data.Kind == models.QuoteKindOrder {
		docKind = models.DocumentKindOrder
	}
	filename := pdf.QuoteFilename(data.Kind, quote.OrderNumber, data.CustomerName, data.IssuedAt)
	record, err := s.archive(doc, filename, docKind, &quote.ID, quote.OrderNumber, userID)
	if err != nil {
		return nil, err
	}
	return &GeneratedDocument{Document: record, Data: doc}, nil
}

// Preview renders a saved quote without archiving it. The order number must
// have been assigned by the quote store.
func (s *DocumentService) Preview(req *PreviewDocumentRequest) (*GeneratedDocument, error) {
	if req.OrderNumber <= 0 {
		return nil, &ValidationError{
			Code:    "order_number_required",
			Field:   "order_number",
			Message: "save the quote before generating the document",
			Key:     i18n.KeyDocumentNumberNeeded,
		}
	}

	quote, data, err := s.savedQuoteData(req.OrderNumber, req.Kind)
	if err != nil {
		return nil, err
	}

	doc, err := s.render(data)
	if err != nil {
		return nil, err
	}
	return &GeneratedDocument{
		Document: &models.Document{
			Kind:        models.DocumentKind(data.Kind),
			OrderNumber: quote.OrderNumber,
			Filename:    pdf.QuoteFilename(data.Kind, quote.OrderNumber, data.CustomerName, data.IssuedAt),
			ContentType: "application/pdf",
			Size:        int64(len(doc)),
		},
		Data: doc,
	}, nil
}

func (s *DocumentService) savedQuoteData(orderNumber int64, kind models.QuoteKind) (*models.Quote, pdf.QuoteData, error) {
	quote, err := s.quotes.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, pdf.QuoteData{}, err
	}
	if kind == "" {
		kind = quote.Kind
	}
	if !kind.Valid() {
		return nil, pdf.QuoteData{}, newValidationError("kind", "kind must be quote or order")
	}
	if kind == models.QuoteKindOrder && quote.Kind != models.QuoteKindOrder {
		return nil, pdf.QuoteData{}, &ValidationError{
			Code:    "not_an_order",
			Field:   "kind",
			Message: "convert the quote to an order first",
			Key:     i18n.KeyDocumentNotAnOrder,
		}
	}

	data := pdf.QuoteData{
		Kind:           kind,
		OrderNumber:    quote.OrderNumber,
		CustomerName:   quote.QuoteData.CustomerName,
		PaymentMethod:  quote.QuoteData.PaymentMethod,
		AdmDescription: quote.QuoteData.AdmDescription,
		IssuedAt:       s.calendar.Now(),
		Breakdown:      quote.QuoteData.Breakdown,
	}
	// totals always come from the stored color lines
	data.Breakdown.Totals = SnapshotTotals(quote)
	return quote, data, nil
}

func (s *DocumentService) render(data pdf.QuoteData) ([]byte, error) {
	brand, err := s.brand()
	if err != nil {
		return nil, err
	}
	out, err := pdf.QuotePDF(data, brand)
	if err != nil {
		if errors.Is(err, pdf.ErrOrderNumberRequired) {
			return nil, &ValidationError{
				Code:    "order_number_required",
				Field:   "order_number",
				Message: "save the quote before generating the document",
				Key:     i18n.KeyDocumentNumberNeeded,
			}
		}
		return nil, err
	}
	return out, nil
}

// Catalog renders the product list: all active products, or the selection.
func (s *DocumentService) Catalog(req *CatalogRequest, userID uuid.UUID) (*GeneratedDocument, error) {
	products, err := s.products.ProductsByIDs(req.ProductIDs)
	if err != nil {
		return nil, err
	}

	items := make([]pdf.CatalogProduct, 0, len(products))
	for _, p := range products {
		items = append(items, pdf.CatalogProduct{
			Code:        p.Code,
			Name:        p.Name,
			Composition: p.Composition,
			WeightGSM:   p.WeightGSM,
			WidthCM:     p.WidthCM,
			YieldMKg:    p.YieldMKg,
		})
	}

	brand, err := s.brand()
	if err != nil {
		return nil, err
	}
	now := s.calendar.Now()
	title := pdf.CatalogTitle(len(items), len(req.ProductIDs) > 0)
	out, err := pdf.CatalogPDF(items, title, now, brand)
	if err != nil {
		return nil, err
	}

	record, err := s.archive(out, pdf.CatalogFilename(now), models.DocumentKindCatalog, nil, 0, userID)
	if err != nil {
		return nil, err
	}
	return &GeneratedDocument{Document: record, Data: out}, nil
}

// ListForQuote returns the archived documents of a quote, newest first.
func (s *DocumentService) ListForQuote(orderNumber int64) ([]models.Document, error) {
	if _, err := s.quotes.GetByOrderNumber(orderNumber); err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := s.db.Where("order_number = ?", orderNumber).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, dependencyError("list documents", err)
	}
	for i := range docs {
		if url, err := s.storage.URL(docs[i].StorageKey); err == nil {
			docs[i].URL = url
		}
	}
	return docs, nil
}

func (s *DocumentService) archive(data []byte, filename string, kind models.DocumentKind, quoteID *uuid.UUID, orderNumber int64, userID uuid.UUID) (*models.Document, error) {
	category := "documents"
	if kind == models.DocumentKindCatalog {
		category = "catalogs"
	}

	upload, err := s.storage.Put(data, filename, "application/pdf", s.storage.GetDefaultUploadOptions(category))
	if err != nil {
		return nil, err
	}

	record := &models.Document{
		QuoteID:     quoteID,
		OrderNumber: orderNumber,
		Kind:        kind,
		Filename:    filename,
		StorageKey:  upload.Key,
		ContentType: "application/pdf",
		Size:        upload.Size,
		CreatedBy:   userID,
		URL:         upload.URL,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, dependencyError("record document", err)
	}

	logrus.WithFields(logrus.Fields{
		"kind":         kind,
		"order_number": orderNumber,
		"key":          upload.Key,
		"size":         upload.Size,
	}).Info("document archived")
	return record, nil
}
