package services

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serramalhas/malhas-backend/internal/models"
)

func newDocumentService(t *testing.T, env *testEnv) *DocumentService {
	t.Helper()
	storage, err := NewStorageService(env.cfg)
	require.NoError(t, err)
	require.True(t, storage.IsLocal())
	return NewDocumentService(env.db, env.cfg.Documents, env.quotes, env.products, storage, env.settings, env.calendar)
}

func TestQuoteDocumentArchivesLocally(t *testing.T) {
	env := newTestEnv(t)
	docs := newDocumentService(t, env)
	quote := env.saveQuote(t, "Confecções Lima", CalculationEntry{ColorID: env.branco.ID, Quantity: 100})

	generated, err := docs.QuoteDocument(quote.OrderNumber, "", env.admin.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(generated.Data, []byte("%PDF")))
	assert.Equal(t, models.DocumentKindQuote, generated.Document.Kind)
	assert.Equal(t, "Orcamento_000001_CONFECCOES_LIMA_20261015.pdf", generated.Document.Filename)
	assert.True(t, strings.HasPrefix(generated.Document.StorageKey, "documents/"))
	assert.True(t, strings.HasPrefix(generated.Document.URL, env.cfg.Documents.PublicURL+"/documents/"))

	onDisk, err := os.ReadFile(filepath.Join(env.cfg.Documents.LocalDir, filepath.FromSlash(generated.Document.StorageKey)))
	require.NoError(t, err)
	assert.Equal(t, generated.Data, onDisk)

	_, err = env.quotes.ConvertToOrder(quote.OrderNumber)
	require.NoError(t, err)
	asOrder, err := docs.QuoteDocument(quote.OrderNumber, "", env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentKindOrder, asOrder.Document.Kind)
	assert.True(t, strings.HasPrefix(asOrder.Document.Filename, "Pedido_000001_"))

	listed, err := docs.ListForQuote(quote.OrderNumber)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	for _, d := range listed {
		assert.NotEmpty(t, d.URL)
	}
}

func TestQuoteDocumentRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	docs := newDocumentService(t, env)
	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	_, err := docs.QuoteDocument(quote.OrderNumber, "invoice", env.admin.ID)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "kind", verr.Field)

	_, err = docs.QuoteDocument(999, "", env.admin.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestOrderDocumentNeedsConvertedQuote(t *testing.T) {
	env := newTestEnv(t)
	docs := newDocumentService(t, env)
	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})

	_, err := docs.QuoteDocument(quote.OrderNumber, models.QuoteKindOrder, env.admin.ID)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "not_an_order", verr.Code)

	_, err = docs.Preview(&PreviewDocumentRequest{Kind: models.QuoteKindOrder, OrderNumber: quote.OrderNumber})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "not_an_order", verr.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Document{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPreviewRequiresSavedQuote(t *testing.T) {
	env := newTestEnv(t)
	docs := newDocumentService(t, env)

	_, err := docs.Preview(&PreviewDocumentRequest{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "order_number_required", verr.Code)

	_, err = docs.Preview(&PreviewDocumentRequest{Kind: models.QuoteKindOrder, OrderNumber: 4242})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "quote", nf.Resource)

	quote := env.saveQuote(t, "Cliente", CalculationEntry{ColorID: env.branco.ID, Quantity: 10})
	preview, err := docs.Preview(&PreviewDocumentRequest{OrderNumber: quote.OrderNumber})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(preview.Data, []byte("%PDF")))
	assert.Equal(t, quote.OrderNumber, preview.Document.OrderNumber)
	assert.Equal(t, "Orcamento_000001_CLIENTE_20261015.pdf", preview.Document.Filename)

	var count int64
	require.NoError(t, env.db.Model(&models.Document{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCatalogListsActiveProducts(t *testing.T) {
	env := newTestEnv(t)
	docs := newDocumentService(t, env)

	catalog, err := docs.Catalog(&CatalogRequest{}, env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentKindCatalog, catalog.Document.Kind)
	assert.Equal(t, "Artigos_FAST_20261015.pdf", catalog.Document.Filename)
	assert.True(t, strings.HasPrefix(catalog.Document.StorageKey, "catalogs/"))
}
