package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/models"
)

var testBrand = Brand{CompanyName: "FAST Malhas", FooterText: "Valores sujeitos a alteração."}

func sampleQuote(colors int) QuoteData {
	lines := make([]costing.ColorLine, 0, colors)
	for i := 0; i < colors; i++ {
		lines = append(lines, costing.ColorLine{
			ColorID:   uuid.New(),
			ColorName: fmt.Sprintf("COR %02d", i+1),
			Quantity:  100,
			CostPerKg: 29.6452,
			LineTotal: 2964.52,
		})
	}
	return QuoteData{
		Kind:          models.QuoteKindQuote,
		OrderNumber:   42,
		CustomerName:  "Confecção São João",
		PaymentMethod: "30/60/90",
		IssuedAt:      time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		Breakdown: costing.Breakdown{
			Product:    costing.ProductInfo{Code: "FM-101", Name: "Suplex Light", Composition: "94% PA 6% EL", WeightGSM: 180, WidthCM: 160, YieldMKg: 3.47},
			Tinturaria: costing.TinturariaInfo{Name: "Tinturaria Serra"},
			Colors:     lines,
			Totals:     costing.SumColors(lines),
		},
	}
}

func TestQuotePDFRefusesUnsavedBreakdown(t *testing.T) {
	data := sampleQuote(1)
	data.OrderNumber = 0

	out, err := QuotePDF(data, testBrand)
	assert.ErrorIs(t, err, ErrOrderNumberRequired)
	assert.Nil(t, out)
}

func TestQuotePDFRendersSinglePage(t *testing.T) {
	doc, err := renderQuote(sampleQuote(3), testBrand)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageNo())

	out, err := QuotePDF(sampleQuote(3), testBrand)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

type layoutEvent struct {
	kind   string
	page   int
	bottom float64
}

// traceLayout lays data out the way renderQuote does and records every
// table header and row drawn.
func traceLayout(t *testing.T, data QuoteData) ([]layoutEvent, int) {
	t.Helper()
	w, err := newQuoteWriter(data, testBrand)
	require.NoError(t, err)

	var events []layoutEvent
	w.observe = func(kind string, page int, bottom float64) {
		events = append(events, layoutEvent{kind: kind, page: page, bottom: bottom})
	}
	w.layout()
	require.NoError(t, w.doc.Error())
	return events, w.doc.PageNo()
}

func assertTableLayout(t *testing.T, events []layoutEvent, rows int) {
	t.Helper()
	limit := pageHeight - reservedFooter
	headerPage := 0
	drawn := 0
	for _, e := range events {
		assert.LessOrEqual(t, e.bottom, limit, "%s on page %d crosses the footer region", e.kind, e.page)
		switch e.kind {
		case "header":
			headerPage = e.page
		case "row":
			assert.Equal(t, e.page, headerPage, "row on page %d has no column header", e.page)
			drawn++
		}
	}
	assert.Equal(t, rows, drawn)
}

func TestQuotePDFBreaksPagesBeforeFooter(t *testing.T) {
	events, pages := traceLayout(t, sampleQuote(80))

	assert.Greater(t, pages, 1)
	assertTableLayout(t, events, 80)

	headers := 0
	for _, e := range events {
		if e.kind == "header" {
			headers++
		}
	}
	assert.Equal(t, pages, headers)
}

func TestQuotePDFLongDescriptionStaysAboveFooter(t *testing.T) {
	data := sampleQuote(5)
	data.AdmDescription = strings.Repeat("Obs.\n", 60)

	events, pages := traceLayout(t, data)

	assert.Greater(t, pages, 1)
	assertTableLayout(t, events, 5)
	require.NotEmpty(t, events)
	assert.Equal(t, "header", events[0].kind)
	assert.Equal(t, pages, events[0].page)

	_, err := QuotePDF(data, testBrand)
	require.NoError(t, err)
}

func TestQuoteFilename(t *testing.T) {
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Orcamento_000042_CONFECCAO_SAO_JOAO_20260309.pdf",
		QuoteFilename(models.QuoteKindQuote, 42, "Confecção São João", date))
	assert.Equal(t, "Pedido_001234_CLIENTE_20260309.pdf",
		QuoteFilename(models.QuoteKindOrder, 1234, "  ", date))
}

func TestCatalog(t *testing.T) {
	products := make([]CatalogProduct, 0, 70)
	for i := 0; i < 70; i++ {
		products = append(products, CatalogProduct{
			Code:        fmt.Sprintf("FM-%03d", i),
			Name:        "Malha com um nome bastante comprido para truncar",
			Composition: "92% Poliamida 8% Elastano",
			WeightGSM:   200,
		})
	}

	doc := renderCatalog(products, CatalogTitle(len(products), false), time.Now(), testBrand)
	require.NoError(t, doc.Error())
	assert.Greater(t, doc.PageNo(), 1)

	out, err := CatalogPDF(products[:2], CatalogTitle(2, true), time.Now(), testBrand)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	assert.Equal(t, "Artigos Selecionados (2)", CatalogTitle(2, true))
	assert.Equal(t, "Relação Completa de Artigos", CatalogTitle(9, false))
	assert.Equal(t, "Artigos_FAST_20260309.pdf", CatalogFilename(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "-", technical(0, 2))
}
