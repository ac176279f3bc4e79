// internal/pdf/catalog.go
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/serramalhas/malhas-backend/internal/utils"
)

const catalogFooterHeight = 15.0

type CatalogProduct struct {
	Code        string
	Name        string
	Composition string
	WeightGSM   float64
	WidthCM     float64
	YieldMKg    float64
}

var catalogColumns = []struct {
	title  string
	offset float64
}{
	{"CÓD.", 2},
	{"ARTIGO", 22},
	{"COMPOSIÇÃO", 80},
	{"GRAM.", 130},
	{"LARG.", 148},
	{"REND.", 166},
}

// CatalogTitle is "Relação Completa de Artigos" for the full list and
// "Artigos Selecionados (n)" for a selection.
func CatalogTitle(count int, selected bool) string {
	if selected {
		return fmt.Sprintf("Artigos Selecionados (%d)", count)
	}
	return "Relação Completa de Artigos"
}

func CatalogFilename(date time.Time) string {
	return "Artigos_FAST_" + date.Format("20060102") + ".pdf"
}

// CatalogPDF renders the product list with the technical fields only.
func CatalogPDF(products []CatalogProduct, title string, date time.Time, brand Brand) ([]byte, error) {
	doc := renderCatalog(products, title, date, brand)
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to render catalog: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCatalog(products []CatalogProduct, title string, date time.Time, brand Brand) *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	subtitle := "Data: " + date.Format("02/01/2006")
	tableHeader := func() {
		y := doc.GetY()
		doc.SetFillColor(darkGray[0], darkGray[1], darkGray[2])
		doc.Rect(margin, y, contentWidth, 8, "F")
		doc.SetFont("Helvetica", "B", 8)
		doc.SetTextColor(255, 255, 255)
		for _, col := range catalogColumns {
			doc.Text(margin+col.offset, y+5, tr(col.title))
		}
		doc.SetY(y + 9)
	}

	doc.AddPage()
	drawBand(doc, tr, brand, title, subtitle)
	tableHeader()

	for i, p := range products {
		if doc.GetY()+rowHeight > pageHeight-catalogFooterHeight-5 {
			doc.AddPage()
			drawBand(doc, tr, brand, title, subtitle)
			tableHeader()
		}

		y := doc.GetY()
		if i%2 == 0 {
			doc.SetFillColor(lightGray[0], lightGray[1], lightGray[2])
			doc.Rect(margin, y, contentWidth, rowHeight, "F")
		}
		base := y + 4.5

		doc.SetFont("Helvetica", "B", 7)
		doc.SetTextColor(darkGreen[0], darkGreen[1], darkGreen[2])
		doc.Text(margin+2, base, tr(p.Code))

		doc.SetFont("Helvetica", "", 7)
		doc.SetTextColor(30, 30, 30)
		doc.Text(margin+22, base, tr(truncate(p.Name, 28)))
		doc.SetFontSize(6)
		doc.Text(margin+80, base, tr(truncate(p.Composition, 22)))
		doc.SetFontSize(7)
		doc.Text(margin+132, base, technical(p.WeightGSM, 0))
		doc.Text(margin+150, base, technical(p.WidthCM, 0))
		doc.Text(margin+168, base, technical(p.YieldMKg, 2))

		doc.SetY(y + rowHeight)
	}

	doc.SetFillColor(green[0], green[1], green[2])
	doc.Rect(0, pageHeight-catalogFooterHeight, pageWidth, catalogFooterHeight, "F")
	doc.SetFont("Helvetica", "B", 10)
	doc.SetTextColor(255, 255, 255)
	doc.SetXY(0, pageHeight-catalogFooterHeight+4)
	doc.CellFormat(pageWidth, 6, fmt.Sprintf("Total: %d artigos", len(products)), "", 0, "C", false, 0, "")

	return doc
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func technical(v float64, places int32) string {
	if v == 0 {
		return "-"
	}
	return utils.FormatDecimalBR(v, places)
}
