// internal/pdf/quote.go
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	contentWidth = pageWidth - 2*margin
	headerHeight = 35.0
	rowHeight    = 7.0

	descriptionLineHeight = 5.0

	paymentBandHeight = 12.0
	totalsBandHeight  = 28.0
	footerTextHeight  = 15.0
	reservedFooter    = paymentBandHeight + totalsBandHeight + footerTextHeight
)

// ErrOrderNumberRequired is returned when a breakdown that was never saved
// is sent to print.
var ErrOrderNumberRequired = errors.New("order number is required to generate the document")

// Brand is the company identity printed on every document.
type Brand struct {
	CompanyName string
	LogoPath    string
	FooterText  string
}

// QuoteData is everything printed on a quote or order document.
type QuoteData struct {
	Kind           models.QuoteKind
	OrderNumber    int64
	CustomerName   string
	PaymentMethod  string
	AdmDescription string
	IssuedAt       time.Time
	Breakdown      costing.Breakdown
}

var (
	green     = [3]int{0, 155, 58}
	darkGreen = [3]int{0, 100, 40}
	darkGray  = [3]int{50, 50, 50}
	lightGray = [3]int{245, 245, 245}
)

// QuotePDF renders a quote or order document.
func QuotePDF(data QuoteData, brand Brand) ([]byte, error) {
	doc, err := renderQuote(data, brand)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// QuoteFilename builds {Orcamento|Pedido}_{number}_{CUSTOMER}_{YYYYMMDD}.pdf.
func QuoteFilename(kind models.QuoteKind, orderNumber int64, customer string, date time.Time) string {
	prefix := "Orcamento"
	if kind == models.QuoteKindOrder {
		prefix = "Pedido"
	}
	name := utils.SanitizeFilenamePart(customer, 40)
	if name == "" {
		name = "CLIENTE"
	}
	return fmt.Sprintf("%s_%06d_%s_%s.pdf", prefix, orderNumber, name, date.Format("20060102"))
}

type quoteWriter struct {
	doc   *gofpdf.Fpdf
	tr    func(string) string
	data  QuoteData
	brand Brand

	// observe, when set, is told about every table header and row drawn
	// with the page and the bottom edge of the cell.
	observe func(kind string, page int, bottom float64)
}

func renderQuote(data QuoteData, brand Brand) (*gofpdf.Fpdf, error) {
	w, err := newQuoteWriter(data, brand)
	if err != nil {
		return nil, err
	}
	w.layout()

	if err := w.doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return w.doc, nil
}

func newQuoteWriter(data QuoteData, brand Brand) (*quoteWriter, error) {
	if data.OrderNumber <= 0 {
		return nil, ErrOrderNumberRequired
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now()
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, 0)

	return &quoteWriter{
		doc:   doc,
		tr:    doc.UnicodeTranslatorFromDescriptor(""),
		data:  data,
		brand: brand,
	}, nil
}

// layout draws the whole document. Nothing above the footer may cross
// pageHeight-reservedFooter; continuation pages repeat the band and the
// column header.
func (w *quoteWriter) layout() {
	d := w.doc
	d.AddPage()
	w.header()
	w.productBox()

	// column header plus at least one row
	if !w.fits(2 * rowHeight) {
		w.newPage()
	}
	w.tableHeader()
	for i, line := range w.data.Breakdown.Colors {
		if !w.fits(rowHeight) {
			w.newPage()
			w.tableHeader()
		}
		w.row(i, line)
	}
	w.footer()
}

func (w *quoteWriter) fits(height float64) bool {
	return w.doc.GetY()+height <= pageHeight-reservedFooter
}

func (w *quoteWriter) newPage() {
	w.doc.AddPage()
	w.header()
}

func (w *quoteWriter) notify(kind string) {
	if w.observe != nil {
		w.observe(kind, w.doc.PageNo(), w.doc.GetY())
	}
}

func (w *quoteWriter) fill(c [3]int)  { w.doc.SetFillColor(c[0], c[1], c[2]) }
func (w *quoteWriter) color(c [3]int) { w.doc.SetTextColor(c[0], c[1], c[2]) }

func (w *quoteWriter) header() {
	drawBand(w.doc, w.tr, w.brand, fmt.Sprintf("%s Nº %06d", w.data.Kind.Label(), w.data.OrderNumber),
		"Data: "+w.data.IssuedAt.Format("02/01/2006"))
}

func (w *quoteWriter) productBox() {
	d := w.doc
	b := w.data.Breakdown
	y := headerHeight + 6

	// product identity
	w.fill(lightGray)
	d.Rect(margin, y, contentWidth, 16, "F")
	d.SetXY(margin+3, y+2)
	d.SetFont("Helvetica", "B", 12)
	w.color(darkGreen)
	d.CellFormat(contentWidth-6, 6, w.tr(b.Product.Code+" - "+b.Product.Name), "", 1, "L", false, 0, "")
	d.SetX(margin + 3)
	d.SetFont("Helvetica", "", 9)
	w.color(darkGray)
	d.CellFormat(contentWidth-6, 6, w.tr(b.Product.Composition), "", 1, "L", false, 0, "")

	// average cost callout
	y += 19
	d.SetDrawColor(green[0], green[1], green[2])
	d.SetLineWidth(0.6)
	d.Rect(margin, y, contentWidth, 12, "D")
	d.SetXY(margin, y+3)
	d.SetFont("Helvetica", "B", 13)
	w.color(darkGreen)
	avg := fmt.Sprintf("Custo médio: %s/kg", utils.FormatBRL(b.Totals.AverageCostPerKg))
	d.CellFormat(contentWidth, 6, w.tr(avg), "", 1, "C", false, 0, "")

	// technical line
	y += 15
	d.SetXY(margin, y)
	d.SetFont("Helvetica", "", 9)
	w.color(darkGray)
	technical := fmt.Sprintf("Gramatura: %s g/m²  |  Largura: %s cm  |  Rendimento: %s m/kg  |  Tinturaria: %s",
		utils.FormatDecimalBR(b.Product.WeightGSM, 0),
		utils.FormatDecimalBR(b.Product.WidthCM, 0),
		utils.FormatDecimalBR(b.Product.YieldMKg, 2),
		b.Tinturaria.Name)
	d.CellFormat(contentWidth, 5, w.tr(technical), "", 1, "L", false, 0, "")

	d.SetX(margin)
	d.SetFont("Helvetica", "B", 10)
	d.CellFormat(contentWidth, 6, w.tr("Cliente: "+w.data.CustomerName), "", 1, "L", false, 0, "")
	if w.data.AdmDescription != "" {
		d.SetFont("Helvetica", "", 9)
		for _, line := range d.SplitLines([]byte(w.tr(w.data.AdmDescription)), contentWidth) {
			if !w.fits(descriptionLineHeight) {
				w.newPage()
				d.SetFont("Helvetica", "", 9)
				w.color(darkGray)
			}
			d.SetX(margin)
			d.CellFormat(contentWidth, descriptionLineHeight, string(line), "", 1, "L", false, 0, "")
		}
	}
	d.Ln(3)
}

var tableColumns = []struct {
	title string
	width float64
	align string
}{
	{"COR", 75, "L"},
	{"QTD (kg)", 30, "R"},
	{"CUSTO/KG", 35, "R"},
	{"TOTAL", 40, "R"},
}

func (w *quoteWriter) tableHeader() {
	d := w.doc
	w.fill(darkGray)
	w.color([3]int{255, 255, 255})
	d.SetFont("Helvetica", "B", 9)
	d.SetX(margin)
	for _, col := range tableColumns {
		d.CellFormat(col.width, rowHeight, w.tr(col.title), "", 0, col.align, true, 0, "")
	}
	d.Ln(rowHeight)
	w.notify("header")
}

func (w *quoteWriter) row(i int, line costing.ColorLine) {
	d := w.doc
	w.fill(lightGray)
	w.color(darkGray)
	d.SetFont("Helvetica", "", 9)
	d.SetX(margin)

	cells := []string{
		line.ColorName,
		utils.FormatDecimalBR(line.Quantity, 2),
		utils.FormatBRL(line.CostPerKg),
		utils.FormatBRL(line.LineTotal),
	}
	for j, col := range tableColumns {
		d.CellFormat(col.width, rowHeight, w.tr(cells[j]), "", 0, col.align, i%2 == 0, 0, "")
	}
	d.Ln(rowHeight)
	w.notify("row")
}

// footer draws the payment band, the totals band and the footer text in the
// region reserved at the bottom of the last page.
func (w *quoteWriter) footer() {
	d := w.doc
	t := w.data.Breakdown.Totals
	y := pageHeight - reservedFooter

	w.fill(lightGray)
	d.Rect(margin, y, contentWidth, paymentBandHeight, "F")
	d.SetXY(margin+3, y+3)
	d.SetFont("Helvetica", "B", 10)
	w.color(darkGray)
	payment := w.data.PaymentMethod
	if payment == "" {
		payment = "-"
	}
	d.CellFormat(contentWidth-6, 6, w.tr("Condição de pagamento: "+payment), "", 0, "L", false, 0, "")

	y += paymentBandHeight
	w.fill(green)
	d.Rect(0, y, pageWidth, totalsBandHeight, "F")
	w.color([3]int{255, 255, 255})
	third := contentWidth / 3
	labels := []string{"Total (kg)", "Custo médio/kg", "Valor total"}
	values := []string{
		utils.FormatDecimalBR(t.TotalKg, 2),
		utils.FormatBRL(t.AverageCostPerKg),
		utils.FormatBRL(t.TotalValue),
	}
	for i := range labels {
		d.SetXY(margin+float64(i)*third, y+5)
		d.SetFont("Helvetica", "", 9)
		d.CellFormat(third, 6, w.tr(labels[i]), "", 0, "C", false, 0, "")
		d.SetXY(margin+float64(i)*third, y+13)
		d.SetFont("Helvetica", "B", 14)
		d.CellFormat(third, 8, w.tr(values[i]), "", 0, "C", false, 0, "")
	}

	y += totalsBandHeight
	d.SetXY(margin, y+4)
	d.SetFont("Helvetica", "I", 8)
	w.color(darkGray)
	d.CellFormat(contentWidth, 5, w.tr(w.brand.FooterText), "", 0, "C", false, 0, "")
}

// drawBand paints the green header band with the company name or logo on
// the left and the title and subtitle on the right.
func drawBand(d *gofpdf.Fpdf, tr func(string) string, brand Brand, title, subtitle string) {
	d.SetFillColor(green[0], green[1], green[2])
	d.Rect(0, 0, pageWidth, headerHeight, "F")

	if brand.LogoPath != "" && fileExists(brand.LogoPath) {
		d.ImageOptions(brand.LogoPath, margin, 5, 50, 25, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	} else {
		d.SetXY(margin, 12)
		d.SetFont("Helvetica", "B", 20)
		d.SetTextColor(255, 255, 255)
		d.CellFormat(80, 10, tr(brand.CompanyName), "", 0, "L", false, 0, "")
	}

	d.SetTextColor(255, 255, 255)
	d.SetFont("Helvetica", "B", 16)
	d.SetXY(pageWidth-margin-110, 13)
	d.CellFormat(110, 8, tr(title), "", 0, "R", false, 0, "")
	d.SetFont("Helvetica", "", 10)
	d.SetXY(pageWidth-margin-110, 23)
	d.CellFormat(110, 6, tr(subtitle), "", 0, "R", false, 0, "")
	d.SetY(headerHeight + 6)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
