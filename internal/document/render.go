// Package document renders custody vouchers as PDF files and bundles them
// into zip archives.
package document

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/models"
)

const (
	ContentTypePDF = "application/pdf"
	fontFamily     = "Arial"
	signatureLine  = "_________________________"
)

// AssetLoader supplies optional image assets by name.
type AssetLoader interface {
	LoadAsset(name string) ([]byte, bool)
}

// Document is one rendered voucher.
type Document struct {
	FileName string
	Data     []byte
	Pages    int
	Items    int
	Total    decimal.Decimal
}

// Options configures a Generator. Zero values fall back to the embedded
// layout, no assets, a no-op logger and the wall clock.
type Options struct {
	Layout *Layout
	Assets AssetLoader
	Logger *zap.Logger
	Now    func() time.Time
}

// Generator renders vouchers. It holds no per-document state and is safe
// for concurrent use.
type Generator struct {
	layout *Layout
	assets AssetLoader
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a generator.
func NewGenerator(opts Options) *Generator {
	g := &Generator{
		layout: opts.Layout,
		assets: opts.Assets,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if g.layout == nil {
		g.layout = DefaultLayout()
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Layout returns the layout the generator draws with.
func (g *Generator) Layout() *Layout {
	return g.layout
}

// FileName returns the download name of an employee's voucher.
func FileName(employeeName string) string {
	return "Vale_Resguardo_" + strings.ReplaceAll(employeeName, " ", "_") + ".pdf"
}

// RenderEmployee renders the voucher of one employee of ds.
func (g *Generator) RenderEmployee(ds *models.Dataset, name string) (*Document, error) {
	if ds.IsEmpty() {
		return nil, ErrEmptyDataset
	}
	records := ds.RecordsFor(name)
	if len(records) == 0 {
		return nil, &MissingEmployeeError{Name: name}
	}
	return g.Render(name, records)
}

// Render draws the voucher of employeeName over records.
func (g *Generator) Render(employeeName string, records []models.InventoryRecord) (*Document, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInventory
	}

	start := time.Now()
	now := g.now()
	v := g.layout.Build(employeeName, records, now)

	d := newDrawing(g.layout)
	d.pdf.SetCreationDate(now)
	d.pdf.SetTitle(FileName(employeeName), true)
	d.headerAsset = d.registerAsset(g.assets, g.layout.Header.Asset)
	d.footerAsset = d.registerAsset(g.assets, g.layout.Footer.Asset)
	if !d.headerAsset || !d.footerAsset {
		g.logger.Debug("using text fallback for missing assets",
			zap.Bool("header", d.headerAsset), zap.Bool("footer", d.footerAsset))
	}

	d.draw(v)

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render voucher for %s: %w", employeeName, err)
	}

	doc := &Document{
		FileName: FileName(employeeName),
		Data:     buf.Bytes(),
		Pages:    d.pdf.PageCount(),
		Items:    v.Items,
		Total:    v.Total,
	}
	g.logger.Debug("voucher rendered",
		zap.String("employee", employeeName),
		zap.Int("items", doc.Items),
		zap.Int("pages", doc.Pages),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}

// drawing is the state of one PDF being drawn.
type drawing struct {
	layout *Layout
	pdf    *fpdf.Fpdf
	tr     func(string) string

	headerAsset bool
	footerAsset bool
}

func newDrawing(l *Layout) *drawing {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(l.Page.MarginLeft, l.Page.MarginTop, l.Page.MarginRight)
	pdf.SetAutoPageBreak(true, l.Page.BreakMargin)

	d := &drawing{
		layout: l,
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	return d
}

// registerAsset loads an image into the PDF. It reports false, leaving the
// PDF usable, when the asset is missing or cannot be decoded.
func (d *drawing) registerAsset(assets AssetLoader, name string) bool {
	if assets == nil || name == "" {
		return false
	}
	data, ok := assets.LoadAsset(name)
	if !ok || len(data) == 0 {
		return false
	}

	var imageType string
	switch http.DetectContentType(data) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	case "image/gif":
		imageType = "GIF"
	default:
		return false
	}

	d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if !d.pdf.Ok() {
		d.pdf.ClearError()
		return false
	}
	return true
}

func (d *drawing) contentWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	return w - d.layout.Page.MarginLeft - d.layout.Page.MarginRight
}

func (d *drawing) text(w, h float64, s, border string, ln int, align string, fill bool) {
	d.pdf.CellFormat(w, h, d.tr(s), border, ln, align, fill, 0, "")
}

func (d *drawing) header() {
	h := d.layout.Header
	if d.headerAsset {
		d.pdf.ImageOptions(h.Asset, h.X, h.Y, h.Width, 0, false, fpdf.ImageOptions{}, 0, "")
	} else {
		d.pdf.SetY(h.Y)
		d.pdf.SetFont(fontFamily, "B", 14)
		d.text(0, 5, h.FallbackTitle, "", 1, "C", false)
	}
	d.pdf.SetY(d.layout.Page.MarginTop)
	d.pdf.Ln(h.Spacing)
}

func (d *drawing) footer() {
	f := d.layout.Footer
	if d.footerAsset {
		_, pageH := d.pdf.GetPageSize()
		d.pdf.ImageOptions(f.Asset, f.X, pageH-f.FromBottom, f.Width, 0, false, fpdf.ImageOptions{}, 0, "")
		return
	}

	lines := len(f.FallbackLines) + 1
	d.pdf.SetY(-(float64(lines)*5 + 10))
	d.pdf.SetFont(fontFamily, "I", 8)
	d.pdf.SetTextColor(100, 100, 100)
	for _, line := range f.FallbackLines {
		d.text(0, 5, line, "", 1, "C", false)
	}
	d.text(0, 5, fmt.Sprintf(f.PageLabel, d.pdf.PageNo()), "", 0, "C", false)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *drawing) draw(v *Voucher) {
	d.pdf.AddPage()

	d.pdf.SetFont(fontFamily, "B", 16)
	d.text(0, 8, d.layout.Title, "", 1, "C", false)
	d.pdf.Ln(3)

	d.drawPanel(v)
	d.drawTable(v)
	d.drawConditions()
	d.drawSignatures(v)
}

func (d *drawing) drawPanel(v *Voucher) {
	p := d.layout.Panel
	left := d.layout.Page.MarginLeft
	width := d.contentWidth()
	y := d.pdf.GetY()

	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.Rect(left, y, width, p.Height, "D")
	d.pdf.SetFont(fontFamily, "B", 11)
	d.pdf.SetXY(left, y+3)
	d.text(width, 6, p.Title, "", 1, "C", false)
	d.pdf.Line(left, y+9, left+width, y+9)
	d.pdf.Line(p.DividerX, y+9, p.DividerX, y+p.Height)

	for _, line := range v.Panel {
		f := line.Field
		d.pdf.SetXY(f.X, y+f.Offset)
		d.pdf.SetFont(fontFamily, "B", 8)
		d.text(f.LabelWidth, 5, f.Label, "", 0, "L", false)
		d.pdf.SetFont(fontFamily, "", 8)
		for i, value := range line.Lines {
			if i > 0 {
				d.pdf.SetX(f.X + f.LabelWidth)
			}
			d.text(f.ValueWidth, 5, value, "", 1, "L", false)
		}
	}

	d.pdf.SetY(y + p.Height + 1)
}

func (d *drawing) drawTableHeader() {
	t := d.layout.Table
	d.pdf.SetDrawColor(0, 51, 102)
	d.pdf.SetFillColor(230, 240, 250)
	d.pdf.SetFont(fontFamily, "B", 7)
	for _, c := range t.Columns {
		d.text(c.Width, t.HeaderHeight, c.Header, "1", 0, "C", true)
	}
	d.pdf.Ln(-1)
	d.pdf.SetFont(fontFamily, "", 7)
}

func (d *drawing) drawTable(v *Voucher) {
	t := d.layout.Table

	d.pdf.SetFont(fontFamily, "B", 12)
	d.text(0, 8, t.Title, "", 1, "C", false)
	d.pdf.Ln(2)
	d.drawTableHeader()

	for _, row := range v.Rows {
		if d.pdf.GetY() > d.layout.Page.RowBreakAt {
			d.pdf.AddPage()
			d.drawTableHeader()
		}
		if row.Shaded {
			d.pdf.SetFillColor(245, 245, 245)
		} else {
			d.pdf.SetFillColor(255, 255, 255)
		}
		for i, cell := range row.Cells {
			c := t.Columns[i]
			if cell.Small {
				d.pdf.SetFont(fontFamily, "", 6)
			}
			d.text(c.Width, t.RowHeight, cell.Text, "1", 0, columnAlign(c), true)
			if cell.Small {
				d.pdf.SetFont(fontFamily, "", 7)
			}
		}
		d.pdf.Ln(-1)
	}

	// totals row: label spans every column before the value column
	valueCol := d.layout.valueColumn()
	var labelWidth, restWidth float64
	for i, c := range t.Columns {
		switch {
		case i < valueCol:
			labelWidth += c.Width
		case i > valueCol:
			restWidth += c.Width
		}
	}
	d.pdf.SetFont(fontFamily, "B", 8)
	d.pdf.SetFillColor(220, 230, 240)
	d.text(labelWidth, t.HeaderHeight, t.TotalLabel, "1", 0, "R", true)
	d.text(t.Columns[valueCol].Width, t.HeaderHeight, v.TotalText, "1", 0, "R", true)
	if restWidth > 0 {
		d.text(restWidth, t.HeaderHeight, "", "1", 0, "", true)
	}
	d.pdf.Ln(-1)
}

func (d *drawing) drawConditions() {
	c := d.layout.Conditions
	d.pdf.Ln(8)
	d.pdf.SetFont(fontFamily, "B", 9)
	d.text(0, 6, c.Title, "", 1, "C", false)
	d.pdf.SetFont(fontFamily, "", 7)
	for _, line := range c.Lines {
		d.text(0, c.LineHeight, line, "", 1, "L", false)
	}
	d.pdf.Ln(5)
}

func (d *drawing) drawSignatures(v *Voucher) {
	s := d.layout.Signatures
	left := d.layout.Page.MarginLeft
	width := d.contentWidth()
	half := width / 2

	_, pageH := d.pdf.GetPageSize()
	y := d.pdf.GetY()
	if y+s.Height > pageH-d.layout.Page.BreakMargin {
		d.pdf.AddPage()
		y = d.pdf.GetY()
	}

	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.Rect(left, y, width, s.Height, "D")
	d.pdf.SetFont(fontFamily, "B", 9)
	d.pdf.SetXY(left, y+3)
	d.text(width, 6, s.Title, "", 1, "C", false)
	d.pdf.Line(left, y+9, left+width, y+9)
	d.pdf.Line(left+half, y+9, left+half, y+s.Height)

	parties := []struct {
		party SignatureParty
		name  string
	}{
		{s.Responsible, v.Signature},
		{s.Authorizing, s.Authorizing.Name},
	}
	for i, p := range parties {
		x := left + float64(i)*half

		d.pdf.SetFont(fontFamily, "B", 9)
		d.pdf.SetXY(x, y+12)
		d.text(half, 5, p.party.Heading, "", 0, "C", false)

		d.pdf.SetFont(fontFamily, "", 8)
		d.pdf.SetXY(x+15, y+22)
		d.text(half-30, 10, signatureLine, "", 0, "C", false)

		d.pdf.SetXY(x, y+32)
		d.text(half, 5, p.name, "", 0, "C", false)

		if p.party.Role != "" {
			d.pdf.SetFont(fontFamily, "I", 7)
			d.pdf.SetXY(x, y+37)
			d.text(half, 4, p.party.Role, "", 0, "C", false)
		}
	}
}

func columnAlign(c TableColumn) string {
	if c.Align == "" {
		return "C"
	}
	return c.Align
}
