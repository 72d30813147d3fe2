package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/pocketbook-dev/pocketbook/internal/derive"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

const (
	fontFamily = "Helvetica"
	margin     = 15.0
	rowHeight  = 7.0
)

// rgb is a fill or stroke color.
type rgb struct{ r, g, b int }

var (
	headerFill = rgb{173, 216, 230}
	gridColor  = rgb{200, 200, 200}
	lineColor  = rgb{31, 119, 180}
	// Matplotlib's tab10 cycle, so charts look like the desktop app's.
	palette = []rgb{
		{31, 119, 180}, {255, 127, 14}, {44, 160, 44}, {214, 39, 40}, {148, 103, 189},
		{140, 86, 75}, {227, 119, 194}, {127, 127, 127}, {188, 189, 34}, {23, 190, 207},
	}
)

// FPDFRenderer renders documents with fpdf.
type FPDFRenderer struct {
	PageSize string // "A4", "Letter"; empty means A4
}

// Render writes doc as a PDF.
func (r *FPDFRenderer) Render(w io.Writer, doc Document) error {
	size := r.PageSize
	if size == "" {
		size = "A4"
	}

	pdf := fpdf.New("P", "mm", size, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("pocketbook", true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin + 3)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	p := &page{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	p.AddPage()
	p.title(doc.Title, doc.GeneratedAt)
	p.summary(doc.Summary)
	p.table(doc.Rows)

	p.AddPage()
	heading := "Expenses/Incomes per Description"
	if doc.PieLimit > 0 {
		heading = fmt.Sprintf("Top %d Expenses/Incomes per Description", doc.PieLimit)
	}
	p.heading(heading)
	p.pie(doc.Pie)
	p.heading("Money Over Time")
	p.line(doc.Line)

	return pdf.Output(w)
}

// page wraps fpdf with the layout helpers used by Render.
type page struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (p *page) contentWidth() float64 {
	w, _ := p.GetPageSize()
	left, _, right, _ := p.GetMargins()
	return w - left - right
}

func (p *page) fill(c rgb) { p.SetFillColor(c.r, c.g, c.b) }
func (p *page) draw(c rgb) { p.SetDrawColor(c.r, c.g, c.b) }

func (p *page) title(title string, at time.Time) {
	p.SetFont(fontFamily, "B", 18)
	p.SetTextColor(0, 0, 0)
	p.CellFormat(0, 10, p.tr(title), "", 1, "C", false, 0, "")
	if !at.IsZero() {
		p.SetFont(fontFamily, "", 9)
		p.SetTextColor(100, 100, 100)
		p.CellFormat(0, 5, "Generated "+at.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	}
	p.Ln(4)
}

func (p *page) heading(text string) {
	p.SetFont(fontFamily, "B", 13)
	p.SetTextColor(0, 0, 0)
	p.CellFormat(0, 9, p.tr(text), "", 1, "L", false, 0, "")
	p.Ln(2)
}

func (p *page) summary(s derive.Summary) {
	p.SetFont(fontFamily, "", 10)
	p.SetTextColor(0, 0, 0)
	period := "-"
	if !s.First.IsZero() {
		period = s.First.Format(model.DateLayout) + " to " + s.Last.Format(model.DateLayout)
	}
	lines := [][2]string{
		{"Records", fmt.Sprint(s.Records)},
		{"Period", period},
		{"Income", s.Income.StringFixed(2)},
		{"Expenses", s.Expenses.StringFixed(2)},
		{"Net", s.Net.StringFixed(2)},
	}
	for _, l := range lines {
		p.CellFormat(30, 6, l[0], "", 0, "L", false, 0, "")
		p.CellFormat(0, 6, l[1], "", 1, "L", false, 0, "")
	}
	p.Ln(4)
}

func (p *page) table(rows []model.Record) {
	cw := p.contentWidth()
	widths := []float64{30, cw - 30 - 35, 35}
	header := []string{"Date", "Description", "Amount"}
	aligns := []string{"C", "L", "R"}

	writeHeader := func() {
		p.SetFont(fontFamily, "B", 10)
		p.SetTextColor(0, 0, 0)
		p.fill(headerFill)
		p.SetDrawColor(0, 0, 0)
		for i, h := range header {
			p.CellFormat(widths[i], rowHeight+1, h, "1", 0, "C", true, 0, "")
		}
		p.Ln(-1)
		p.SetFont(fontFamily, "", 9)
	}

	_, pageH := p.GetPageSize()
	writeHeader()
	for _, r := range rows {
		if p.GetY()+rowHeight > pageH-margin {
			p.AddPage()
			writeHeader()
		}
		cells := []string{
			r.Date.Format(model.DateLayout),
			p.fit(p.tr(r.Description), widths[1]-2),
			r.Amount.StringFixed(2),
		}
		for i, c := range cells {
			p.CellFormat(widths[i], rowHeight, c, "1", 0, aligns[i], false, 0, "")
		}
		p.Ln(-1)
	}
	p.Ln(4)
}

// fit truncates s with an ellipsis so it renders within width.
func (p *page) fit(s string, width float64) string {
	if p.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && p.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func (p *page) pie(slices []derive.Slice) {
	const radius = 40.0
	left, _, _, _ := p.GetMargins()
	cx := left + radius + 5
	cy := p.GetY() + radius + 2

	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.Total.Abs())
	}
	if total.IsZero() {
		p.SetFont(fontFamily, "I", 10)
		p.CellFormat(0, 8, "Nothing to chart.", "", 1, "L", false, 0, "")
		return
	}

	// Wedges are sized by magnitude; the legend keeps the sign.
	start := 140.0
	p.SetDrawColor(255, 255, 255)
	p.SetLineWidth(0.4)
	for i, s := range slices {
		sweep := 360 * s.Total.Abs().Div(total).InexactFloat64()
		if sweep <= 0 {
			continue
		}
		p.fill(palette[i%len(palette)])
		p.Polygon(wedge(cx, cy, radius, start, start+sweep), "FD")
		start += sweep
	}

	// Legend to the right of the pie.
	lx := cx + radius + 10
	ly := cy - radius
	p.SetFont(fontFamily, "", 9)
	p.SetTextColor(0, 0, 0)
	legendW := p.contentWidth() - (lx - left) - 6
	for i, s := range slices {
		p.fill(palette[i%len(palette)])
		p.Rect(lx, ly+1, 4, 4, "F")
		pct := s.Total.Abs().Div(total).Mul(decimal.NewFromInt(100))
		label := fmt.Sprintf("%s  %s (%s%%)", p.tr(s.Description), s.Total.StringFixed(2), pct.StringFixed(1))
		p.SetXY(lx+6, ly)
		p.CellFormat(legendW, 6, p.fit(label, legendW), "", 0, "L", false, 0, "")
		ly += 6.5
	}

	bottom := math.Max(cy+radius, ly) + 8
	p.SetLineWidth(0.2)
	p.SetXY(left, bottom)
}

// wedge approximates a pie slice from angle a0 to a1 (degrees,
// counter-clockwise from 3 o'clock) with a polygon.
func wedge(cx, cy, r, a0, a1 float64) []fpdf.PointType {
	points := []fpdf.PointType{{X: cx, Y: cy}}
	steps := int(math.Ceil((a1-a0)/2)) + 1
	for i := 0; i <= steps; i++ {
		a := (a0 + (a1-a0)*float64(i)/float64(steps)) * math.Pi / 180
		points = append(points, fpdf.PointType{X: cx + r*math.Cos(a), Y: cy - r*math.Sin(a)})
	}
	return points
}

func (p *page) line(points []derive.Point) {
	if len(points) == 0 {
		p.SetFont(fontFamily, "I", 10)
		p.CellFormat(0, 8, "Nothing to chart.", "", 1, "L", false, 0, "")
		return
	}

	left, _, _, _ := p.GetMargins()
	const axisLabelW = 22.0
	x0 := left + axisLabelW
	w := p.contentWidth() - axisLabelW
	h := 70.0
	_, pageH := p.GetPageSize()
	if p.GetY()+h+12 > pageH-margin {
		p.AddPage()
	}
	y0 := p.GetY() + 2

	lo, hi := points[0].Balance.InexactFloat64(), points[0].Balance.InexactFloat64()
	for _, pt := range points {
		b := pt.Balance.InexactFloat64()
		lo = math.Min(lo, b)
		hi = math.Max(hi, b)
	}
	if hi == lo {
		hi, lo = hi+1, lo-1
	}
	first, last := points[0].Date, points[len(points)-1].Date
	span := last.Sub(first).Hours()

	xAt := func(d time.Time) float64 {
		if span == 0 {
			return x0 + w/2
		}
		return x0 + w*d.Sub(first).Hours()/span
	}
	yAt := func(b float64) float64 {
		return y0 + h - h*(b-lo)/(hi-lo)
	}

	// Grid and balance labels.
	p.SetFont(fontFamily, "", 8)
	p.SetTextColor(80, 80, 80)
	p.draw(gridColor)
	p.SetLineWidth(0.1)
	const ticks = 4
	for i := 0; i <= ticks; i++ {
		v := lo + (hi-lo)*float64(i)/ticks
		y := yAt(v)
		p.Line(x0, y, x0+w, y)
		p.SetXY(left, y-2)
		p.CellFormat(axisLabelW-2, 4, fmt.Sprintf("%.2f", v), "", 0, "R", false, 0, "")
	}
	p.SetDrawColor(0, 0, 0)
	p.Rect(x0, y0, w, h, "D")

	// Balance polyline with markers.
	p.draw(lineColor)
	p.fill(lineColor)
	p.SetLineWidth(0.5)
	var px, py float64
	for i, pt := range points {
		x, y := xAt(pt.Date), yAt(pt.Balance.InexactFloat64())
		if i > 0 {
			p.Line(px, py, x, y)
		}
		p.Circle(x, y, 0.8, "F")
		px, py = x, y
	}
	p.SetLineWidth(0.2)

	// Date labels under the axis.
	p.SetXY(x0, y0+h+1)
	p.CellFormat(w/2, 5, first.Format(model.DateLayout), "", 0, "L", false, 0, "")
	p.CellFormat(w/2, 5, last.Format(model.DateLayout), "", 1, "R", false, 0, "")
	p.SetDrawColor(0, 0, 0)
	p.SetTextColor(0, 0, 0)
}
