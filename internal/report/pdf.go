package report

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 8.0
	pdfLineH     = 4.0
	pdfHeaderH   = 6.0
	pdfMinRowH   = 6.0
	pdfImageRowH = 12.0
	pdfFooterH   = 12.0
	pdfSigBoxW   = 62.0
	pdfSigBoxH   = 26.0
	pdfFontSize  = 7.5
)

// RenderStats reports what a renderer produced.
type RenderStats struct {
	Pages             int
	SignatureFailures int
}

type pdfRenderer struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	sigs    *SignatureSet
	images  map[string]string
	stats   RenderStats
	cur     *Page
	pageW   float64
	pageH   float64
	usableW float64
	bottom  float64
}

// RenderPDF draws pages as landscape A4. Each logical page starts a new
// sheet; long tables continue on further sheets with the header repeated.
func RenderPDF(w io.Writer, pages []Page, sigs *SignatureSet) (RenderStats, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AliasNbPages("{nb}")

	r := &pdfRenderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		sigs:   sigs,
		images: map[string]string{},
	}
	r.pageW, r.pageH = pdf.GetPageSize()
	r.usableW = r.pageW - 2*pdfMargin
	r.bottom = r.pageH - pdfMargin - pdfFooterH

	pdf.SetFooterFunc(func() {
		cur := r.cur
		if cur == nil {
			return
		}
		pdf.SetY(r.pageH - pdfMargin - pdfFooterH + 2)
		pdf.SetFont("Helvetica", "", 6.5)
		if cur.Legend != "" {
			pdf.CellFormat(r.usableW, 4, r.tr(cur.Legend), "", 1, "L", false, 0, "")
		}
		pdf.CellFormat(r.usableW/2, 4, r.tr(cur.Footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(r.usableW/2, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	for i := range pages {
		r.page(&pages[i])
	}
	r.stats.Pages = pdf.PageNo()
	if err := pdf.Output(w); err != nil {
		return r.stats, fmt.Errorf("render pdf: %w", err)
	}
	return r.stats, nil
}

func (r *pdfRenderer) page(p *Page) {
	widths := scaleWidths(p.Widths, r.usableW)
	r.newSheet(p, widths)

	for i, line := range p.Body {
		h := r.rowHeight(p, i, line, widths)
		if r.pdf.GetY()+h > r.bottom {
			r.newSheet(p, widths)
		}
		r.row(p, i, line, widths, h)
	}
	if len(p.Signatures) > 0 {
		r.signatureBoxes(p)
	}
}

func (r *pdfRenderer) newSheet(p *Page, widths []float64) {
	pdf := r.pdf
	pdf.AddPage()
	r.cur = p

	if p.Company != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(r.usableW, 6, r.tr(p.Company), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(r.usableW, 6, r.tr(p.Title), "", 1, "C", false, 0, "")
	if p.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(r.usableW, 4.5, r.tr(p.Subtitle), "", 1, "C", false, 0, "")
	}
	if len(p.Meta) > 0 {
		parts := make([]string, 0, len(p.Meta))
		for _, kv := range p.Meta {
			parts = append(parts, kv.Key+": "+kv.Value)
		}
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(r.usableW, 4.5, r.tr(strings.Join(parts, "    ")), "", "L", false)
	}
	pdf.Ln(1.5)
	r.header(p, widths)
}

// header draws the spanning header grid. A cell with RowSpan 2 in the first
// row occupies its column in the second row too.
func (r *pdfRenderer) header(p *Page, widths []float64) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "B", pdfFontSize)
	pdf.SetFillColor(225, 225, 225)
	x0, y0 := pdf.GetX(), pdf.GetY()
	ncols := len(widths)
	taken := make([][]bool, len(p.Header))
	for i := range taken {
		taken[i] = make([]bool, ncols)
	}
	for ri, row := range p.Header {
		col := 0
		for _, cell := range row {
			for col < ncols && taken[ri][col] {
				col++
			}
			if col >= ncols {
				break
			}
			span := max(1, cell.ColSpan)
			rspan := max(1, cell.RowSpan)
			w := 0.0
			for c := col; c < col+span && c < ncols; c++ {
				w += widths[c]
				for rr := ri; rr < ri+rspan && rr < len(taken); rr++ {
					taken[rr][c] = true
				}
			}
			x := x0 + sum(widths[:col])
			y := y0 + float64(ri)*pdfHeaderH
			h := float64(rspan) * pdfHeaderH
			pdf.Rect(x, y, w, h, "FD")
			r.centeredText(x, y, w, h, cell.Text)
			col += span
		}
	}
	pdf.SetXY(x0, y0+float64(len(p.Header))*pdfHeaderH)
}

func (r *pdfRenderer) centeredText(x, y, w, h float64, text string) {
	lines := r.pdf.SplitText(r.tr(text), w-1)
	th := float64(len(lines)) * pdfLineH * 0.8
	r.pdf.SetXY(x, y+(h-th)/2)
	r.pdf.MultiCell(w, pdfLineH*0.8, r.tr(text), "", "C", false)
}

func (r *pdfRenderer) rowHeight(p *Page, ri int, line []string, widths []float64) float64 {
	if p.Kind == PageEmpty {
		return 14
	}
	r.pdf.SetFont("Helvetica", "", pdfFontSize)
	h := pdfMinRowH
	for c, text := range line {
		if c >= len(widths) {
			break
		}
		if _, ok := p.Images[CellRef{Row: ri, Col: c}]; ok && h < pdfImageRowH {
			h = pdfImageRowH
		}
		n := len(r.pdf.SplitText(r.tr(text), widths[c]-1))
		if hh := float64(n)*pdfLineH + 1; hh > h {
			h = hh
		}
	}
	return h
}

func (r *pdfRenderer) row(p *Page, ri int, line []string, widths []float64, h float64) {
	pdf := r.pdf
	style := ""
	if p.BoldRows[ri] {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, pdfFontSize)
	x0, y := pdf.GetX(), pdf.GetY()
	if p.Kind == PageEmpty {
		pdf.Rect(x0, y, r.usableW, h, "D")
		pdf.SetXY(x0, y+h/2-2)
		pdf.CellFormat(r.usableW, 4, r.tr(line[0]), "", 0, "C", false, 0, "")
		pdf.SetXY(x0, y+h)
		return
	}
	x := x0
	for c, w := range widths {
		pdf.Rect(x, y, w, h, "D")
		if uri, ok := p.Images[CellRef{Row: ri, Col: c}]; ok {
			r.image(uri, x, y, w, h)
		} else if c < len(line) && line[c] != "" {
			pdf.SetXY(x, y+0.5)
			pdf.MultiCell(w, pdfLineH, r.tr(line[c]), "", "C", false)
		}
		x += w
	}
	pdf.SetXY(x0, y+h)
}

// image fits a signature inside a box, or writes a placeholder when it did
// not decode.
func (r *pdfRenderer) image(uri string, x, y, w, h float64) {
	pdf := r.pdf
	raw, ok := r.sigs.Get(uri)
	if !ok {
		r.stats.SignatureFailures++
		pdf.SetXY(x, y+h/2-2)
		pdf.SetFont("Helvetica", "I", 6.5)
		pdf.CellFormat(w, 4, "Invalid Sig", "", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", pdfFontSize)
		return
	}
	name, ok := r.images[uri]
	if !ok {
		digest := sha1.Sum([]byte(uri))
		name = "sig-" + hex.EncodeToString(digest[:8])
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(raw))
		r.images[uri] = name
	}
	info := pdf.GetImageInfo(name)
	if info == nil {
		r.stats.SignatureFailures++
		return
	}
	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 {
		return
	}
	bw, bh := w-2, h-2
	scale := bw / iw
	if s := bh / ih; s < scale {
		scale = s
	}
	dw, dh := iw*scale, ih*scale
	pdf.ImageOptions(name, x+(w-dw)/2, y+(h-dh)/2, dw, dh, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

func (r *pdfRenderer) signatureBoxes(p *Page) {
	pdf := r.pdf
	perRow := int(r.usableW / (pdfSigBoxW + 4))
	if perRow < 1 {
		perRow = 1
	}
	pdf.Ln(4)
	for i, sb := range p.Signatures {
		if i%perRow == 0 {
			if i > 0 {
				pdf.SetY(pdf.GetY() + pdfSigBoxH + 8)
			}
			if pdf.GetY()+pdfSigBoxH+8 > r.bottom {
				pdf.AddPage()
			}
		}
		x := pdfMargin + float64(i%perRow)*(pdfSigBoxW+4)
		y := pdf.GetY()
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetXY(x, y)
		pdf.CellFormat(pdfSigBoxW, 4, r.tr(sb.Label), "", 0, "L", false, 0, "")
		pdf.Rect(x, y+4, pdfSigBoxW, pdfSigBoxH-4, "D")
		if sb.Image != "" {
			r.image(sb.Image, x, y+4, pdfSigBoxW, pdfSigBoxH-8)
		}
		if sb.Name != "" {
			pdf.SetFont("Helvetica", "", 6.5)
			pdf.SetXY(x, y+pdfSigBoxH-4)
			pdf.CellFormat(pdfSigBoxW, 4, r.tr(sb.Name), "", 0, "C", false, 0, "")
		}
		pdf.SetXY(x, y)
	}
	pdf.SetY(pdf.GetY() + pdfSigBoxH + 4)
}

// scaleWidths stretches relative widths to fill total.
func scaleWidths(ws []float64, total float64) []float64 {
	s := sum(ws)
	out := make([]float64, len(ws))
	if s <= 0 {
		for i := range out {
			out[i] = total / float64(max(1, len(ws)))
		}
		return out
	}
	for i, w := range ws {
		out[i] = w / s * total
	}
	return out
}

func sum(ws []float64) float64 {
	t := 0.0
	for _, w := range ws {
		t += w
	}
	return t
}
