package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	marginSide   = 20.0 // mm
	marginTop    = 18.0 // mm
	marginBottom = 18.0 // mm
	footerOffset = 12.0 // mm from the bottom edge
	footerSize   = 9.0  // pt

	ptToMM = 25.4 / 72

	// maxFontRune is the last code point fpdf keeps widths for; UTF-8 fonts
	// only cover the Basic Multilingual Plane.
	maxFontRune = 0xFFFF
	ellipsis    = "…"
)

// documentDate is stamped into every PDF so identical input gives identical bytes.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type blockStyle struct {
	size        float64 // font size, pt
	leading     float64 // line height, pt
	spaceBefore float64 // pt
	spaceAfter  float64 // pt
	indent      float64 // pt
	bold        bool
	gray        int
}

var styles = map[BlockKind]blockStyle{
	KindHeading:  {size: 16, leading: 20, spaceBefore: 6, spaceAfter: 8, bold: true},
	KindSection:  {size: 13, leading: 16, spaceBefore: 10, spaceAfter: 6, bold: true},
	KindQuestion: {size: 10.5, leading: 14, spaceBefore: 6, spaceAfter: 2, bold: true, gray: 0x33},
	KindAnswer:   {size: 11, leading: 15, spaceAfter: 6, indent: 6},
}

// Renderer lays out stories onto A4 pages
type Renderer struct {
	fonts   FontSet
	creator string
}

// NewRenderer creates a renderer using the given font family
func NewRenderer(fonts FontSet, creator string) *Renderer {
	return &Renderer{fonts: fonts, creator: creator}
}

// Render writes story as a PDF to w and returns the page count
func (r *Renderer) Render(story Story, w io.Writer) (int, error) {
	pdf := r.newDocument(story.Title)

	pdf.AddPage()
	for _, b := range story.Blocks {
		if b.Kind == KindRule {
			r.drawRule(pdf)
			continue
		}
		r.drawText(pdf, b)
		if pdf.Err() {
			return 0, fmt.Errorf("failed to lay out %s block: %w", b.Kind, pdf.Error())
		}
	}

	pages := pdf.PageNo()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("failed to write PDF: %w", err)
	}
	return pages, nil
}

// RenderBytes renders story into memory
func (r *Renderer) RenderBytes(story Story) ([]byte, int, error) {
	var buf bytes.Buffer
	pages, err := r.Render(story, &buf)
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), pages, nil
}

// RenderFile renders story to path. The file is only written once the
// whole document has been laid out, so a failed render leaves no partial file.
func (r *Renderer) RenderFile(story Story, path string) (int, error) {
	data, pages, err := r.RenderBytes(story)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return pages, nil
}

func (r *Renderer) newDocument(title string) *fpdf.Fpdf {
	title = normalizeText(title)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, true)
	if r.creator != "" {
		pdf.SetCreator(r.creator, true)
	}

	pdf.AddUTF8FontFromBytes(r.fonts.Family, "", r.fonts.Regular)
	pdf.AddUTF8FontFromBytes(r.fonts.Family, "B", r.fonts.Bold)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerOffset)
		pdf.SetFont(r.fonts.Family, "", footerSize)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, footerSize*ptToMM, footerText(pdf, title, pdf.PageNo()),
			"", 0, "R", false, 0, "")
	})
	return pdf
}

func (r *Renderer) drawText(pdf *fpdf.Fpdf, b Block) {
	st := styles[b.Kind]

	fontStyle := ""
	if st.bold {
		fontStyle = "B"
	}
	pdf.SetFont(r.fonts.Family, fontStyle, st.size)
	pdf.SetTextColor(st.gray, st.gray, st.gray)

	if st.spaceBefore > 0 {
		pdf.Ln(st.spaceBefore * ptToMM)
	}

	left, _, _, _ := pdf.GetMargins()
	pdf.SetX(left + st.indent*ptToMM)
	pdf.MultiCell(0, st.leading*ptToMM, normalizeText(b.Text), "", "L", false)

	if st.spaceAfter > 0 {
		pdf.Ln(st.spaceAfter * ptToMM)
	}
}

func (r *Renderer) drawRule(pdf *fpdf.Fpdf) {
	left, _, right, _ := pdf.GetMargins()
	width, _ := pdf.GetPageSize()
	y := pdf.GetY() + 1

	pdf.SetDrawColor(0x88, 0x88, 0x88)
	pdf.SetLineWidth(0.8 * ptToMM)
	pdf.Line(left, y, width-right, y)
	pdf.Ln(6 * ptToMM)
}

// footerText returns "<title>  —  Page n", shortening title so the line
// fits between the margins.
func footerText(pdf *fpdf.Fpdf, title string, page int) string {
	suffix := fmt.Sprintf("  —  Page %d", page)
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	avail := pageWidth - left - right

	title = strings.Join(strings.Fields(title), " ")
	if pdf.GetStringWidth(title+suffix) <= avail {
		return title + suffix
	}
	for title != "" {
		_, size := utf8.DecodeLastRuneInString(title)
		title = strings.TrimRight(title[:len(title)-size], " ")
		if pdf.GetStringWidth(title+ellipsis+suffix) <= avail {
			break
		}
	}
	return title + ellipsis + suffix
}

// fontRange replaces code points the embedded fonts cannot address, and
// invalid UTF-8, with U+FFFD.
var fontRange = runes.Map(func(r rune) rune {
	if r > maxFontRune {
		return unicode.ReplacementChar
	}
	return r
})

// normalizeText trims the cell, normalizes line endings and keeps every
// rune within the font's range; MultiCell breaks on \n itself.
func normalizeText(s string) string {
	if mapped, _, err := transform.String(fontRange, s); err == nil {
		s = mapped
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")
	return strings.TrimSpace(s)
}
