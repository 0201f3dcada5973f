package report

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Page margins in points.
const (
	MarginTop    = 20.0
	MarginBottom = 20.0
	MarginSide   = 12.0
)

// PDF is a Canvas backed by fpdf, Letter pages in points.
type PDF struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

var _ Canvas = (*PDF)(nil)

// NewPDF returns an empty document. Page breaks are driven by the builder.
func NewPDF() *PDF {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(MarginSide, MarginTop, MarginSide)
	pdf.SetAutoPageBreak(false, MarginBottom)
	pdf.SetFont("Helvetica", "", 12)
	return &PDF{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *PDF) PageSize() (float64, float64) {
	w, h := c.pdf.GetPageSize()
	return w, h
}

func (c *PDF) AddPage() { c.pdf.AddPage() }

func (c *PDF) FillRect(x, y, w, h float64, col Color) {
	c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
	c.pdf.Rect(x, y, w, h, "F")
}

func (c *PDF) SetFont(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	c.pdf.SetFont("Helvetica", style, size)
}

func (c *PDF) SetTextColor(col Color) {
	c.pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
}

// SplitText wraps UTF-8 text on word boundaries. Widths are measured on the
// cp1252 rendering so runes outside the core font cost a replacement glyph
// instead of indexing past its width table.
func (c *PDF) SplitText(text string, w float64) []string {
	limit := w - 2*c.pdf.GetCellMargin()
	var out []string
	for _, para := range strings.Split(text, "\n") {
		out = append(out, c.wrap(para, limit)...)
	}
	return out
}

func (c *PDF) width(s string) float64 {
	return c.pdf.GetStringWidth(c.tr(s))
}

func (c *PDF) wrap(para string, limit float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if c.width(candidate) <= limit {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = ""
		for _, r := range word {
			if next := line + string(r); line == "" || c.width(next) <= limit {
				line = next
				continue
			}
			lines = append(lines, line)
			line = string(r)
		}
	}
	return append(lines, line)
}

// TextLine expects text already passed through SplitText.
func (c *PDF) TextLine(x, y, w, h float64, text string, align Align) {
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, c.tr(text), "", 0, string(align), false, 0, "")
}

func (c *PDF) Image(path string, x, y, w float64) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("decode image %s: %w", path, err)
	}
	if cfg.Width == 0 {
		return 0, fmt.Errorf("image %s has zero width", path)
	}
	h := w * float64(cfg.Height) / float64(cfg.Width)
	opts := fpdf.ImageOptions{ImageType: format}
	c.pdf.ImageOptions(path, x, y, w, h, false, opts, 0, "")
	if err := c.pdf.Error(); err != nil {
		return 0, fmt.Errorf("draw image %s: %w", path, err)
	}
	return h, nil
}

func (c *PDF) Output(w io.Writer) error {
	return c.pdf.Output(w)
}
