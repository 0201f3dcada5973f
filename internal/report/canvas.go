package report

import "io"

// Color is an RGB fill or text color.
type Color struct{ R, G, B uint8 }

// Report palette.
var (
	ColorBackground = Color{0x22, 0x22, 0x22}
	ColorHeading    = Color{0xD3, 0xD3, 0xD3}
	ColorBody       = Color{0xB7, 0xB7, 0xB7}
	ColorStepLabel  = Color{0x8F, 0xBC, 0x8F}
	ColorPassed     = Color{0x00, 0x80, 0x00}
	ColorFailed     = Color{0xFF, 0x00, 0x00}
)

// Align is a horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
)

// Canvas is the drawing surface the builder composes onto. Units are
// points; the origin is the top-left corner of the current page.
type Canvas interface {
	PageSize() (w, h float64)
	AddPage()
	FillRect(x, y, w, h float64, c Color)
	SetFont(bold bool, size float64)
	SetTextColor(c Color)
	// SplitText wraps text into lines no wider than w at the current font.
	SplitText(text string, w float64) []string
	TextLine(x, y, w, h float64, text string, align Align)
	// Image draws the image at path w points wide and returns its height.
	Image(path string, x, y, w float64) (float64, error)
	Output(w io.Writer) error
}
