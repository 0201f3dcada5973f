// Package report composes the per-scenario evidence document: a narrative
// block, one page per step screenshot and a verdict page.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// lineSpacing converts a font size into a line height.
const lineSpacing = 1.2

// Font sizes.
const (
	sizeTitle   = 20.0
	sizeHeading = 14.0
	sizeBody    = 12.0
	sizeLabel   = 10.0
)

// ErrSaved is returned when a builder is used after Save.
var ErrSaved = errors.New("report already saved")

// Layout is the pagination state of a document. Only builder operations
// mutate it.
type Layout struct {
	PageIndex int     // pages created so far
	CursorY   float64 // next write position on the current page
	// BackgroundOnOverflow is armed until the first narrative overflow page
	// receives its background fill. It is never re-armed.
	BackgroundOnOverflow bool
	StepOrdinal          int // number shown on the next step page
}

// Options configure where Save writes.
type Options struct {
	ReportsDir string // project folders are created under it
	ImageDir   string // screenshot cache purged after Save
}

// Builder is a single-writer, append-only document composer.
type Builder struct {
	c      Canvas
	opts   Options
	layout Layout
	pageW  float64
	pageH  float64
	size   float64
	saved  bool
}

// New starts a document on its first page.
func New(c Canvas, opts Options) *Builder {
	b := &Builder{c: c, opts: opts, size: sizeBody}
	b.pageW, b.pageH = c.PageSize()
	c.AddPage()
	b.layout = Layout{
		PageIndex:            1,
		CursorY:              MarginTop,
		BackgroundOnOverflow: true,
		StepOrdinal:          1,
	}
	return b
}

// Layout returns a copy of the pagination state.
func (b *Builder) Layout() Layout { return b.layout }

func (b *Builder) fillBackground() {
	b.c.FillRect(0, 0, b.pageW, b.pageH, ColorBackground)
}

func (b *Builder) font(bold bool, size float64) {
	b.size = size
	b.c.SetFont(bold, size)
}

func (b *Builder) lineHeight() float64 { return b.size * lineSpacing }

func (b *Builder) moveDown(lines float64) {
	b.layout.CursorY += lines * b.lineHeight()
}

// ensureSpace starts a new narrative page when h does not fit. The first
// such page is filled with the background, later ones are not.
func (b *Builder) ensureSpace(h float64, col Color) {
	if b.layout.CursorY+h <= b.pageH-MarginBottom {
		return
	}
	b.c.AddPage()
	b.layout.PageIndex++
	b.layout.CursorY = MarginTop
	if b.layout.PageIndex > 1 && b.layout.BackgroundOnOverflow {
		b.fillBackground()
		b.layout.BackgroundOnOverflow = false
		b.c.SetTextColor(col)
	}
}

func (b *Builder) write(text string, align Align, col Color) {
	width := b.pageW - 2*MarginSide
	lh := b.lineHeight()
	for _, line := range b.c.SplitText(text, width) {
		b.ensureSpace(lh, col)
		b.c.TextLine(MarginSide, b.layout.CursorY, width, lh, line, align)
		b.layout.CursorY += lh
	}
}

// AddHeader paints the first page background and writes the title block.
func (b *Builder) AddHeader(title, project string, at time.Time) {
	b.fillBackground()
	b.c.SetTextColor(ColorHeading)
	b.font(true, sizeTitle)
	b.write(title, AlignCenter, ColorHeading)
	b.moveDown(2)

	b.font(true, sizeHeading)
	b.write("Project: "+project, AlignLeft, ColorHeading)
	b.write("Date: "+strftime.Format("%d/%m/%Y", at), AlignLeft, ColorHeading)
	b.write("Time: "+strftime.Format("%H:%M", at), AlignLeft, ColorHeading)
	b.moveDown(5)
}

func (b *Builder) section(heading, body string) {
	b.c.SetTextColor(ColorHeading)
	b.font(true, sizeHeading)
	b.write(heading, AlignLeft, ColorHeading)
	b.moveDown(1)

	b.c.SetTextColor(ColorBody)
	b.font(true, sizeBody)
	b.write(body, AlignCenter, ColorBody)
	b.moveDown(3)
}

// AddDescription writes the scenario description.
func (b *Builder) AddDescription(text string) {
	b.section("Description", text)
}

// AddPreRequisite writes the scenario prerequisites.
func (b *Builder) AddPreRequisite(text string) {
	b.section("Prerequisites", text)
}

// AddSteps writes the numbered step list, one line per label.
func (b *Builder) AddSteps(labels []string) {
	b.c.SetTextColor(ColorHeading)
	b.font(true, sizeHeading)
	b.write("Executed steps", AlignLeft, ColorHeading)
	b.moveDown(1)

	b.c.SetTextColor(ColorBody)
	b.font(true, sizeBody)
	for _, l := range labels {
		b.write(l, AlignCenter, ColorBody)
		b.moveDown(1)
	}
	b.moveDown(3)
}

// InsertStep adds a step page: ordinal, label and the screenshot at full
// page width. The ordinal advances even when the image cannot be drawn.
func (b *Builder) InsertStep(imagePath, label string) error {
	if b.saved {
		return ErrSaved
	}
	b.c.AddPage()
	b.layout.PageIndex++
	b.layout.CursorY = MarginTop
	b.fillBackground()

	b.c.SetTextColor(ColorHeading)
	b.font(true, sizeHeading)
	b.write(fmt.Sprintf("STEP - %d", b.layout.StepOrdinal), AlignLeft, ColorHeading)
	b.c.SetTextColor(ColorStepLabel)
	b.font(true, sizeLabel)
	b.write(label, AlignLeft, ColorStepLabel)
	b.moveDown(1)
	b.layout.StepOrdinal++

	h, err := b.c.Image(imagePath, 0, b.layout.CursorY, b.pageW)
	if err != nil {
		return fmt.Errorf("insert step %q: %w", label, err)
	}
	b.layout.CursorY += h
	b.moveDown(4)
	return nil
}

// AddFinalStatus adds the verdict page: green PASSED for a nil cause, red
// FAILED plus the cause message otherwise.
func (b *Builder) AddFinalStatus(cause error) {
	b.c.AddPage()
	b.layout.PageIndex++
	b.layout.CursorY = MarginTop
	b.font(true, sizeBody)
	b.moveDown(20)

	b.font(true, sizeTitle)
	if cause == nil {
		b.c.SetTextColor(ColorPassed)
		b.write("PASSED", AlignCenter, ColorPassed)
		return
	}
	b.c.SetTextColor(ColorFailed)
	b.write("FAILED", AlignCenter, ColorFailed)
	if msg := cause.Error(); msg != "" {
		b.font(true, sizeBody)
		b.write(msg, AlignCenter, ColorFailed)
	}
}

// Verdict is the file suffix for a cause.
func Verdict(cause error) string {
	if cause != nil {
		return "FAILED"
	}
	return "PASSED"
}

// Timestamp formats t the way report and screenshot names embed it.
func Timestamp(t time.Time) string {
	return strftime.Format("%Y_%m_%d__%H_%M_%S", t)
}

var nameReplacer = strings.NewReplacer("/", "-", "\\", "-")

// SafeName makes s usable as one segment of a report or screenshot name:
// path separators become "-" and "__" runs, which delimit the segments,
// collapse to "_".
func SafeName(s string) string {
	s = nameReplacer.Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// FileName is the report base name {title}__{project}__{timestamp}, with
// title and project passed through SafeName.
func FileName(title, project string, t time.Time) string {
	return SafeName(title) + "__" + SafeName(project) + "__" + Timestamp(t)
}
