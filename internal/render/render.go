// Package render rasterizes slides into fixed-size JPEG images.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/dgallion1/lessondeck/internal/deck"
)

var ErrNotMounted = errors.New("no slide mounted")

// CaptureError wraps any failure to rasterize a slide.
type CaptureError struct {
	Index int
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture slide %d: %v", e.Index, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Options fixes the logical viewport, device scaling and JPEG quality.
type Options struct {
	Width      int
	Height     int
	PixelRatio float64
	Quality    int
}

// DefaultOptions matches the 1200x675 slide viewport captured at 2x, quality 100.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 675, PixelRatio: 2, Quality: 100}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = d.PixelRatio
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	return o
}

// Position is the slide's place in its deck, used for the counter.
type Position struct {
	Index int
	Total int
}

// Image is an immutable captured raster.
type Image struct {
	Index  int    `json:"index"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	JPEG   []byte `json:"-"`
}

// Renderer draws slides. Rendering is synchronous: when Capture returns the
// raster is complete, so callers need no paint-timing waits.
type Renderer struct {
	mu    sync.Mutex
	opts  Options
	fonts *fontSet
}

func NewRenderer(opts Options) (*Renderer, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{opts: opts.withDefaults(), fonts: fonts}, nil
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Capture renders s and encodes it as JPEG.
func (r *Renderer) Capture(ctx context.Context, s deck.DeckSlide, pos Position) (img Image, err error) {
	if err := ctx.Err(); err != nil {
		return Image{}, &CaptureError{Index: pos.Index, Err: err}
	}
	if pos.Total <= 0 || pos.Index < 0 || pos.Index >= pos.Total {
		return Image{}, &CaptureError{Index: pos.Index, Err: ErrNotMounted}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = &CaptureError{Index: pos.Index, Err: fmt.Errorf("rasterizer panic: %v", p)}
		}
	}()

	raster := r.draw(s, pos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, raster, &jpeg.Options{Quality: r.opts.Quality}); err != nil {
		return Image{}, &CaptureError{Index: pos.Index, Err: fmt.Errorf("encode jpeg: %w", err)}
	}
	b := raster.Bounds()
	return Image{Index: pos.Index, Width: b.Dx(), Height: b.Dy(), JPEG: buf.Bytes()}, nil
}

type palette struct {
	background, text, muted, accent, panel, panelText string
}

var (
	lightPalette = palette{background: "#ffffff", text: "#111827", muted: "#6b7280", accent: "#2563eb", panel: "#f3f4f6", panelText: "#111827"}
	darkPalette  = palette{background: "#0f172a", text: "#f8fafc", muted: "#94a3b8", accent: "#38bdf8", panel: "#1e293b", panelText: "#e2e8f0"}
	codePanel    = "#1f2937"
	codeText     = "#e5e7eb"
)

// canvas wraps a gg context with logical-to-device scaling. gg does not scale
// glyphs through its transform, so every coordinate and size is scaled here.
type canvas struct {
	dc    *gg.Context
	fonts *fontSet
	k     float64
	w, h  float64 // logical size
}

func (c *canvas) px(v float64) float64 { return v * c.k }

func (c *canvas) face(st Style, size float64) font.Face { return c.fonts.face(st, c.px(size)) }

func (c *canvas) measurer(size float64) func(string, Style) float64 {
	return func(s string, st Style) float64 { return measure(c.face(st, size), s) / c.k }
}

func (c *canvas) rect(x, y, w, h, radius float64, hex string) {
	c.dc.SetHexColor(hex)
	c.dc.DrawRoundedRectangle(c.px(x), c.px(y), c.px(w), c.px(h), c.px(radius))
	c.dc.Fill()
}

// text draws a single unwrapped string with its baseline at y.
func (c *canvas) text(s string, st Style, size, x, y float64, hex string) {
	c.dc.SetHexColor(hex)
	c.dc.SetFontFace(c.face(st, size))
	c.dc.DrawString(s, c.px(x), c.px(y))
}

type align int

const (
	alignLeft align = iota
	alignCenter
)

// paragraph wraps styled runs inside width starting at top y and returns the
// y below the last line. Lines beyond maxY are dropped.
func (c *canvas) paragraph(runs []Run, size, x, y, width, maxY float64, al align, hex string) float64 {
	m := c.measurer(size)
	lineH := size * 1.35
	c.dc.SetHexColor(hex)
	for _, ln := range wrapRuns(runs, width, m) {
		if y+lineH > maxY {
			break
		}
		lx := x
		if al == alignCenter {
			lx = x + (width-lineWidth(ln, m))/2
		}
		baseline := y + size
		for _, run := range ln {
			c.dc.SetFontFace(c.face(run.Style, size))
			c.dc.DrawString(run.Text, c.px(lx), c.px(baseline))
			lx += m(run.Text, run.Style)
		}
		y += lineH
	}
	return y
}

func (r *Renderer) draw(s deck.DeckSlide, pos Position) image.Image {
	o := r.opts
	k := o.PixelRatio
	dc := gg.NewContext(int(float64(o.Width)*k), int(float64(o.Height)*k))
	c := &canvas{dc: dc, fonts: r.fonts, k: k, w: float64(o.Width), h: float64(o.Height)}

	slide := s.Slide
	switch slide.Type {
	case deck.KindTitle, deck.KindClosing:
		drawCover(c, s, pos)
	case deck.KindFeature, deck.KindCode, deck.KindMath, deck.KindMermaid:
		drawBody(c, s, pos)
	default:
		// Unknown kinds render nothing.
		dc.SetHexColor(lightPalette.background)
		dc.Clear()
	}
	return dc.Image()
}

const margin = 64.0

func drawCover(c *canvas, s deck.DeckSlide, pos Position) {
	p := darkPalette
	c.dc.SetHexColor(p.background)
	c.dc.Clear()
	c.rect(0, c.h-12, c.w, 12, 0, p.accent)

	width := c.w - 2*margin
	y := c.h * 0.24
	if s.Slide.Type == deck.KindClosing {
		y = c.h * 0.30
	}
	y = c.paragraph(ParseInline(s.Slide.Title), 64, margin, y, width, c.h-80, alignCenter, p.text)
	if s.Slide.Subtitle != "" {
		y = c.paragraph(ParseInline(s.Slide.Subtitle), 30, margin, y+8, width, c.h-80, alignCenter, p.accent)
	}
	y += 24
	for _, ln := range s.Slide.Content.Lines() {
		y = c.paragraph(ParseInline(ln), 28, margin, y, width, c.h-80, alignCenter, p.muted)
	}
	drawFooter(c, pos, p)
}

func drawBody(c *canvas, s deck.DeckSlide, pos Position) {
	p := lightPalette
	c.dc.SetHexColor(p.background)
	c.dc.Clear()
	c.rect(0, 0, 12, c.h, 0, p.accent)

	width := c.w - 2*margin
	maxY := c.h - 72

	c.text(s.LessonTitle, 0, 18, margin, 44, p.muted)
	y := c.paragraph(ParseInline(s.Slide.Title), 44, margin, 64, width, maxY, alignLeft, p.text)
	if s.Slide.Subtitle != "" {
		y = c.paragraph(ParseInline(s.Slide.Subtitle), 24, margin, y, width, maxY, alignLeft, p.muted)
	}
	y += 16

	switch s.Slide.Type {
	case deck.KindFeature:
		if s.Slide.Description != "" {
			y = c.paragraph(ParseInline(s.Slide.Description), 24, margin, y, width, maxY, alignLeft, p.muted) + 8
		}
		drawContent(c, s.Slide.Content, y, width, maxY, p)
	case deck.KindCode:
		drawCode(c, s.Slide, y, width, maxY)
	case deck.KindMath:
		drawMath(c, s.Slide, y, width, maxY, p)
	case deck.KindMermaid:
		drawDiagram(c, s.Slide, y, width, maxY, p)
	}
	drawFooter(c, pos, p)
}

func drawContent(c *canvas, content *deck.Content, y, width, maxY float64, p palette) float64 {
	if content == nil {
		return y
	}
	if !content.List {
		return c.paragraph(ParseInline(content.Text), 26, margin, y, width, maxY, alignLeft, p.text)
	}
	for _, item := range content.Items {
		if y+26*1.35 > maxY {
			break
		}
		c.rect(margin+4, y+12, 10, 10, 5, p.accent)
		y = c.paragraph(ParseInline(item), 26, margin+28, y, width-28, maxY, alignLeft, p.text) + 6
	}
	return y
}

func drawCode(c *canvas, s deck.Slide, y, width, maxY float64) {
	const size = 20.0
	lineH := size * 1.4
	c.rect(margin, y, width, maxY-y, 12, codePanel)
	if s.Language != "" {
		c.text(s.Language, StyleBold, 14, margin+width-16-measure(c.face(StyleBold, 14), s.Language)/c.k, y+24, lightPalette.muted)
	}
	ty := y + 24
	maxW := width - 48
	face := c.face(StyleCode, size)
	for _, ln := range strings.Split(strings.ReplaceAll(s.Code, "\t", "    "), "\n") {
		if ty+lineH > maxY-12 {
			break
		}
		ln = clip(face, ln, maxW*c.k)
		c.text(ln, StyleCode, size, margin+24, ty+size, codeText)
		ty += lineH
	}
}

func drawMath(c *canvas, s deck.Slide, y, width, maxY float64, p palette) {
	if s.Content != nil && !s.Content.List && s.Content.Text != "" {
		y = c.paragraph(ParseInline(s.Content.Text), 24, margin, y, width, maxY, alignLeft, p.muted) + 8
	}
	for _, item := range s.Math {
		if y+96 > maxY {
			break
		}
		c.rect(margin, y, width, 88, 10, p.panel)
		c.text(item.Label, StyleBold, 20, margin+20, y+30, p.accent)
		c.paragraph([]Run{{Text: item.Formula, Style: StyleCode}}, 24, margin+20, y+40, width-40, y+88, alignLeft, p.panelText)
		y += 100
	}
}

func drawDiagram(c *canvas, s deck.Slide, y, width, maxY float64, p palette) {
	c.rect(margin, y, width, maxY-y, 12, p.panel)
	caption := "diagram"
	if s.DiagramType != "" {
		caption = s.DiagramType
	}
	c.text(caption, StyleBold, 14, margin+20, y+26, p.muted)
	const size = 18.0
	lineH := size * 1.4
	ty := y + 40
	face := c.face(StyleCode, size)
	for _, ln := range strings.Split(s.Diagram, "\n") {
		if ty+lineH > maxY-12 {
			break
		}
		ln = strings.TrimRight(ln, " \t")
		ln = clip(face, ln, (width-40)*c.k)
		c.text(ln, StyleCode, size, margin+20, ty+size, p.panelText)
		ty += lineH
	}
}

// clip cuts s to fit within limit device pixels.
func clip(f font.Face, s string, limit float64) string {
	r := []rune(s)
	for len(r) > 0 && measure(f, string(r)) > limit {
		r = r[:len(r)-1]
	}
	return string(r)
}

func drawFooter(c *canvas, pos Position, p palette) {
	counter := deck.Counter(pos.Index, pos.Total)
	f := c.face(0, 16)
	c.text(counter, 0, 16, c.w-margin-measure(f, counter)/c.k, c.h-32, p.muted)
}
