// Package raster turns validated render envelopes into pixel buffers.
package raster

import (
	"fmt"

	"agd-render/internal/dsl"
	"agd-render/internal/geom"
	"agd-render/internal/glyph"
)

// DefaultMaxDimension bounds window width and height.
const DefaultMaxDimension = 8192

type Options struct {
	// TextSize is used by text commands without an explicit size.
	TextSize float64
	// MaxDimension rejects larger windows before allocating.
	MaxDimension int
}

// Renderer rasterizes envelopes with injected fonts and image decoder. It
// keeps no state between frames.
type Renderer struct {
	fonts  glyph.Fonts
	images ImageDecoder
	opts   Options
}

func NewRenderer(fonts glyph.Fonts, images ImageDecoder, opts Options) *Renderer {
	if opts.TextSize <= 0 {
		opts.TextSize = DefaultTextSize
	}
	opts.TextSize = ClampTextSize(opts.TextSize)
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	return &Renderer{fonts: fonts, images: images, opts: opts}
}

// Render draws env onto a fresh white buffer, replaying commands in order.
// env must already have passed dsl.Validate.
func (r *Renderer) Render(env *dsl.RenderEnvelope) (*PixelBuffer, error) {
	w, h := int(env.Window.Width), int(env.Window.Height)
	if w <= 0 || h <= 0 || w > r.opts.MaxDimension || h > r.opts.MaxDimension {
		return nil, &RenderError{Op: "window", Err: fmt.Errorf("%w: %dx%d (max %d)", ErrTooLarge, w, h, r.opts.MaxDimension)}
	}
	p := &painter{r: r, buf: NewPixelBuffer(w, h)}
	for i, c := range env.Commands {
		if err := c.Accept(p); err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
	}
	return p.buf, nil
}

// painter draws each command variant onto buf.
type painter struct {
	r   *Renderer
	buf *PixelBuffer
}

func parseColor(op, s string) (geom.RGB, error) {
	c, err := geom.ParseHex(s)
	if err != nil {
		return geom.RGB{}, &RenderError{Op: op, Err: err}
	}
	return c, nil
}

// optColor parses an optional color; ok is false when it is absent.
func optColor(op string, s *string) (c geom.RGB, ok bool, err error) {
	if s == nil {
		return geom.RGB{}, false, nil
	}
	c, err = parseColor(op, *s)
	return c, err == nil, err
}

// colorOr parses an optional color with a default.
func colorOr(op string, s *string, def geom.RGB) (geom.RGB, error) {
	if s == nil {
		return def, nil
	}
	return parseColor(op, *s)
}

func val(p *int32) int {
	if p == nil {
		return 0
	}
	return int(*p)
}

func width(p *int32) int {
	if p == nil || *p < 1 {
		return 1
	}
	return int(*p)
}

func points(src []dsl.Point) []geom.Point {
	out := make([]geom.Point, len(src))
	for i, p := range src {
		out[i] = geom.Point{X: int(p.X), Y: int(p.Y)}
	}
	return out
}

// paint fills then strokes a closed shape.
func (p *painter) paint(kind string, fill, stroke *string, fillFn func(geom.RGB), strokeFn func(geom.RGB)) error {
	fc, hasFill, err := optColor(kind+".fill", fill)
	if err != nil {
		return err
	}
	sc, hasStroke, err := optColor(kind+".stroke", stroke)
	if err != nil {
		return err
	}
	if hasFill {
		fillFn(fc)
	}
	if hasStroke {
		strokeFn(sc)
	}
	return nil
}

func (p *painter) VisitClear(c *dsl.Clear) error {
	col, err := parseColor("clear.color", c.Color)
	if err != nil {
		return err
	}
	p.buf.Fill(col)
	return nil
}

func (p *painter) VisitRect(c *dsl.Rect) error {
	rect := geom.Rect{X: val(c.X), Y: val(c.Y), W: val(c.W), H: val(c.H)}
	t := width(c.StrokeWidth)
	return p.paint("rect", c.Fill, c.Stroke,
		func(col geom.RGB) { p.buf.FillRect(rect, col) },
		func(col geom.RGB) { p.buf.StrokeRect(rect, t, col) })
}

func (p *painter) VisitText(c *dsl.Text) error {
	fg, err := colorOr("text.color", c.Color, geom.Black)
	if err != nil {
		return err
	}
	bg, hasBg, err := optColor("text.bg", c.Bg)
	if err != nil {
		return err
	}
	size := p.r.opts.TextSize
	if c.Size != nil {
		size = ClampTextSize(float64(*c.Size))
	}
	var bgp *geom.RGB
	if hasBg {
		bgp = &bg
	}
	if err := p.buf.DrawText(p.r.fonts, val(c.X), val(c.Y), c.Text, size, fg, bgp); err != nil {
		return &RenderError{Op: "text", Err: err}
	}
	return nil
}

func (p *painter) VisitLine(c *dsl.Line) error {
	col, err := colorOr("line.color", c.Color, geom.Black)
	if err != nil {
		return err
	}
	p.buf.Line(val(c.X1), val(c.Y1), val(c.X2), val(c.Y2), width(c.Width), col)
	return nil
}

func (p *painter) VisitCircle(c *dsl.Circle) error {
	cx, cy, r := val(c.CX), val(c.CY), val(c.R)
	t := width(c.StrokeWidth)
	return p.paint("circle", c.Fill, c.Stroke,
		func(col geom.RGB) { p.buf.FillEllipse(cx, cy, r, r, col) },
		func(col geom.RGB) { p.buf.StrokeEllipse(cx, cy, r, r, t, col) })
}

func (p *painter) VisitEllipse(c *dsl.Ellipse) error {
	cx, cy, rx, ry := val(c.CX), val(c.CY), val(c.RX), val(c.RY)
	t := width(c.StrokeWidth)
	return p.paint("ellipse", c.Fill, c.Stroke,
		func(col geom.RGB) { p.buf.FillEllipse(cx, cy, rx, ry, col) },
		func(col geom.RGB) { p.buf.StrokeEllipse(cx, cy, rx, ry, t, col) })
}

func (p *painter) VisitRoundRect(c *dsl.RoundRect) error {
	rect := geom.Rect{X: val(c.X), Y: val(c.Y), W: val(c.W), H: val(c.H)}
	radius, t := val(c.R), width(c.StrokeWidth)
	return p.paint("round_rect", c.Fill, c.Stroke,
		func(col geom.RGB) { p.buf.FillRoundRect(rect, radius, col) },
		func(col geom.RGB) { p.buf.StrokeRoundRect(rect, radius, t, col) })
}

func (p *painter) VisitArc(c *dsl.Arc) error {
	col, err := colorOr("arc.color", c.Color, geom.Black)
	if err != nil {
		return err
	}
	var start, end float64
	if c.StartDeg != nil {
		start = *c.StartDeg
	}
	if c.EndDeg != nil {
		end = *c.EndDeg
	}
	p.buf.StrokeArc(val(c.CX), val(c.CY), val(c.R), start, end, width(c.Width), col)
	return nil
}

func (p *painter) VisitPolyline(c *dsl.Polyline) error {
	col, err := colorOr("polyline.color", c.Color, geom.Black)
	if err != nil {
		return err
	}
	p.buf.Polyline(points(c.Points), width(c.Width), false, col)
	return nil
}

func (p *painter) VisitPolygon(c *dsl.Polygon) error {
	pts := points(c.Points)
	t := width(c.StrokeWidth)
	return p.paint("polygon", c.Fill, c.Stroke,
		func(col geom.RGB) { p.buf.FillPolygon(pts, col) },
		func(col geom.RGB) { p.buf.Polyline(pts, t, true, col) })
}

func (p *painter) VisitImage(c *dsl.Image) error {
	if p.r.images == nil {
		return &RenderError{Op: "image", Err: ErrNoDecoder}
	}
	img, err := p.r.images.Decode(c.SrcType, c.Src)
	if err != nil {
		return &RenderError{Op: "image", Err: err}
	}
	p.buf.DrawImage(img, geom.Rect{X: val(c.X), Y: val(c.Y), W: val(c.W), H: val(c.H)})
	return nil
}

func (p *painter) VisitPath(c *dsl.Path) error {
	subpaths := Subpaths(c.Segments)
	t := width(c.StrokeWidth)
	return p.paint("path", c.Fill, c.Stroke,
		func(col geom.RGB) {
			for _, sp := range subpaths {
				if len(sp) >= 3 {
					p.buf.FillPolygon(sp, col)
				}
			}
		},
		func(col geom.RGB) {
			for _, sp := range subpaths {
				if len(sp) >= 2 {
					p.buf.Polyline(sp, t, false, col)
				}
			}
		})
}

// Subpaths splits path segments at each M. Z appends the subpath's first
// point and ends it; a following L starts a new subpath.
func Subpaths(segs []dsl.PathSegment) [][]geom.Point {
	var out [][]geom.Point
	var cur []geom.Point
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, s := range segs {
		switch s.Cmd {
		case dsl.SegMove:
			flush()
			cur = append(cur, geom.Point{X: val(s.X), Y: val(s.Y)})
		case dsl.SegLine:
			cur = append(cur, geom.Point{X: val(s.X), Y: val(s.Y)})
		case dsl.SegClose:
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
			flush()
		}
	}
	flush()
	return out
}
