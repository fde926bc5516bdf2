package dsl

import (
	"fmt"
	"strings"

	"agd-render/internal/geom"
)

// Validate checks every semantic rule an envelope must satisfy before it can
// be rasterized and returns the first violation. It never mutates env.
func Validate(env *RenderEnvelope) error {
	if env == nil {
		return &ValidationError{Index: -1, Msg: "envelope is required"}
	}
	if env.Version != Version {
		return &ValidationError{Index: -1, Msg: fmt.Sprintf("unsupported version %q", env.Version)}
	}
	if env.Type != TypeRender {
		return &ValidationError{Index: -1, Msg: fmt.Sprintf("unsupported type %q", env.Type)}
	}
	if env.Window.Width == 0 {
		return &ValidationError{Index: -1, Msg: "window.width must be positive"}
	}
	if env.Window.Height == 0 {
		return &ValidationError{Index: -1, Msg: "window.height must be positive"}
	}
	if strings.TrimSpace(env.Window.Title) == "" {
		return &ValidationError{Index: -1, Msg: "window.title must not be empty"}
	}
	if len(env.Commands) == 0 {
		return &ValidationError{Index: -1, Msg: "commands must not be empty"}
	}

	v := &validator{ids: make(map[string]struct{})}
	for i, c := range env.Commands {
		v.index = i
		if c == nil {
			return v.fail("command must not be null")
		}
		if err := c.Accept(v); err != nil {
			return err
		}
	}
	if !v.hasClear {
		return &ValidationError{Index: -1, Msg: "commands must include clear"}
	}
	return nil
}

type validator struct {
	index    int
	hasClear bool
	ids      map[string]struct{}
}

func (v *validator) fail(format string, args ...any) error {
	return &ValidationError{Index: v.index, Msg: fmt.Sprintf(format, args...)}
}

func (v *validator) required(field string, p *int32) error {
	if p == nil {
		return v.fail("%s is required", field)
	}
	return nil
}

func (v *validator) positive(field string, p *int32) error {
	if p == nil {
		return v.fail("%s is required", field)
	}
	if *p <= 0 {
		return v.fail("%s must be positive", field)
	}
	return nil
}

func (v *validator) optionalPositive(field string, p *int32) error {
	if p != nil && *p <= 0 {
		return v.fail("%s must be positive", field)
	}
	return nil
}

func (v *validator) color(field, s string) error {
	if !geom.IsHexColor(s) {
		return v.fail("%s must be #RRGGBB", field)
	}
	return nil
}

func (v *validator) optionalColor(field string, s *string) error {
	if s == nil {
		return nil
	}
	return v.color(field, *s)
}

func (v *validator) id(field string, id *string) error {
	if id == nil {
		return nil
	}
	if strings.TrimSpace(*id) == "" {
		return v.fail("%s must not be empty", field)
	}
	if _, dup := v.ids[*id]; dup {
		return v.fail("duplicate id %q", *id)
	}
	v.ids[*id] = struct{}{}
	return nil
}

// paint validates the fill/stroke pair shared by closed shapes.
func (v *validator) paint(kind string, fill, stroke *string, strokeWidth *int32) error {
	if fill == nil && stroke == nil {
		return v.fail("%s requires fill or stroke", kind)
	}
	if err := v.optionalColor(kind+".fill", fill); err != nil {
		return err
	}
	if err := v.optionalColor(kind+".stroke", stroke); err != nil {
		return err
	}
	return v.optionalPositive(kind+".stroke_width", strokeWidth)
}

// all returns the first non-nil error.
func all(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) VisitClear(c *Clear) error {
	v.hasClear = true
	return v.color("clear.color", c.Color)
}

func (v *validator) VisitRect(c *Rect) error {
	if c.Clickable && c.ID == nil {
		return v.fail("clickable rect requires id")
	}
	return all(
		v.id("rect.id", c.ID),
		v.required("rect.x", c.X),
		v.required("rect.y", c.Y),
		v.positive("rect.w", c.W),
		v.positive("rect.h", c.H),
		v.optionalColor("rect.fill", c.Fill),
		v.optionalColor("rect.stroke", c.Stroke),
		v.optionalPositive("rect.stroke_width", c.StrokeWidth),
	)
}

func (v *validator) VisitText(c *Text) error {
	return all(
		v.required("text.x", c.X),
		v.required("text.y", c.Y),
		v.optionalColor("text.color", c.Color),
		v.optionalColor("text.bg", c.Bg),
		v.optionalPositive("text.size", c.Size),
	)
}

func (v *validator) VisitLine(c *Line) error {
	return all(
		v.required("line.x1", c.X1),
		v.required("line.y1", c.Y1),
		v.required("line.x2", c.X2),
		v.required("line.y2", c.Y2),
		v.optionalColor("line.color", c.Color),
		v.optionalPositive("line.width", c.Width),
	)
}

func (v *validator) VisitCircle(c *Circle) error {
	return all(
		v.required("circle.cx", c.CX),
		v.required("circle.cy", c.CY),
		v.positive("circle.r", c.R),
		v.paint("circle", c.Fill, c.Stroke, c.StrokeWidth),
	)
}

func (v *validator) VisitEllipse(c *Ellipse) error {
	return all(
		v.required("ellipse.cx", c.CX),
		v.required("ellipse.cy", c.CY),
		v.positive("ellipse.rx", c.RX),
		v.positive("ellipse.ry", c.RY),
		v.paint("ellipse", c.Fill, c.Stroke, c.StrokeWidth),
	)
}

func (v *validator) VisitRoundRect(c *RoundRect) error {
	return all(
		v.id("round_rect.id", c.ID),
		v.required("round_rect.x", c.X),
		v.required("round_rect.y", c.Y),
		v.positive("round_rect.w", c.W),
		v.positive("round_rect.h", c.H),
		v.positive("round_rect.r", c.R),
		v.paint("round_rect", c.Fill, c.Stroke, c.StrokeWidth),
	)
}

func (v *validator) VisitArc(c *Arc) error {
	if c.StartDeg == nil {
		return v.fail("arc.start_deg is required")
	}
	if c.EndDeg == nil {
		return v.fail("arc.end_deg is required")
	}
	return all(
		v.required("arc.cx", c.CX),
		v.required("arc.cy", c.CY),
		v.positive("arc.r", c.R),
		v.optionalColor("arc.color", c.Color),
		v.optionalPositive("arc.width", c.Width),
	)
}

func (v *validator) VisitPolyline(c *Polyline) error {
	if len(c.Points) < 2 {
		return v.fail("polyline.points must have at least 2 points")
	}
	return all(
		v.optionalColor("polyline.color", c.Color),
		v.optionalPositive("polyline.width", c.Width),
	)
}

func (v *validator) VisitPolygon(c *Polygon) error {
	if len(c.Points) < 3 {
		return v.fail("polygon.points must have at least 3 points")
	}
	return v.paint("polygon", c.Fill, c.Stroke, c.StrokeWidth)
}

func (v *validator) VisitImage(c *Image) error {
	if c.SrcType != SrcPath && c.SrcType != SrcBase64 {
		return v.fail("image.src_type must be path|base64")
	}
	if strings.TrimSpace(c.Src) == "" {
		return v.fail("image.src must not be empty")
	}
	return all(
		v.required("image.x", c.X),
		v.required("image.y", c.Y),
		v.positive("image.w", c.W),
		v.positive("image.h", c.H),
	)
}

func (v *validator) VisitPath(c *Path) error {
	if len(c.Segments) == 0 {
		return v.fail("path.segments must not be empty")
	}
	hasMove := false
	for i, seg := range c.Segments {
		switch seg.Cmd {
		case SegMove, SegLine:
			if seg.X == nil || seg.Y == nil {
				return v.fail("path.segments[%d] %s requires x and y", i, seg.Cmd)
			}
			if seg.Cmd == SegMove {
				hasMove = true
			}
		case SegClose:
		default:
			return v.fail("path.segments[%d].cmd must be M|L|Z", i)
		}
	}
	if !hasMove {
		return v.fail("path.segments must include M")
	}
	return v.paint("path", c.Fill, c.Stroke, c.StrokeWidth)
}
