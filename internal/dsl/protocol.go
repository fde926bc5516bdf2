package dsl

// Protocol constants for the AGD/0.2 render and event envelopes.
const (
	Version    = "AGD/0.2"
	TypeRender = "render"
	TypeEvent  = "event"
	KindClick  = "click"
)

// Kind tags a command variant on the wire ("cmd").
type Kind string

const (
	KindClear     Kind = "clear"
	KindRect      Kind = "rect"
	KindText      Kind = "text"
	KindLine      Kind = "line"
	KindCircle    Kind = "circle"
	KindEllipse   Kind = "ellipse"
	KindRoundRect Kind = "round_rect"
	KindArc       Kind = "arc"
	KindPolyline  Kind = "polyline"
	KindPolygon   Kind = "polygon"
	KindImage     Kind = "image"
	KindPath      Kind = "path"
)

// Kinds lists every command kind in protocol order.
var Kinds = []Kind{
	KindClear, KindRect, KindText, KindLine, KindCircle, KindEllipse,
	KindRoundRect, KindArc, KindPolyline, KindPolygon, KindImage, KindPath,
}

// RenderEnvelope describes one full frame. Commands are in z-order: later
// commands draw over earlier ones.
type RenderEnvelope struct {
	Version  string     `json:"version"`
	Type     string     `json:"type"`
	Seq      uint64     `json:"seq"`
	Window   WindowSpec `json:"window"`
	Commands []Command  `json:"commands"`
}

type WindowSpec struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Title  string `json:"title"`
}

// Command is one drawing instruction. The set of implementations is closed:
// every variant dispatches through Visitor, so adding a kind breaks every
// visitor until it handles the new variant.
type Command interface {
	Kind() Kind
	Accept(v Visitor) error
}

// Visitor handles each command variant.
type Visitor interface {
	VisitClear(c *Clear) error
	VisitRect(c *Rect) error
	VisitText(c *Text) error
	VisitLine(c *Line) error
	VisitCircle(c *Circle) error
	VisitEllipse(c *Ellipse) error
	VisitRoundRect(c *RoundRect) error
	VisitArc(c *Arc) error
	VisitPolyline(c *Polyline) error
	VisitPolygon(c *Polygon) error
	VisitImage(c *Image) error
	VisitPath(c *Path) error
}

// Int32 returns a pointer to v; used for optional wire fields.
func Int32(v int32) *int32 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
