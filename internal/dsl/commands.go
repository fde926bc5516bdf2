package dsl

// Point is a vertex of a polyline or polygon.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Path segment verbs.
const (
	SegMove  = "M"
	SegLine  = "L"
	SegClose = "Z"
)

type PathSegment struct {
	Cmd string `json:"cmd"`
	X   *int32 `json:"x,omitempty"`
	Y   *int32 `json:"y,omitempty"`
}

type Clear struct {
	Color string `json:"color"`
}

type Rect struct {
	ID          *string `json:"id,omitempty"`
	X           *int32  `json:"x,omitempty"`
	Y           *int32  `json:"y,omitempty"`
	W           *int32  `json:"w,omitempty"`
	H           *int32  `json:"h,omitempty"`
	Fill        *string `json:"fill,omitempty"`
	Stroke      *string `json:"stroke,omitempty"`
	StrokeWidth *int32  `json:"stroke_width,omitempty"`
	Clickable   bool    `json:"clickable,omitempty"`
}

type Text struct {
	X     *int32  `json:"x,omitempty"`
	Y     *int32  `json:"y,omitempty"`
	Text  string  `json:"text"`
	Color *string `json:"color,omitempty"`
	Bg    *string `json:"bg,omitempty"`
	Size  *int32  `json:"size,omitempty"`
}

type Line struct {
	X1    *int32  `json:"x1,omitempty"`
	Y1    *int32  `json:"y1,omitempty"`
	X2    *int32  `json:"x2,omitempty"`
	Y2    *int32  `json:"y2,omitempty"`
	Color *string `json:"color,omitempty"`
	Width *int32  `json:"width,omitempty"`
}

type Circle struct {
	CX          *int32  `json:"cx,omitempty"`
	CY          *int32  `json:"cy,omitempty"`
	R           *int32  `json:"r,omitempty"`
	Fill        *string `json:"fill,omitempty"`
	Stroke      *string `json:"stroke,omitempty"`
	StrokeWidth *int32  `json:"stroke_width,omitempty"`
}

type Ellipse struct {
	CX          *int32  `json:"cx,omitempty"`
	CY          *int32  `json:"cy,omitempty"`
	RX          *int32  `json:"rx,omitempty"`
	RY          *int32  `json:"ry,omitempty"`
	Fill        *string `json:"fill,omitempty"`
	Stroke      *string `json:"stroke,omitempty"`
	StrokeWidth *int32  `json:"stroke_width,omitempty"`
}

type RoundRect struct {
	ID          *string `json:"id,omitempty"`
	X           *int32  `json:"x,omitempty"`
	Y           *int32  `json:"y,omitempty"`
	W           *int32  `json:"w,omitempty"`
	H           *int32  `json:"h,omitempty"`
	R           *int32  `json:"r,omitempty"`
	Fill        *string `json:"fill,omitempty"`
	Stroke      *string `json:"stroke,omitempty"`
	StrokeWidth *int32  `json:"stroke_width,omitempty"`
}

// Arc angles are degrees in screen space (y down), so increasing angles turn
// clockwise on screen.
type Arc struct {
	CX       *int32   `json:"cx,omitempty"`
	CY       *int32   `json:"cy,omitempty"`
	R        *int32   `json:"r,omitempty"`
	StartDeg *float64 `json:"start_deg,omitempty"`
	EndDeg   *float64 `json:"end_deg,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Width    *int32   `json:"width,omitempty"`
}

type Polyline struct {
	Points []Point `json:"points"`
	Color  *string `json:"color,omitempty"`
	Width  *int32  `json:"width,omitempty"`
}

type Polygon struct {
	Points      []Point `json:"points"`
	Fill        *string `json:"fill,omitempty"`
	Stroke      *string `json:"stroke,omitempty"`
	StrokeWidth *int32  `json:"stroke_width,omitempty"`
}

// Image source types.
const (
	SrcPath   = "path"
	SrcBase64 = "base64"
)

type Image struct {
	X       *int32 `json:"x,omitempty"`
	Y       *int32 `json:"y,omitempty"`
	W       *int32 `json:"w,omitempty"`
	H       *int32 `json:"h,omitempty"`
	SrcType string `json:"src_type"`
	Src     string `json:"src"`
}

type Path struct {
	Segments    []PathSegment `json:"segments"`
	Fill        *string       `json:"fill,omitempty"`
	Stroke      *string       `json:"stroke,omitempty"`
	StrokeWidth *int32        `json:"stroke_width,omitempty"`
}

func (*Clear) Kind() Kind     { return KindClear }
func (*Rect) Kind() Kind      { return KindRect }
func (*Text) Kind() Kind      { return KindText }
func (*Line) Kind() Kind      { return KindLine }
func (*Circle) Kind() Kind    { return KindCircle }
func (*Ellipse) Kind() Kind   { return KindEllipse }
func (*RoundRect) Kind() Kind { return KindRoundRect }
func (*Arc) Kind() Kind       { return KindArc }
func (*Polyline) Kind() Kind  { return KindPolyline }
func (*Polygon) Kind() Kind   { return KindPolygon }
func (*Image) Kind() Kind     { return KindImage }
func (*Path) Kind() Kind      { return KindPath }

func (c *Clear) Accept(v Visitor) error     { return v.VisitClear(c) }
func (c *Rect) Accept(v Visitor) error      { return v.VisitRect(c) }
func (c *Text) Accept(v Visitor) error      { return v.VisitText(c) }
func (c *Line) Accept(v Visitor) error      { return v.VisitLine(c) }
func (c *Circle) Accept(v Visitor) error    { return v.VisitCircle(c) }
func (c *Ellipse) Accept(v Visitor) error   { return v.VisitEllipse(c) }
func (c *RoundRect) Accept(v Visitor) error { return v.VisitRoundRect(c) }
func (c *Arc) Accept(v Visitor) error       { return v.VisitArc(c) }
func (c *Polyline) Accept(v Visitor) error  { return v.VisitPolyline(c) }
func (c *Polygon) Accept(v Visitor) error   { return v.VisitPolygon(c) }
func (c *Image) Accept(v Visitor) error     { return v.VisitImage(c) }
func (c *Path) Accept(v Visitor) error      { return v.VisitPath(c) }
