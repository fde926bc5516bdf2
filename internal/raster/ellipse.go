package raster

import (
	"math"

	"agd-render/internal/geom"
)

// arcStep is the angular step of parametric outlines, in degrees.
const arcStep = 1.0

// FillEllipse fills row by row from the implicit equation. Rows outside the
// buffer are skipped.
func (b *PixelBuffer) FillEllipse(cx, cy, rx, ry int, c geom.RGB) {
	if rx <= 0 || ry <= 0 {
		return
	}
	top := max(cy-ry, 0)
	bottom := min(cy+ry, b.Height-1)
	for y := top; y <= bottom; y++ {
		dy := float64(y - cy)
		k := 1 - (dy*dy)/float64(ry*ry)
		if k < 0 {
			continue
		}
		dx := int(math.Floor(float64(rx) * math.Sqrt(k)))
		b.hspan(cx-dx, cx+dx, y, c)
	}
}

// StrokeEllipse outlines an ellipse by stepping the angle and joining points.
func (b *PixelBuffer) StrokeEllipse(cx, cy, rx, ry, t int, c geom.RGB) {
	b.strokeArc(cx, cy, rx, ry, 0, 360, t, c)
}

// StrokeArc draws the circular arc from start to end degrees. Angles are in
// screen space, so increasing angles run clockwise.
func (b *PixelBuffer) StrokeArc(cx, cy, r int, start, end float64, t int, c geom.RGB) {
	b.strokeArc(cx, cy, r, r, start, end, t, c)
}

func (b *PixelBuffer) strokeArc(cx, cy, rx, ry int, start, end float64, t int, c geom.RGB) {
	if rx <= 0 || ry <= 0 {
		return
	}
	pts := arcPoints(cx, cy, rx, ry, start, end)
	b.Polyline(pts, t, false, c)
}

// arcPoints samples the arc every arcStep degrees, always ending exactly on end.
// The sweep runs forward when end >= start and backward otherwise.
func arcPoints(cx, cy, rx, ry int, start, end float64) []geom.Point {
	sweep := end - start
	step := arcStep
	if sweep < 0 {
		step = -arcStep
	}
	n := int(math.Ceil(math.Abs(sweep) / arcStep))
	if n > 3600 {
		n = 3600
		step = sweep / float64(n)
	}
	pts := make([]geom.Point, 0, n+1)
	at := func(deg float64) geom.Point {
		rad := deg * math.Pi / 180
		return geom.Point{
			X: cx + int(math.Round(float64(rx)*math.Cos(rad))),
			Y: cy + int(math.Round(float64(ry)*math.Sin(rad))),
		}
	}
	for i := 0; i < n; i++ {
		pts = append(pts, at(start+float64(i)*step))
	}
	pts = append(pts, at(end))
	return pts
}
