package raster

import (
	"math"
	"sort"

	"agd-render/internal/geom"
)

// sweepWidth is the thickness from which a line is filled as one polygon
// instead of a stamp per Bresenham step.
const sweepWidth = 16

// stamp paints a t x t square covering [p-(t-1)/2, p+t/2] on both axes.
func (b *PixelBuffer) stamp(x, y, t int, c geom.RGB) {
	if t <= 1 {
		b.Set(x, y, c)
		return
	}
	lo := (t - 1) / 2
	b.FillRect(geom.Rect{X: x - lo, Y: y - lo, W: t, H: t}, c)
}

// Line draws a Bresenham line of thickness t. The segment is clipped to the
// buffer grown by half the thickness, past which a stamp cannot reach it.
// Thick lines fill their swept area once, so the work is bounded by the
// buffer size whatever t is.
func (b *PixelBuffer) Line(x0, y0, x1, y1, t int, c geom.RGB) {
	if t < 1 {
		t = 1
	}
	m := t/2 + 1
	area := geom.Rect{X: -m, Y: -m, W: b.Width + 2*m, H: b.Height + 2*m}
	if !area.Contains(x0, y0) || !area.Contains(x1, y1) {
		fx0, fy0, fx1, fy1, ok := geom.ClipSegment(area, float64(x0), float64(y0), float64(x1), float64(y1))
		if !ok {
			return
		}
		x0, y0 = int(math.Round(fx0)), int(math.Round(fy0))
		x1, y1 = int(math.Round(fx1)), int(math.Round(fy1))
	}
	if t >= sweepWidth {
		b.sweep(x0, y0, x1, y1, t, c)
		return
	}

	dx := geom.Abs(x1 - x0)
	dy := geom.Abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		b.stamp(x0, y0, t, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// sweep fills the hull of the stamp squares at both endpoints, which is the
// area a stamp covers while it travels along the segment.
func (b *PixelBuffer) sweep(x0, y0, x1, y1, t int, c geom.RGB) {
	lo := (t - 1) / 2
	corners := make([]geom.Point, 0, 8)
	for _, p := range [2]geom.Point{{X: x0, Y: y0}, {X: x1, Y: y1}} {
		l, top := p.X-lo, p.Y-lo
		corners = append(corners,
			geom.Point{X: l, Y: top}, geom.Point{X: l + t, Y: top},
			geom.Point{X: l + t, Y: top + t}, geom.Point{X: l, Y: top + t})
	}
	b.FillPolygon(convexHull(corners), c)
}

// convexHull returns the hull of pts in order (monotone chain). pts is
// reordered in place.
func convexHull(pts []geom.Point) []geom.Point {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// float64 keeps the products of far off-screen coordinates from overflowing.
	cross := func(o, a, p geom.Point) float64 {
		return float64(a.X-o.X)*float64(p.Y-o.Y) - float64(a.Y-o.Y)*float64(p.X-o.X)
	}
	hull := make([]geom.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// Polyline joins consecutive points; closed also joins the last to the first.
func (b *PixelBuffer) Polyline(pts []geom.Point, t int, closed bool, c geom.RGB) {
	for i := 1; i < len(pts); i++ {
		b.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, t, c)
	}
	if closed && len(pts) > 2 {
		last := pts[len(pts)-1]
		b.Line(last.X, last.Y, pts[0].X, pts[0].Y, t, c)
	}
	if len(pts) == 1 {
		b.stamp(pts[0].X, pts[0].Y, t, c)
	}
}

// StrokeRect outlines r with thickness t, inset so the outline stays inside r.
func (b *PixelBuffer) StrokeRect(r geom.Rect, t int, c geom.RGB) {
	if r.Empty() {
		return
	}
	if t < 1 {
		t = 1
	}
	xl := r.X + (t-1)/2
	xr := r.X + r.W - 1 - t/2
	yt := r.Y + (t-1)/2
	yb := r.Y + r.H - 1 - t/2
	if xr < xl || yb < yt {
		b.FillRect(r, c)
		return
	}
	b.Line(xl, yt, xr, yt, t, c)
	b.Line(xl, yb, xr, yb, t, c)
	b.Line(xl, yt, xl, yb, t, c)
	b.Line(xr, yt, xr, yb, t, c)
}
