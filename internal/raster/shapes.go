package raster

import (
	"math"

	"agd-render/internal/geom"
)

// clampRadius limits a corner radius to half the smaller side.
func clampRadius(r geom.Rect, radius int) int {
	return max(0, min(radius, r.W/2, r.H/2))
}

// FillRoundRect fills two straight rectangles for the non-corner spans and a
// quarter disc in each corner.
func (b *PixelBuffer) FillRoundRect(r geom.Rect, radius int, c geom.RGB) {
	if r.Empty() {
		return
	}
	radius = clampRadius(r, radius)
	if radius == 0 {
		b.FillRect(r, c)
		return
	}
	b.FillRect(geom.Rect{X: r.X + radius, Y: r.Y, W: r.W - 2*radius, H: r.H}, c)
	b.FillRect(geom.Rect{X: r.X, Y: r.Y + radius, W: r.W, H: r.H - 2*radius}, c)

	left, right := r.X+radius, r.X+r.W-1-radius
	top, bottom := r.Y+radius, r.Y+r.H-1-radius
	b.fillQuarter(left, top, radius, -1, -1, c)
	b.fillQuarter(right, top, radius, 1, -1, c)
	b.fillQuarter(right, bottom, radius, 1, 1, c)
	b.fillQuarter(left, bottom, radius, -1, 1, c)
}

// fillQuarter fills the quarter disc around (cx, cy) in direction (sx, sy).
func (b *PixelBuffer) fillQuarter(cx, cy, r, sx, sy int, c geom.RGB) {
	lo, hi := 0, r
	if sy < 0 {
		lo, hi = max(lo, cy-(b.Height-1)), min(hi, cy)
	} else {
		lo, hi = max(lo, -cy), min(hi, b.Height-1-cy)
	}
	for d := lo; d <= hi; d++ {
		dx := int(math.Floor(math.Sqrt(float64(r*r - d*d))))
		b.hspan(cx, cx+sx*dx, cy+sy*d, c)
	}
}

// StrokeRoundRect outlines a rounded rectangle with four inset edges and four
// quarter arcs.
func (b *PixelBuffer) StrokeRoundRect(r geom.Rect, radius, t int, c geom.RGB) {
	if r.Empty() {
		return
	}
	if t < 1 {
		t = 1
	}
	radius = clampRadius(r, radius)
	if radius == 0 {
		b.StrokeRect(r, t, c)
		return
	}
	lo, hi := (t-1)/2, t/2
	left, right := r.X+radius, r.X+r.W-1-radius
	top, bottom := r.Y+radius, r.Y+r.H-1-radius

	b.Line(left, r.Y+lo, right, r.Y+lo, t, c)
	b.Line(left, r.Y+r.H-1-hi, right, r.Y+r.H-1-hi, t, c)
	b.Line(r.X+lo, top, r.X+lo, bottom, t, c)
	b.Line(r.X+r.W-1-hi, top, r.X+r.W-1-hi, bottom, t, c)

	ar := max(radius-lo, 1)
	b.strokeArc(left, top, ar, ar, 180, 270, t, c)
	b.strokeArc(right, top, ar, ar, 270, 360, t, c)
	b.strokeArc(right, bottom, ar, ar, 0, 90, t, c)
	b.strokeArc(left, bottom, ar, ar, 90, 180, t, c)
}
