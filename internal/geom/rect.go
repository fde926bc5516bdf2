package geom

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned rectangle with inclusive origin and exclusive far edge.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersect returns the overlap of r and s (possibly empty).
func (r Rect) Intersect(s Rect) Rect {
	x0 := max(r.X, s.X)
	y0 := max(r.Y, s.Y)
	x1 := min(r.X+r.W, s.X+s.W)
	y1 := min(r.Y+r.H, s.Y+s.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ClipSegment clips the segment (x0,y0)-(x1,y1) to r using Liang-Barsky.
// ok is false when no part of the segment lies inside r.
func ClipSegment(r Rect, x0, y0, x1, y1 float64) (cx0, cy0, cx1, cy1 float64, ok bool) {
	minX, minY := float64(r.X), float64(r.Y)
	maxX, maxY := float64(r.X+r.W-1), float64(r.Y+r.H-1)
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	if !clip(-dx, x0-minX) || !clip(dx, maxX-x0) || !clip(-dy, y0-minY) || !clip(dy, maxY-y0) {
		return 0, 0, 0, 0, false
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}
