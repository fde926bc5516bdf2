package raster

import (
	"math"
	"sort"

	"agd-render/internal/geom"
)

// FillPolygon fills a simple polygon with a scanline pass sampling pixel
// centres. Intersections are paired after sorting, which yields even-odd
// filling.
func (b *PixelBuffer) FillPolygon(pts []geom.Point, c geom.RGB) {
	n := len(pts)
	if n < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, b.Height-1)

	xs := make([]float64, 0, n)
	for y := minY; y <= maxY; y++ {
		fy := float64(y) + 0.5
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p, q := pts[i], pts[(i+1)%n]
			if p.Y == q.Y {
				continue
			}
			y0, y1 := float64(min(p.Y, q.Y)), float64(max(p.Y, q.Y))
			if fy < y0 || fy >= y1 {
				continue
			}
			t := (fy - float64(p.Y)) / float64(q.Y-p.Y)
			xs = append(xs, float64(p.X)+t*float64(q.X-p.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			// px is covered when its centre px+0.5 lies in [xs[i], xs[i+1]].
			x0 := int(math.Ceil(xs[i] - 0.5))
			x1 := int(math.Floor(xs[i+1] - 0.5))
			if x0 <= x1 {
				b.hspan(x0, x1, y, c)
			}
		}
	}
}
