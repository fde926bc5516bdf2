package raster

import (
	"image"

	"golang.org/x/image/draw"

	"agd-render/internal/geom"
)

// ImageDecoder resolves an image command's source into a bitmap.
type ImageDecoder interface {
	Decode(srcType, src string) (image.Image, error)
}

// DrawImage resamples src to dst (buffer coordinates) with Catmull-Rom and
// composites it by alpha: opaque pixels overwrite, transparent ones are
// skipped, partial ones blend. Only the visible part is resampled.
func (b *PixelBuffer) DrawImage(src image.Image, dst geom.Rect) {
	vis := dst.Intersect(b.Bounds())
	if vis.Empty() {
		return
	}
	scaled := image.NewNRGBA(image.Rect(vis.X, vis.Y, vis.X+vis.W, vis.Y+vis.H))
	dr := image.Rect(dst.X, dst.Y, dst.X+dst.W, dst.Y+dst.H)
	draw.CatmullRom.Scale(scaled, dr, src, src.Bounds(), draw.Src, nil)

	for y := vis.Y; y < vis.Y+vis.H; y++ {
		for x := vis.X; x < vis.X+vis.W; x++ {
			p := scaled.NRGBAAt(x, y)
			b.Blend(x, y, geom.RGB{R: p.R, G: p.G, B: p.B}, p.A)
		}
	}
}
