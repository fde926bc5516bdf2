package raster

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"agd-render/internal/geom"
)

// EmphasisWidth is the press outline thickness.
const EmphasisWidth = 3

var EmphasisColor = geom.Black

// Emphasize returns a copy of buf with a bold outline inside target.
func Emphasize(buf *PixelBuffer, target geom.Rect) *PixelBuffer {
	out := buf.Clone()
	out.StrokeRect(target, EmphasisWidth, EmphasisColor)
	return out
}

// Snapshot downsamples buf by scale and encodes it as JPEG for critique.
func Snapshot(buf *PixelBuffer, scale float64, quality int) ([]byte, error) {
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	w := max(1, int(math.Round(float64(buf.Width)*scale)))
	h := max(1, int(math.Round(float64(buf.Height)*scale)))

	src := buf.Image()
	var img image.Image = src
	if w != buf.Width || h != buf.Height {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		img = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, &RenderError{Op: "snapshot", Err: err}
	}
	return out.Bytes(), nil
}

// EncodePNG encodes buf losslessly for frame history.
func EncodePNG(buf *PixelBuffer) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, buf.Image()); err != nil {
		return nil, &RenderError{Op: "png", Err: err}
	}
	return out.Bytes(), nil
}
