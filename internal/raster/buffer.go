package raster

import (
	"image"

	"agd-render/internal/geom"
)

// PixelBuffer is a Width x Height RGBA raster, 4 bytes per pixel, row major.
// Alpha is always 255.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewPixelBuffer allocates an opaque white buffer.
func NewPixelBuffer(w, h int) *PixelBuffer {
	b := &PixelBuffer{Width: w, Height: h, Pix: make([]byte, w*h*4)}
	b.Fill(geom.White)
	return b
}

func (b *PixelBuffer) Bounds() geom.Rect {
	return geom.Rect{W: b.Width, H: b.Height}
}

func (b *PixelBuffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the color at (x, y); out-of-range reads return black.
func (b *PixelBuffer) At(x, y int) geom.RGB {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return geom.Black
	}
	i := b.offset(x, y)
	return geom.RGB{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2]}
}

// Set writes one pixel; out-of-range writes are dropped.
func (b *PixelBuffer) Set(x, y int, c geom.RGB) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = 0xff
}

// Blend mixes c over the pixel at (x, y) with the given coverage.
func (b *PixelBuffer) Blend(x, y int, c geom.RGB, alpha uint8) {
	if alpha == 0 || x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	if alpha == 0xff {
		b.Set(x, y, c)
		return
	}
	b.Set(x, y, geom.Blend(c, b.At(x, y), alpha))
}

func (b *PixelBuffer) Fill(c geom.RGB) {
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = 0xff
	}
}

// FillRect fills r clipped to the buffer.
func (b *PixelBuffer) FillRect(r geom.Rect, c geom.RGB) {
	r = r.Intersect(b.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		i := b.offset(r.X, y)
		for x := 0; x < r.W; x++ {
			b.Pix[i] = c.R
			b.Pix[i+1] = c.G
			b.Pix[i+2] = c.B
			b.Pix[i+3] = 0xff
			i += 4
		}
	}
}

// hspan fills row y from x0 to x1 inclusive.
func (b *PixelBuffer) hspan(x0, x1, y int, c geom.RGB) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	b.FillRect(geom.Rect{X: x0, Y: y, W: x1 - x0 + 1, H: 1}, c)
}

func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Image returns an *image.RGBA sharing the buffer's pixels.
func (b *PixelBuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
