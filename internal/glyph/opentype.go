package glyph

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// OpenType is a Face backed by a TrueType/OpenType font. Faces are created
// lazily per pixel size and cached. Safe for concurrent use.
type OpenType struct {
	name string
	font *opentype.Font

	mu    sync.Mutex
	buf   sfnt.Buffer
	faces map[float64]font.Face
}

// LoadFile parses the font at path.
func LoadFile(path string) (*OpenType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses font bytes. name is used in error messages only.
func Parse(name string, data []byte) (*OpenType, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return &OpenType{
		name:  name,
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

// Default returns the embedded Go Regular font.
func Default() *OpenType {
	f, err := Parse("goregular", goregular.TTF)
	if err != nil {
		panic(err)
	}
	return f
}

func (o *OpenType) Name() string { return o.name }

// face must be called with mu held.
func (o *OpenType) face(size float64) (font.Face, error) {
	if f, ok := o.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(o.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	o.faces[size] = f
	return f, nil
}

func (o *OpenType) HasGlyph(r rune) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	idx, err := o.font.GlyphIndex(&o.buf, r)
	return err == nil && idx != 0
}

func (o *OpenType) LineMetrics(size float64) (LineMetrics, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, err := o.font.Metrics(&o.buf, fixed.Int26_6(size*64), font.HintingFull)
	if err != nil || m.Ascent <= 0 {
		return LineMetrics{}, false
	}
	ascent := fixedToFloat(m.Ascent)
	descent := fixedToFloat(m.Descent)
	gap := fixedToFloat(m.Height) - ascent - descent
	if gap < 0 {
		gap = 0
	}
	return LineMetrics{Ascent: ascent, Descent: descent, LineGap: gap}, true
}

func (o *OpenType) Rasterize(r rune, size float64) (Metrics, []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, err := o.face(size)
	if err != nil {
		return Metrics{}, nil
	}
	dr, mask, maskp, advance, ok := f.Glyph(fixed.Point26_6{}, r)
	if !ok {
		return Metrics{Advance: advance.Round()}, nil
	}

	w, h := dr.Dx(), dr.Dy()
	cov := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			cov[y*w+x] = uint8(a >> 8)
		}
	}
	return Metrics{
		XMin:    dr.Min.X,
		Top:     dr.Min.Y,
		Width:   w,
		Height:  h,
		Advance: advance.Round(),
	}, cov
}

// Close releases cached faces.
func (o *OpenType) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for size, f := range o.faces {
		_ = f.Close()
		delete(o.faces, size)
	}
	return nil
}

func fixedToFloat(x fixed.Int26_6) float64 {
	return float64(x) / 64.0
}
