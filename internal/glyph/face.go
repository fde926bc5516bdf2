// Package glyph provides the font capability used by the text rasterizer.
package glyph

// Metrics positions a coverage bitmap relative to the pen: the bitmap's top
// left corner sits at (penX+XMin, baseline+Top). Top is negative above the
// baseline.
type Metrics struct {
	XMin    int
	Top     int
	Width   int
	Height  int
	Advance int
}

// LineMetrics are vertical font metrics in pixels at a given size.
// Descent is positive below the baseline.
type LineMetrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// Face rasterizes single glyphs. Coverage is Width*Height bytes, row major,
// 0 transparent and 255 fully covered.
type Face interface {
	Rasterize(r rune, size float64) (Metrics, []byte)
	LineMetrics(size float64) (LineMetrics, bool)
	HasGlyph(r rune) bool
}

// Fonts is the primary face plus an optional fallback (usually emoji).
// Fonts are loaded once by the application and passed to every render call.
type Fonts struct {
	Primary  Face
	Fallback Face
}

// Select returns the face to draw r with: the primary face when it has the
// glyph, otherwise the fallback when that one has it, otherwise the primary.
func (f Fonts) Select(r rune) Face {
	if f.Primary != nil && f.Primary.HasGlyph(r) {
		return f.Primary
	}
	if f.Fallback != nil && f.Fallback.HasGlyph(r) {
		return f.Fallback
	}
	if f.Primary != nil {
		return f.Primary
	}
	return f.Fallback
}
