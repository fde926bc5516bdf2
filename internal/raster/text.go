package raster

import (
	"math"
	"strings"

	"agd-render/internal/geom"
	"agd-render/internal/glyph"
)

// Text size limits in pixels.
const (
	MinTextSize     = 8
	MaxTextSize     = 72
	DefaultTextSize = 24

	// lineSpacing scales the font's natural line height.
	lineSpacing = 1.2
	// fallbackLineFactor is used when the font reports no metrics.
	fallbackLineFactor = 1.5
)

// ClampTextSize limits size to [MinTextSize, MaxTextSize].
func ClampTextSize(size float64) float64 {
	return math.Max(MinTextSize, math.Min(MaxTextSize, size))
}

type textLayout struct {
	ascent     float64
	lineHeight float64
}

func layoutFor(face glyph.Face, size float64) textLayout {
	if lm, ok := face.LineMetrics(size); ok {
		return textLayout{
			ascent:     lm.Ascent,
			lineHeight: math.Ceil(lm.Ascent+math.Abs(lm.Descent)+lm.LineGap) * lineSpacing,
		}
	}
	return textLayout{ascent: size, lineHeight: size * fallbackLineFactor}
}

// DrawText draws text with its first line's top at (x, y). Lines split on
// '\n'; blank lines are skipped without advancing the cursor. When bg is set
// each drawn line's box is filled before the glyphs are blended.
func (b *PixelBuffer) DrawText(fonts glyph.Fonts, x, y int, text string, size float64, fg geom.RGB, bg *geom.RGB) error {
	if fonts.Primary == nil {
		return ErrNoFont
	}
	layout := layoutFor(fonts.Primary, size)

	row := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		top := float64(y) + float64(row)*layout.lineHeight
		baseline := int(math.Round(top + layout.ascent))
		if bg != nil {
			w := lineAdvance(fonts, line, size)
			b.FillRect(geom.Rect{
				X: x,
				Y: int(math.Round(top)),
				W: w,
				H: int(math.Round(layout.lineHeight)),
			}, *bg)
		}
		b.drawGlyphRun(fonts, x, baseline, line, size, fg)
		row++
	}
	return nil
}

func lineAdvance(fonts glyph.Fonts, line string, size float64) int {
	w := 0
	for _, r := range line {
		m, _ := fonts.Select(r).Rasterize(r, size)
		w += m.Advance
	}
	return w
}

func (b *PixelBuffer) drawGlyphRun(fonts glyph.Fonts, x, baseline int, line string, size float64, fg geom.RGB) {
	pen := x
	for _, r := range line {
		m, cov := fonts.Select(r).Rasterize(r, size)
		b.blendCoverage(pen+m.XMin, baseline+m.Top, m.Width, m.Height, cov, fg)
		pen += m.Advance
		if pen >= b.Width {
			return
		}
	}
}

// blendCoverage blends fg through a coverage mask whose top left is (x, y).
func (b *PixelBuffer) blendCoverage(x, y, w, h int, cov []byte, fg geom.RGB) {
	if len(cov) < w*h {
		return
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			b.Blend(x+i, y+j, fg, cov[j*w+i])
		}
	}
}
