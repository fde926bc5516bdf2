package geom

import "fmt"

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
)

// IsHexColor reports whether s has the exact form #RRGGBB (hex digits in any case).
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		if _, ok := hexNibble(s[i]); !ok {
			return false
		}
	}
	return true
}

// ParseHex parses a #RRGGBB string.
func ParseHex(s string) (RGB, error) {
	if !IsHexColor(s) {
		return RGB{}, fmt.Errorf("color %q must be #RRGGBB", s)
	}
	return RGB{
		R: hexByte(s[1], s[2]),
		G: hexByte(s[3], s[4]),
		B: hexByte(s[5], s[6]),
	}, nil
}

func hexByte(hi, lo byte) uint8 {
	h, _ := hexNibble(hi)
	l, _ := hexNibble(lo)
	return h<<4 | l
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
