package geom

// Blend mixes fg over bg with coverage alpha (0 keeps bg, 255 yields fg).
func Blend(fg, bg RGB, alpha uint8) RGB {
	switch alpha {
	case 0:
		return bg
	case 255:
		return fg
	}
	return RGB{
		R: BlendChannel(fg.R, bg.R, alpha),
		G: BlendChannel(fg.G, bg.G, alpha),
		B: BlendChannel(fg.B, bg.B, alpha),
	}
}

// BlendChannel linearly interpolates one 8-bit channel.
func BlendChannel(fg, bg, alpha uint8) uint8 {
	a := uint16(alpha)
	inv := 255 - a
	return uint8((uint16(fg)*a + uint16(bg)*inv) / 255)
}

// Abs returns |v|.
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
