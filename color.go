package flock

import (
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// RGB is an opaque fill colour. Each component is in the range [0, 1].
// Opacity is carried separately by the tessellator and by instances.
type RGB struct {
	R, G, B float32
}

// White is the neutral colour multiplier.
var White = RGB{R: 1, G: 1, B: 1}

// FromColor converts a standard color.Color to RGB, dropping alpha.
// Premultiplied components are divided back out.
func FromColor(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
	}
}

// Hex parses "#RGB" or "#RRGGBB" (the leading '#' is optional).
// It reports false for malformed input.
func Hex(hex string) (RGB, bool) {
	hex = strings.TrimPrefix(hex, "#")

	var r, g, b uint32
	switch len(hex) {
	case 3:
		if !parseHex(hex[0:1], &r) || !parseHex(hex[1:2], &g) || !parseHex(hex[2:3], &b) {
			return RGB{}, false
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if !parseHex(hex[0:2], &r) || !parseHex(hex[2:4], &g) || !parseHex(hex[4:6], &b) {
			return RGB{}, false
		}
	default:
		return RGB{}, false
	}

	return RGB{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
	}, true
}

// Named looks up an SVG 1.1 colour keyword such as "cornflowerblue".
func Named(name string) (RGB, bool) {
	c, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return RGB{}, false
	}
	return FromColor(c), true
}

// Color converts to a standard opaque color.Color.
func (c RGB) Color() color.Color {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: 255,
	}
}

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseHex parses a hex string into a uint32.
func parseHex(s string, out *uint32) bool {
	*out = 0
	for _, c := range s {
		*out *= 16
		switch {
		case c >= '0' && c <= '9':
			*out += uint32(c - '0')
		case c >= 'a' && c <= 'f':
			*out += uint32(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			*out += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}
