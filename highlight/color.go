package highlight

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorFromRGB buckets an annotation color into the highlight color enum
// based on HSL.
func ColorFromRGB(r, g, b float64) Color {
	color := colorful.Color{R: r, G: g, B: b}
	h, s, l := color.Hsl()

	if l < 0.12 || l > 0.98 || s < 0.2 {
		return ColorGray
	}
	if h < 15 {
		return ColorRed
	}
	if h < 45 {
		return ColorOrange
	}
	if h < 65 {
		return ColorYellow
	}
	if h < 170 {
		return ColorGreen
	}
	if h < 190 {
		return ColorCyan
	}
	if h < 263 {
		return ColorBlue
	}
	if h < 280 {
		return ColorPurple
	}
	if h < 335 {
		return ColorPink
	}
	return ColorRed
}

var colorHex = map[Color]string{
	ColorYellow: "#ffd400",
	ColorGreen:  "#53d769",
	ColorCyan:   "#32d3eb",
	ColorBlue:   "#3b82f6",
	ColorPurple: "#8a2be2",
	ColorPink:   "#ea5cf0",
	ColorRed:    "#e5484d",
	ColorOrange: "#ff9500",
	ColorGray:   "#9e9e9e",
}

// Hex returns the display color used when projecting a highlight into a
// viewer.
func (c Color) Hex() string {
	if hex, ok := colorHex[c]; ok {
		return hex
	}
	return colorHex[ColorYellow]
}

// ColorFromHex parses a "#rrggbb" string; unparseable input falls back to
// yellow, the default highlight color.
func ColorFromHex(hex string) Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return ColorYellow
	}
	return ColorFromRGB(c.R, c.G, c.B)
}
