// Package geom maps highlight regions between the three coordinate spaces the
// engine deals with: viewer pixel space (top-left origin, y grows down, scaled
// by zoom), normalized page space (top-left origin, 0..1, zoom independent),
// and the rendering engine's native quad space (bottom-left origin, y grows
// up, unscaled page units). All y-axis flips live here; no other package
// performs one.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a location in a page coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PixelRect is a rectangle in viewer pixel space: top-left origin, y grows
// down.
type PixelRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NormalizedRect is a highlight region expressed as fractions of the page box:
// top-left origin, every field in [0,1].
type NormalizedRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Quad is the rendering engine's native four-corner representation of a
// highlighted area, in page units with a bottom-left origin. Corner order is
// bottom-left, bottom-right, top-right, top-left.
type Quad [4]Point

// PageInfo holds the rendered pixel dimensions of a single page.
type PageInfo struct {
	Width  float64
	Height float64
}

// degenerateEps is the minimum normalized width/height a quad must map to
// before it is considered real geometry.
const degenerateEps = 0.001

func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToPDFRect scales a normalized rect onto a page of the given pixel size and
// flips it into the engine's bottom-up axis. Malformed stored values are
// clamped rather than rejected; this function never fails.
func ToPDFRect(r NormalizedRect, pageW, pageH float64) PixelRect {
	x := clamp01(r.X)
	y := clamp01(r.Y)
	w := clamp01(r.W)
	h := clamp01(r.H)

	return PixelRect{
		X: x * pageW,
		Y: pageH - (y+h)*pageH,
		W: w * pageW,
		H: h * pageH,
	}
}

// QuadToNormalizedRect collapses a quad to its bounding box and normalizes it
// into top-down page fractions. Degenerate quads report ok=false and are
// dropped by callers, never propagated.
func QuadToNormalizedRect(q Quad, page PageInfo) (NormalizedRect, bool) {
	if page.Width <= 0 || page.Height <= 0 {
		return NormalizedRect{}, false
	}

	box := quadBounds(q)

	r := NormalizedRect{
		X: box.X.Lo / page.Width,
		Y: (page.Height - box.Y.Hi) / page.Height,
		W: (box.X.Hi - box.X.Lo) / page.Width,
		H: (box.Y.Hi - box.Y.Lo) / page.Height,
	}

	if r.W < degenerateEps || r.H < degenerateEps {
		return NormalizedRect{}, false
	}

	return r, true
}

// NormalizedRectToQuad is the inverse of QuadToNormalizedRect. Inputs are
// clamped to [0,1] before scaling; corners always come out in bottom-left,
// bottom-right, top-right, top-left order.
func NormalizedRectToQuad(r NormalizedRect, page PageInfo) Quad {
	x := clamp01(r.X)
	y := clamp01(r.Y)
	w := clamp01(r.W)
	h := clamp01(r.H)

	left := x * page.Width
	right := (x + w) * page.Width
	top := page.Height - y*page.Height
	bottom := page.Height - (y+h)*page.Height

	return Quad{
		{X: left, Y: bottom},
		{X: right, Y: bottom},
		{X: right, Y: top},
		{X: left, Y: top},
	}
}

func quadBounds(q Quad) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: q[0].X, Y: q[0].Y},
		r2.Point{X: q[1].X, Y: q[1].Y},
		r2.Point{X: q[2].X, Y: q[2].Y},
		r2.Point{X: q[3].X, Y: q[3].Y},
	)
}
