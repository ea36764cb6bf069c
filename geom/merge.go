package geom

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// Two merge passes operate here. MergeSelectionRects consumes the raw,
// jittery per-glyph-run rects captured during one selection gesture and needs
// line bucketing; MergeNormalizedRects consumes already-coarse rects (loaded
// from storage or rebuilt from engine quads) with a left-to-right scan run to
// a fixpoint.

const (
	minRawSpanPx = 1.6

	normEps       = 0.001
	minNormWidth  = 0.0016
	minNormHeight = 0.0026
)

// MergeSelectionRects collapses raw pixel rects from a single selection
// gesture into per-text-line boxes, pads them slightly, and normalizes them
// by the page dimensions. Results come out sorted top-to-bottom,
// left-to-right.
func MergeSelectionRects(rects []PixelRect, pageW, pageH float64) []NormalizedRect {
	if pageW <= 0 || pageH <= 0 {
		return nil
	}

	kept := make([]PixelRect, 0, len(rects))
	heights := make([]float64, 0, len(rects))

	for _, r := range rects {
		if r.W < minRawSpanPx || r.H < minRawSpanPx {
			continue
		}
		kept = append(kept, r)
		heights = append(heights, r.H)
	}

	if len(kept) == 0 {
		return nil
	}

	medianHeight := median(heights)
	lineTolerance := math.Max(5, medianHeight*0.78)
	mergeGap := math.Max(6, medianHeight*0.92)

	lines := bucketLines(kept, lineTolerance)

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].centerY < lines[j].centerY
	})

	out := []NormalizedRect{}

	for _, ln := range lines {
		for _, box := range mergeLine(ln.rects, mergeGap) {
			h := box.Y.Hi - box.Y.Lo
			padX := math.Max(0.35, h*0.04)
			padY := math.Max(0.2, h*0.08)

			// padding may spill past the page edge
			x0 := math.Max(0, box.X.Lo-padX)
			y0 := math.Max(0, box.Y.Lo-padY)
			x1 := math.Min(pageW, box.X.Hi+padX)
			y1 := math.Min(pageH, box.Y.Hi+padY)

			n := NormalizedRect{
				X: x0 / pageW,
				Y: y0 / pageH,
				W: (x1 - x0) / pageW,
				H: (y1 - y0) / pageH,
			}

			n = roundRect(n)

			if n.W < minNormWidth || n.H < minNormHeight {
				continue
			}

			out = append(out, n)
		}
	}

	return out
}

type lineBucket struct {
	centerY float64
	count   int
	rects   []PixelRect
}

func bucketLines(rects []PixelRect, tolerance float64) []*lineBucket {
	lines := []*lineBucket{}

	for _, r := range rects {
		cy := r.Y + r.H/2

		var best *lineBucket
		bestDist := tolerance

		for _, ln := range lines {
			d := math.Abs(ln.centerY - cy)
			if d <= bestDist {
				best = ln
				bestDist = d
			}
		}

		if best == nil {
			lines = append(lines, &lineBucket{centerY: cy, count: 1, rects: []PixelRect{r}})
			continue
		}

		// running mean keeps the line anchored as rects accumulate
		best.centerY = (best.centerY*float64(best.count) + cy) / float64(best.count+1)
		best.count++
		best.rects = append(best.rects, r)
	}

	return lines
}

func mergeLine(rects []PixelRect, mergeGap float64) []r2.Rect {
	sort.SliceStable(rects, func(i, j int) bool {
		return rects[i].X < rects[j].X
	})

	merged := []r2.Rect{}
	cur := pixelToR2(rects[0])

	for _, r := range rects[1:] {
		next := pixelToR2(r)

		gap := next.X.Lo - cur.X.Hi
		overlap := math.Min(cur.Y.Hi, next.Y.Hi) - math.Max(cur.Y.Lo, next.Y.Lo)
		minH := math.Min(cur.Y.Hi-cur.Y.Lo, next.Y.Hi-next.Y.Lo)

		if gap <= mergeGap && minH > 0 && overlap/minH > 0.18 {
			cur = cur.Union(next)
			continue
		}

		merged = append(merged, cur)
		cur = next
	}

	return append(merged, cur)
}

// MergeNormalizedRects consolidates already-normalized rects into minimal
// regions. The scan tolerances derive from the median rect height, which
// shifts as rects merge, so the scan reruns until its output is stable;
// merging merged output is then a no-op. Never emits a zero-area rect.
func MergeNormalizedRects(rects []NormalizedRect) []NormalizedRect {
	out := mergeNormalizedPass(rects)

	for i := 0; i < len(rects); i++ {
		next := mergeNormalizedPass(out)
		if sameRects(next, out) {
			break
		}
		out = next
	}

	return out
}

func mergeNormalizedPass(rects []NormalizedRect) []NormalizedRect {
	kept := make([]NormalizedRect, 0, len(rects))
	heights := make([]float64, 0, len(rects))

	for _, r := range rects {
		c := NormalizedRect{X: clamp01(r.X), Y: clamp01(r.Y), W: clamp01(r.W), H: clamp01(r.H)}
		if c.W < normEps || c.H < normEps {
			continue
		}
		kept = append(kept, c)
		heights = append(heights, c.H)
	}

	if len(kept) == 0 {
		return nil
	}

	medianHeight := math.Max(0.006, median(heights))
	lineTolerance := math.Max(0.004, medianHeight*0.55)
	gapTolerance := math.Max(0.003, medianHeight*0.72)

	sort.SliceStable(kept, func(i, j int) bool {
		cyI := kept[i].Y + kept[i].H/2
		cyJ := kept[j].Y + kept[j].H/2
		if math.Abs(cyI-cyJ) <= lineTolerance {
			return kept[i].X < kept[j].X
		}
		return cyI < cyJ
	})

	out := []NormalizedRect{}
	acc := kept[0]

	for _, r := range kept[1:] {
		accCY := acc.Y + acc.H/2
		cy := r.Y + r.H/2

		if math.Abs(cy-accCY) <= lineTolerance && r.X <= acc.X+acc.W+gapTolerance {
			acc = unionNorm(acc, r)
			continue
		}

		out = append(out, acc)
		acc = r
	}

	out = append(out, acc)

	final := out[:0]
	for _, r := range out {
		r = roundRect(r)
		if r.W < normEps || r.H < normEps {
			continue
		}
		final = append(final, r)
	}

	return final
}

func sameRects(a, b []NormalizedRect) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func unionNorm(a, b NormalizedRect) NormalizedRect {
	u := normToR2(a).Union(normToR2(b))

	return NormalizedRect{
		X: u.X.Lo,
		Y: u.Y.Lo,
		W: u.X.Hi - u.X.Lo,
		H: u.Y.Hi - u.Y.Lo,
	}
}

func pixelToR2(r PixelRect) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.X, Y: r.Y},
		r2.Point{X: r.X + r.W, Y: r.Y + r.H},
	)
}

func normToR2(r NormalizedRect) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.X, Y: r.Y},
		r2.Point{X: r.X + r.W, Y: r.Y + r.H},
	)
}

func median(vals []float64) float64 {
	s := append([]float64{}, vals...)
	sort.Float64s(s)

	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// round5 keeps persisted records stable and diff friendly.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

func roundRect(r NormalizedRect) NormalizedRect {
	return NormalizedRect{
		X: round5(r.X),
		Y: round5(r.Y),
		W: round5(r.W),
		H: round5(r.H),
	}
}
