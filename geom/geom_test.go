package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var approx = cmp.Comparer(func(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
})

func TestToPDFRect(t *testing.T) {
	tests := []struct {
		name  string
		r     NormalizedRect
		pageW float64
		pageH float64
		want  PixelRect
	}{
		{
			name:  "flips into bottom-up axis",
			r:     NormalizedRect{X: 0.1, Y: 0.2, W: 0.3, H: 0.1},
			pageW: 600,
			pageH: 800,
			want:  PixelRect{X: 60, Y: 800 - 0.3*800, W: 180, H: 80},
		},
		{
			name:  "full page",
			r:     NormalizedRect{X: 0, Y: 0, W: 1, H: 1},
			pageW: 500,
			pageH: 700,
			want:  PixelRect{X: 0, Y: 0, W: 500, H: 700},
		},
		{
			name:  "out of range values are clamped",
			r:     NormalizedRect{X: -0.5, Y: 2, W: 1.5, H: -1},
			pageW: 100,
			pageH: 100,
			want:  PixelRect{X: 0, Y: 0, W: 100, H: 0},
		},
		{
			name:  "NaN never propagates",
			r:     NormalizedRect{X: math.NaN(), Y: math.Inf(1), W: 0.5, H: 0.5},
			pageW: 100,
			pageH: 100,
			want:  PixelRect{X: 0, Y: 50, W: 50, H: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPDFRect(tt.r, tt.pageW, tt.pageH)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("ToPDFRect mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToPDFRectRoundTrip(t *testing.T) {
	rects := []NormalizedRect{
		{X: 0.1, Y: 0.2, W: 0.3, H: 0.1},
		{X: 0, Y: 0, W: 1, H: 1},
		{X: 0.91234, Y: 0.00123, W: 0.05, H: 0.92},
	}
	pages := []PageInfo{
		{Width: 600, Height: 800},
		{Width: 1, Height: 1},
		{Width: 1237.5, Height: 33.25},
	}

	for _, r := range rects {
		for _, page := range pages {
			px := ToPDFRect(r, page.Width, page.Height)

			back := NormalizedRect{
				X: px.X / page.Width,
				Y: (page.Height - px.Y - px.H) / page.Height,
				W: px.W / page.Width,
				H: px.H / page.Height,
			}

			if math.Abs(back.X-r.X) > 1e-4 || math.Abs(back.Y-r.Y) > 1e-4 ||
				math.Abs(back.W-r.W) > 1e-4 || math.Abs(back.H-r.H) > 1e-4 {
				t.Errorf("round trip of %+v through %+v came back as %+v", r, page, back)
			}
		}
	}
}

func TestNormalizedRectToQuad(t *testing.T) {
	page := PageInfo{Width: 600, Height: 800}
	q := NormalizedRectToQuad(NormalizedRect{X: 0.1, Y: 0.2, W: 0.3, H: 0.1}, page)

	// bottom-left, bottom-right, top-right, top-left
	want := Quad{
		{X: 60, Y: 800 - 0.3*800},
		{X: 240, Y: 800 - 0.3*800},
		{X: 240, Y: 800 - 0.2*800},
		{X: 60, Y: 800 - 0.2*800},
	}

	if diff := cmp.Diff(want, q, approx); diff != "" {
		t.Errorf("quad mismatch (-want +got):\n%s", diff)
	}

	if q[0].Y >= q[3].Y {
		t.Errorf("expected bottom corner below top corner in y-up space, got %+v", q)
	}
}

func TestQuadRoundTrip(t *testing.T) {
	page := PageInfo{Width: 612, Height: 792}

	rects := []NormalizedRect{
		{X: 0.1, Y: 0.2, W: 0.3, H: 0.1},
		{X: 0.01, Y: 0.97, W: 0.5, H: 0.02},
		{X: 0.5, Y: 0.5, W: 0.002, H: 0.002},
	}

	for _, r := range rects {
		q := NormalizedRectToQuad(r, page)

		got, ok := QuadToNormalizedRect(q, page)
		if !ok {
			t.Fatalf("quad for %+v reported degenerate", r)
		}

		if diff := cmp.Diff(r, got, approx); diff != "" {
			t.Errorf("quad round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestQuadToNormalizedRectDegenerate(t *testing.T) {
	page := PageInfo{Width: 600, Height: 800}

	tests := []struct {
		name string
		quad Quad
	}{
		{
			name: "zero area",
			quad: Quad{{X: 10, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 10}},
		},
		{
			name: "hairline width",
			quad: Quad{{X: 10, Y: 700}, {X: 10.1, Y: 700}, {X: 10.1, Y: 716}, {X: 10, Y: 716}},
		},
		{
			name: "hairline height",
			quad: Quad{{X: 10, Y: 700}, {X: 200, Y: 700}, {X: 200, Y: 700.2}, {X: 10, Y: 700.2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r, ok := QuadToNormalizedRect(tt.quad, page); ok {
				t.Errorf("expected degenerate quad to be dropped, got %+v", r)
			}
		})
	}

	if _, ok := QuadToNormalizedRect(Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}, PageInfo{}); ok {
		t.Error("expected zero-size page to be rejected")
	}
}

func TestQuadToNormalizedRectFlipsY(t *testing.T) {
	page := PageInfo{Width: 100, Height: 100}

	// a quad near the bottom of the page in y-up space
	q := Quad{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 20}, {X: 10, Y: 20}}

	r, ok := QuadToNormalizedRect(q, page)
	if !ok {
		t.Fatal("quad unexpectedly degenerate")
	}

	// must come out near the bottom in top-down normalized space
	if r.Y < 0.7 {
		t.Errorf("expected y near page bottom after flip, got %+v", r)
	}
}
