package highlight

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/geonsonatt/recall/geom"
)

func TestPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{
			name: "valid",
			payload: Payload{
				PageIndex: 0,
				Rects:     []geom.NormalizedRect{{X: 0.1, Y: 0.1, W: 0.2, H: 0.02}},
			},
		},
		{
			name:    "negative page",
			payload: Payload{PageIndex: -1, Rects: []geom.NormalizedRect{{W: 0.1, H: 0.1}}},
			wantErr: true,
		},
		{
			name:    "no rects",
			payload: Payload{PageIndex: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortRects(t *testing.T) {
	rects := []geom.NormalizedRect{
		{X: 0.5, Y: 0.3, W: 0.1, H: 0.02},
		{X: 0.1, Y: 0.3, W: 0.1, H: 0.02},
		{X: 0.2, Y: 0.1, W: 0.1, H: 0.02},
	}

	SortRects(rects)

	want := []geom.NormalizedRect{
		{X: 0.2, Y: 0.1, W: 0.1, H: 0.02},
		{X: 0.1, Y: 0.3, W: 0.1, H: 0.02},
		{X: 0.5, Y: 0.3, W: 0.1, H: 0.02},
	}

	if diff := cmp.Diff(want, rects); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "dedupes and sorts", in: []string{"b", "a", "b", " a "}, want: []string{"a", "b"}},
		{name: "drops empties", in: []string{"", "  "}, want: nil},
		{name: "nil", in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, NormalizeTags(tt.in)); diff != "" {
				t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex  string
		want Color
	}{
		{hex: "#ffd400", want: ColorYellow},
		{hex: "#53d769", want: ColorGreen},
		{hex: "#3b82f6", want: ColorBlue},
		{hex: "#ea5cf0", want: ColorPink},
		{hex: "#888888", want: ColorGray},
		{hex: "not-a-color", want: ColorYellow},
		{hex: "", want: ColorYellow},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			if got := ColorFromHex(tt.hex); got != tt.want {
				t.Errorf("ColorFromHex(%q) = %q, want %q", tt.hex, got, tt.want)
			}
		})
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	for _, c := range []Color{ColorYellow, ColorGreen, ColorCyan, ColorBlue, ColorPurple, ColorPink, ColorRed, ColorOrange} {
		if got := ColorFromHex(c.Hex()); got != c {
			t.Errorf("ColorFromHex(%s.Hex()) = %q, want %q", c, got, c)
		}
	}

	if (Color("nonsense")).Hex() != ColorYellow.Hex() {
		t.Error("unknown color should fall back to yellow")
	}
}
