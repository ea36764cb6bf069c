package bridge

import (
	"errors"
	"testing"

	"github.com/geonsonatt/recall/geom"
)

var pageBox = geom.PixelRect{X: 50, Y: 80, W: 600, H: 800}

func TestCaptureSelection(t *testing.T) {
	sel := SelectionRange{
		PageIndexes: []int{3},
		Rects: []geom.PixelRect{
			{X: 60, Y: 180, W: 40, H: 16},
			{X: 105, Y: 181, W: 30, H: 16},
		},
		Text:     "  marked \n passage ",
		RichText: "<p>marked <b>passage</b></p>",
	}

	got, err := CaptureSelection(sel, pageBox)
	if err != nil {
		t.Fatalf("CaptureSelection: %v", err)
	}

	if got.PageIndex != 3 {
		t.Errorf("PageIndex = %d, want 3", got.PageIndex)
	}
	if len(got.Rects) != 1 {
		t.Fatalf("expected one merged line box, got %+v", got.Rects)
	}
	if got.SelectedText != "marked passage" {
		t.Errorf("SelectedText = %q", got.SelectedText)
	}
	if got.SelectedRichText != "<p>marked <b>passage</b></p>" {
		t.Errorf("SelectedRichText = %q", got.SelectedRichText)
	}
}

func TestCaptureSelectionRejectsMultiPage(t *testing.T) {
	sel := SelectionRange{
		PageIndexes: []int{1, 2},
		Rects:       []geom.PixelRect{{X: 60, Y: 180, W: 40, H: 16}},
		Text:        "spans pages",
	}

	if _, err := CaptureSelection(sel, pageBox); !errors.Is(err, ErrMultiPageSelection) {
		t.Errorf("expected ErrMultiPageSelection, got %v", err)
	}
}

func TestCaptureSelectionClipsToPage(t *testing.T) {
	sel := SelectionRange{
		PageIndexes: []int{0},
		// hangs off the left edge of the page box
		Rects: []geom.PixelRect{{X: 20, Y: 180, W: 60, H: 16}},
		Text:  "clipped",
	}

	got, err := CaptureSelection(sel, pageBox)
	if err != nil {
		t.Fatalf("CaptureSelection: %v", err)
	}

	for _, r := range got.Rects {
		if r.X < 0 || r.Y < 0 || r.X+r.W > 1 || r.Y+r.H > 1 {
			t.Errorf("rect not confined to the page: %+v", r)
		}
	}
}

func TestCaptureSelectionDropsSlivers(t *testing.T) {
	tests := []struct {
		name string
		sel  SelectionRange
		want error
	}{
		{
			name: "sub-pixel slivers only",
			sel: SelectionRange{
				PageIndexes: []int{0},
				Rects:       []geom.PixelRect{{X: 60, Y: 180, W: 1.2, H: 16}},
				Text:        "text",
			},
			want: ErrEmptySelection,
		},
		{
			name: "entirely outside the page",
			sel: SelectionRange{
				PageIndexes: []int{0},
				Rects:       []geom.PixelRect{{X: 1000, Y: 180, W: 40, H: 16}},
				Text:        "text",
			},
			want: ErrEmptySelection,
		},
		{
			name: "no text",
			sel: SelectionRange{
				PageIndexes: []int{0},
				Rects:       []geom.PixelRect{{X: 60, Y: 180, W: 40, H: 16}},
				Text:        "   ",
			},
			want: ErrEmptySelection,
		},
		{
			name: "no pages",
			sel:  SelectionRange{},
			want: ErrEmptySelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CaptureSelection(tt.sel, pageBox); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
