package bridge

import (
	"errors"
	"math"

	"github.com/geonsonatt/recall/geom"
	"github.com/geonsonatt/recall/textutil"
)

// ErrMultiPageSelection rejects a capture whose range touches more than one
// page element; no partial highlight is produced.
var ErrMultiPageSelection = errors.New("bridge: selection spans multiple pages")

// ErrEmptySelection rejects a capture with no surviving geometry or text.
var ErrEmptySelection = errors.New("bridge: selection has no usable geometry")

// minSliverPx filters sub-pixel client rects before the line merge.
const minSliverPx = 1.5

// SelectionRange is a raw text-selection as reported by the viewer's DOM or
// widget layer: the client rects of the range plus the pages they touch, in
// viewer pixel space.
type SelectionRange struct {
	PageIndexes []int
	Rects       []geom.PixelRect
	Text        string
	RichText    string
}

// Candidate is a highlight payload derived from a selection, ready for
// CreateHighlight once the user picks a color.
type Candidate struct {
	PageIndex        int
	Rects            []geom.NormalizedRect
	SelectedText     string
	SelectedRichText string
}

// CaptureSelection clips a selection's client rects to the owning page box,
// merges them into line-level regions and attaches the sanitized text.
func CaptureSelection(sel SelectionRange, pageBox geom.PixelRect) (*Candidate, error) {
	pages := map[int]bool{}
	for _, p := range sel.PageIndexes {
		pages[p] = true
	}

	if len(pages) == 0 {
		return nil, ErrEmptySelection
	}
	if len(pages) > 1 {
		return nil, ErrMultiPageSelection
	}

	pageIndex := sel.PageIndexes[0]

	clipped := []geom.PixelRect{}
	for _, r := range sel.Rects {
		c, ok := clipToPage(r, pageBox)
		if !ok || c.W < minSliverPx || c.H < minSliverPx {
			continue
		}
		clipped = append(clipped, c)
	}

	rects := geom.MergeSelectionRects(clipped, pageBox.W, pageBox.H)
	if len(rects) == 0 {
		return nil, ErrEmptySelection
	}

	text := textutil.CondenseSpaces(textutil.StripControl(sel.Text))
	if text == "" {
		return nil, ErrEmptySelection
	}

	return &Candidate{
		PageIndex:        pageIndex,
		Rects:            rects,
		SelectedText:     text,
		SelectedRichText: textutil.SanitizeRichText(sel.RichText),
	}, nil
}

// clipToPage intersects a client rect with the page box and shifts it into
// page-local coordinates.
func clipToPage(r geom.PixelRect, page geom.PixelRect) (geom.PixelRect, bool) {
	x0 := math.Max(r.X, page.X)
	y0 := math.Max(r.Y, page.Y)
	x1 := math.Min(r.X+r.W, page.X+page.W)
	y1 := math.Min(r.Y+r.H, page.Y+page.H)

	if x1 <= x0 || y1 <= y0 {
		return geom.PixelRect{}, false
	}

	return geom.PixelRect{X: x0 - page.X, Y: y0 - page.Y, W: x1 - x0, H: y1 - y0}, true
}
