// Package highlight defines the durable highlight model and the store
// contract the sync engine persists through.
package highlight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/geonsonatt/recall/geom"
)

// Color is the user-facing highlight color category.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorCyan   Color = "cyan"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorGray   Color = "gray"
)

// Record is the authoritative persisted form of a highlight. The viewer's
// native annotation objects are a derived cache that must always be
// re-derivable from records alone.
type Record struct {
	ID               string                `json:"id"`
	DocumentID       string                `json:"documentId"`
	PageIndex        int                   `json:"pageIndex"`
	Rects            []geom.NormalizedRect `json:"rects"`
	SelectedText     string                `json:"selectedText"`
	SelectedRichText string                `json:"selectedRichText,omitempty"`
	Color            Color                 `json:"color"`
	Note             string                `json:"note,omitempty"`
	Tags             []string              `json:"tags,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// Payload carries everything needed to create a Record; the store mints the
// id and timestamp.
type Payload struct {
	DocumentID       string
	PageIndex        int
	Rects            []geom.NormalizedRect
	SelectedText     string
	SelectedRichText string
	Color            Color
	Note             string
	Tags             []string
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Rects            *[]geom.NormalizedRect
	SelectedText     *string
	SelectedRichText *string
	Color            *Color
	Note             *string
	Tags             *[]string
}

// Validate enforces the record invariants: geometry is never empty and the
// page index is in range. Callers must delete a highlight whose geometry has
// collapsed rather than persist it empty.
func (p Payload) Validate() error {
	if p.PageIndex < 0 {
		return fmt.Errorf("highlight: page index %d out of range", p.PageIndex)
	}
	if len(p.Rects) == 0 {
		return fmt.Errorf("highlight: payload has no rects")
	}
	return nil
}

// SortRects orders rects top-to-bottom, left-to-right so rendering and
// diffing are deterministic.
func SortRects(rects []geom.NormalizedRect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
}

// NormalizeTags dedupes, trims and sorts a tag list into set form.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := []string{}

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	sort.Strings(out)

	if len(out) == 0 {
		return nil
	}
	return out
}

// Clone returns a deep copy so store internals never alias caller memory.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	c := *r
	c.Rects = append([]geom.NormalizedRect{}, r.Rects...)
	if r.Tags != nil {
		c.Tags = append([]string{}, r.Tags...)
	}

	return &c
}
