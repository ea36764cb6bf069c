package pdfimport

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/mgmeyers/go-fitz"
	"github.com/mgmeyers/unipdf/v3/core"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"

	"github.com/geonsonatt/recall/geom"
	"github.com/geonsonatt/recall/highlight"
	"github.com/geonsonatt/recall/textutil"
)

const (
	dateFormat    = "D:20060102150405+07'00'"
	dateFormatZ   = "D:20060102150405Z07'00'"
	dateFormatNoZ = "D:20060102150405"
)

func isMarkup(annotation *model.PdfAnnotation) bool {
	switch annotation.GetContext().(type) {
	case *model.PdfAnnotationHighlight, *model.PdfAnnotationStrikeOut, *model.PdfAnnotationUnderline:
		return true
	default:
		return false
	}
}

func annotationDate(annot *model.PdfAnnotation) *time.Time {
	dateStr := annot.M

	if dateStr == nil {
		return nil
	}

	date, err := time.Parse(dateFormat, dateStr.String())

	if err != nil {
		date, err = time.Parse(dateFormatZ, dateStr.String())
	}

	if err != nil {
		split := strings.Split(dateStr.String(), "Z")
		date, err = time.Parse(dateFormatNoZ, split[0])
	}

	if err != nil {
		return nil
	}

	return &date
}

func quadPointArray(annotation *model.PdfAnnotation) *core.PdfObjectArray {
	switch ctx := annotation.GetContext().(type) {
	case *model.PdfAnnotationHighlight:
		if qp, ok := ctx.QuadPoints.(*core.PdfObjectArray); ok {
			return qp
		}
	case *model.PdfAnnotationStrikeOut:
		if qp, ok := ctx.QuadPoints.(*core.PdfObjectArray); ok {
			return qp
		}
	case *model.PdfAnnotationUnderline:
		if qp, ok := ctx.QuadPoints.(*core.PdfObjectArray); ok {
			return qp
		}
	}

	return nil
}

// applyPageRotation maps {x1, y1, x2, y2} from default user space into the
// rotated space the page is displayed in. Unrotated pages pass through.
func applyPageRotation(page *model.PdfPage, rect [4]float64) [4]float64 {
	if page.Rotate == nil || *page.Rotate == 0 {
		return rect
	}

	width := page.MediaBox.Width()
	height := page.MediaBox.Height()

	switch *page.Rotate {
	case 90:
		return [4]float64{rect[1], width - rect[2], rect[3], width - rect[0]}
	case 270:
		return [4]float64{height - rect[3], rect[0], height - rect[1], rect[2]}
	default: // 180
		return [4]float64{width - rect[2], height - rect[3], width - rect[0], height - rect[1]}
	}
}

// rotateQuad maps a quad into display space. QuadPoints stay in default user
// space regardless of /Rotate, but normalized rects divide by the display
// dimensions, so the two must agree before conversion.
func rotateQuad(page *model.PdfPage, q geom.Quad) geom.Quad {
	if page.Rotate == nil || *page.Rotate == 0 {
		return q
	}

	b := quadToR2(q)
	r := applyPageRotation(page, [4]float64{b.X.Lo, b.Y.Lo, b.X.Hi, b.Y.Hi})

	return geom.Quad{
		{X: r[0], Y: r[1]},
		{X: r[2], Y: r[1]},
		{X: r[2], Y: r[3]},
		{X: r[0], Y: r[3]},
	}
}

// annotationQuads decodes the QuadPoints array into four-corner quads. PDF
// stores corners as upper-left, upper-right, lower-left, lower-right; they
// come out reordered into the engine's bottom-left, bottom-right, top-right,
// top-left convention.
func annotationQuads(annotation *model.PdfAnnotation) []geom.Quad {
	qp := quadPointArray(annotation)
	if qp == nil {
		return nil
	}

	coords, err := qp.GetAsFloat64Slice()
	if err != nil {
		return nil
	}

	quads := []geom.Quad{}
	pts := []geom.Point{}

	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, geom.Point{X: coords[i], Y: coords[i+1]})

		if len(pts) == 4 {
			// ul, ur, ll, lr -> bl, br, tr, tl
			quads = append(quads, geom.Quad{pts[2], pts[3], pts[1], pts[0]})
			pts = pts[:0]
		}
	}

	return quads
}

func annotationNote(annotation *model.PdfAnnotation) string {
	if annotation.Contents == nil {
		return ""
	}
	return textutil.StripControl(annotation.Contents.String())
}

func annotationColor(annotation *model.PdfAnnotation, overrides map[string]highlight.Color) highlight.Color {
	rgb := annotationRGB(annotation)
	if rgb == nil {
		return highlight.ColorYellow
	}

	if len(overrides) > 0 {
		if c, ok := overrides[rgbToHex(rgb)]; ok {
			return c
		}
	}

	return highlight.ColorFromRGB(rgb[0], rgb[1], rgb[2])
}

func annotationRGB(annotation *model.PdfAnnotation) []float64 {
	var obj core.PdfObject

	switch ctx := annotation.GetContext().(type) {
	case *model.PdfAnnotationHighlight:
		obj = ctx.C
	case *model.PdfAnnotationStrikeOut:
		obj = ctx.C
	case *model.PdfAnnotationUnderline:
		obj = ctx.C
	default:
		return nil
	}

	if obj == nil {
		return nil
	}

	objArr, ok := obj.(*core.PdfObjectArray)
	if !ok {
		return nil
	}

	clr, err := objArr.ToFloat64Array()
	if err != nil || len(clr) < 3 {
		return nil
	}

	return clr
}

func rgbToHex(rgb []float64) string {
	hex := "#"
	for _, c := range rgb[:3] {
		hex += hexByte(int(c * 255))
	}
	return hex
}

func hexByte(i int) string {
	const digits = "0123456789abcdef"
	if i < 0 {
		i = 0
	}
	if i > 255 {
		i = 255
	}
	return string(digits[i>>4]) + string(digits[i&0xf])
}

// markedText collects the page text runs whose boxes sit under the
// annotation's quads, preserving word breaks the way the extractor reports
// them.
func markedText(text string, marks []extractor.TextMark, quads []geom.Quad) string {
	markRects := make([]r2.Rect, len(marks))
	for i, mark := range marks {
		markRects[i] = r2.RectFromPoints(
			r2.Point{X: mark.BBox.Llx, Y: mark.BBox.Lly},
			r2.Point{X: mark.BBox.Urx, Y: mark.BBox.Ury},
		)
	}

	segment := ""

	for _, quad := range quads {
		annotRect := quadToR2(quad)

		if !annotRect.IsValid() || annotRect.IsEmpty() {
			continue
		}

		for i, mark := range markRects {
			if !mark.IsValid() || mark.IsEmpty() {
				continue
			}

			if !annotRect.Intersects(mark) || !isWithinOverlapThresh(annotRect, mark) {
				continue
			}

			if len(marks[i].Text) > 0 && marks[i].Offset > 0 && len(segment) > 0 {
				prevChar := string(text[marks[i].Offset-1])

				if prevChar == " " || prevChar == "\n" {
					segment += " " + marks[i].Text
					continue
				}
			}

			segment += marks[i].Text
		}
	}

	return segment
}

func quadToR2(q geom.Quad) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: q[0].X, Y: q[0].Y},
		r2.Point{X: q[1].X, Y: q[1].Y},
		r2.Point{X: q[2].X, Y: q[2].Y},
		r2.Point{X: q[3].X, Y: q[3].Y},
	)
}

func isWithinOverlapThresh(annot, mark r2.Rect) bool {
	markSize := rectArea(mark)
	if markSize == 0 {
		return false
	}

	return rectArea(annot.Intersection(mark))/markSize >= 0.5
}

func rectArea(r r2.Rect) float64 {
	s := r.Size()
	return s.X * s.Y
}

// shouldUseFallback reports whether extracted text is mangled badly enough
// (broken font encodings) to retry through the rasterizer's text engine.
func shouldUseFallback(str string) bool {
	length := len(str)
	if length == 0 {
		return true
	}

	missingChars := strings.Count(str, "�")
	if missingChars == 0 {
		return false
	}

	return float64(missingChars)/float64(length) > 0.2
}

// textByQuadBounds asks fitz for the text under the quads' bounding box. The
// quads arrive in default user space; the query box is rotated into display
// space and narrowed along the reading direction so adjacent lines do not
// bleed in.
func textByQuadBounds(
	fitzDoc *fitz.Document,
	fitzMu *sync.Mutex,
	pageIndex int,
	page *model.PdfPage,
	quads []geom.Quad,
) (string, error) {
	bounds := quadToR2(quads[0])
	for _, q := range quads[1:] {
		b := quadToR2(q)
		bounds.X.Lo = math.Min(bounds.X.Lo, b.X.Lo)
		bounds.Y.Lo = math.Min(bounds.Y.Lo, b.Y.Lo)
		bounds.X.Hi = math.Max(bounds.X.Hi, b.X.Hi)
		bounds.Y.Hi = math.Max(bounds.Y.Hi, b.Y.Hi)
	}

	height := page.MediaBox.Height()
	if page.Rotate != nil && (*page.Rotate == 90 || *page.Rotate == 270) {
		height = page.MediaBox.Width()
	}

	rotated := applyPageRotation(page, [4]float64{bounds.X.Lo, bounds.Y.Lo, bounds.X.Hi, bounds.Y.Hi})

	x1 := rotated[0]
	y1 := rotated[1]
	x2 := rotated[2]
	y2 := rotated[3]

	if page.Rotate == nil || *page.Rotate == 0 || *page.Rotate == 180 {
		yDiff := ((y2 - y1) * 0.6) / 2
		y1 += yDiff
		y2 -= yDiff
	} else {
		xDiff := ((x2 - x1) * 0.6) / 2
		x1 += xDiff
		x2 -= xDiff
	}

	// fitz's y-axis is oriented at the top
	y1 = height - y1
	y2 = height - y2

	fitzMu.Lock()
	defer fitzMu.Unlock()

	return fitzDoc.TextByBounds(
		pageIndex,
		72.0,
		float32(math.Min(x1, x2)),
		float32(math.Min(y1, y2)),
		float32(math.Max(x1, x2)),
		float32(math.Max(y1, y2)),
	)
}
