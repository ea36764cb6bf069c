// Package pdfimport lifts native PDF markup annotations (highlight, strike,
// underline) out of a document and persists them as highlight records. It is
// the migration and recovery path for documents annotated outside the
// application.
package pdfimport

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mgmeyers/go-fitz"
	"github.com/mgmeyers/unipdf/v3/extractor"
	"github.com/mgmeyers/unipdf/v3/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/geonsonatt/recall/geom"
	"github.com/geonsonatt/recall/highlight"
	"github.com/geonsonatt/recall/textutil"
)

// Options tunes an import run.
type Options struct {
	DocumentID string

	// IgnoreBefore drops annotations modified before this instant.
	IgnoreBefore time.Time

	// Colors overrides the HSL-derived color for exact annotation hex
	// values, e.g. a reader app whose "important" color should map to red.
	Colors map[string]highlight.Color

	Log zerolog.Logger
}

// candidate is a parsed annotation awaiting persistence.
type candidate struct {
	payload highlight.Payload
}

// ImportFile reads every markup annotation in the PDF at path and creates a
// highlight record for each one that carries usable geometry and text.
// Records are created in page order.
func ImportFile(ctx context.Context, store highlight.Store, path string, opts Options) ([]*highlight.Record, error) {
	log := opts.Log.With().Str("component", "pdfimport").Str("path", path).Logger()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(io.ReadSeeker(f))
	if err != nil {
		return nil, err
	}

	fitzDoc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer fitzDoc.Close()

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	// fitz is not safe for concurrent use
	var fitzMu sync.Mutex

	perPage := make([][]candidate, numPages)

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < numPages; i++ {
		i := i

		page, err := pdfReader.GetPage(i + 1)
		if err != nil {
			return nil, err
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			cands, err := extractPage(i, page, fitzDoc, &fitzMu, opts, log)
			if err != nil {
				return err
			}

			perPage[i] = cands
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := []*highlight.Record{}

	for _, cands := range perPage {
		for _, c := range cands {
			rec, err := store.Create(ctx, c.payload)
			if err != nil {
				return records, err
			}
			records = append(records, rec)
		}
	}

	log.Info().Int("pages", numPages).Int("highlights", len(records)).Msg("import finished")

	return records, nil
}

func extractPage(
	pageIndex int,
	page *model.PdfPage,
	fitzDoc *fitz.Document,
	fitzMu *sync.Mutex,
	opts Options,
	log zerolog.Logger,
) ([]candidate, error) {
	annotations, err := page.GetAnnotations()
	if err != nil {
		return nil, err
	}

	if len(annotations) == 0 {
		return nil, nil
	}

	ext, err := extractor.New(page)
	if err != nil {
		return nil, err
	}

	txt, _, _, err := ext.ExtractPageText()
	if err != nil {
		return nil, err
	}

	text := txt.Text()
	marks := txt.Marks().Elements()
	pageInfo := pageBox(page)

	cands := []candidate{}

	for _, annotation := range annotations {
		if annotation == nil {
			continue
		}

		if !isMarkup(annotation) {
			continue
		}

		if date := annotationDate(annotation); date != nil && date.Before(opts.IgnoreBefore) {
			continue
		}

		quads := annotationQuads(annotation)
		if len(quads) == 0 {
			continue
		}

		rects := []geom.NormalizedRect{}
		for _, q := range quads {
			if r, ok := geom.QuadToNormalizedRect(rotateQuad(page, q), pageInfo); ok {
				rects = append(rects, r)
			}
		}

		rects = geom.MergeNormalizedRects(rects)
		if len(rects) == 0 {
			continue
		}

		selected := markedText(text, marks, quads)

		if shouldUseFallback(selected) {
			if fb, err := textByQuadBounds(fitzDoc, fitzMu, pageIndex, page, quads); err == nil && fb != "" {
				selected = fb
			}
		}

		selected = textutil.CondenseSpaces(textutil.StripControl(selected))
		if selected == "" {
			log.Debug().Int("page", pageIndex).Msg("markup annotation with no extractable text, skipping")
			continue
		}

		cands = append(cands, candidate{
			payload: highlight.Payload{
				DocumentID:   opts.DocumentID,
				PageIndex:    pageIndex,
				Rects:        rects,
				SelectedText: selected,
				Color:        annotationColor(annotation, opts.Colors),
				Note:         annotationNote(annotation),
			},
		})
	}

	return cands, nil
}

// pageBox reports the page dimensions in display space, swapping axes for
// 90/270 rotation. Quads are rotated into the same space before
// normalization.
func pageBox(page *model.PdfPage) geom.PageInfo {
	w := page.MediaBox.Width()
	h := page.MediaBox.Height()

	if page.Rotate != nil && (*page.Rotate == 90 || *page.Rotate == 270) {
		w, h = h, w
	}

	return geom.PageInfo{Width: w, Height: h}
}
