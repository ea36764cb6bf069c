package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/geonsonatt/recall/geom"
	"github.com/geonsonatt/recall/highlight"
)

// selectionTTL bounds how long a cached text selection may be used to
// attribute text to a freshly drawn annotation. Best-effort guess at source
// intent; tune only with product input.
const selectionTTL = 8 * time.Second

type cachedSelection struct {
	pageIndex int
	text      string
	richText  string
	quadSig   string
	at        time.Time
}

// Bridge owns the synchronization protocol for one open document.
type Bridge struct {
	store      highlight.Store
	viewer     Viewer
	documentID string
	log        zerolog.Logger

	// suppress counts active bridge-originated viewer mutations so nested
	// import passes compose; events observed while nonzero are dropped, not
	// deferred. The next full import makes the viewer consistent again.
	suppress int

	lastSel *cachedSelection

	now func() time.Time
}

// New wires a bridge to one document's store and viewer.
func New(store highlight.Store, viewer Viewer, documentID string, log zerolog.Logger) *Bridge {
	return &Bridge{
		store:      store,
		viewer:     viewer,
		documentID: documentID,
		log:        log.With().Str("component", "bridge").Str("document", documentID).Logger(),
		now:        time.Now,
	}
}

func (b *Bridge) acquire() func() {
	b.suppress++
	return func() { b.suppress-- }
}

func (b *Bridge) suppressed() bool {
	return b.suppress > 0
}

// ImportAll rebuilds every bridge-owned native annotation from the store.
// Annotations without a highlightId tag are foreign and never touched.
func (b *Bridge) ImportAll(ctx context.Context) error {
	release := b.acquire()
	defer release()

	tagged := []string{}
	for _, a := range b.viewer.Annotations() {
		if a.Tag(TagHighlightID) != "" {
			tagged = append(tagged, a.NativeID)
		}
	}

	if len(tagged) > 0 {
		if err := b.viewer.RemoveAnnotations(tagged, true); err != nil {
			return fmt.Errorf("bridge: clear imported annotations: %w", err)
		}
	}

	recs, err := b.store.ListByDocument(ctx, b.documentID)
	if err != nil {
		return fmt.Errorf("bridge: list highlights: %w", err)
	}

	for _, rec := range recs {
		page, err := b.viewer.PageInfo(rec.PageIndex)
		if err != nil {
			b.log.Warn().Str("highlight", rec.ID).Int("page", rec.PageIndex).
				Err(err).Msg("highlight points past the open document, skipping")
			continue
		}

		quads := []geom.Quad{}
		for _, r := range geom.MergeNormalizedRects(rec.Rects) {
			quads = append(quads, geom.NormalizedRectToQuad(r, page))
		}

		if len(quads) == 0 {
			continue
		}

		a := &Annotation{
			NativeID:  rec.ID,
			Kind:      KindHighlight,
			PageIndex: rec.PageIndex,
			Quads:     quads,
			Color:     rec.Color.Hex(),
			Custom: map[string]string{
				TagHighlightID:      rec.ID,
				TagSelectedText:     rec.SelectedText,
				TagSelectedRichText: rec.SelectedRichText,
			},
		}

		if err := b.viewer.AddAnnotation(a, true); err != nil {
			return fmt.Errorf("bridge: import highlight %s: %w", rec.ID, err)
		}
	}

	return nil
}

// HandleTextSelection caches the viewer's latest selection so a drawn
// annotation arriving moments later can inherit its text.
func (b *Bridge) HandleTextSelection(sel TextSelection) {
	if strings.TrimSpace(sel.Text) == "" {
		b.lastSel = nil
		return
	}

	b.lastSel = &cachedSelection{
		pageIndex: sel.PageIndex,
		text:      sel.Text,
		richText:  sel.RichText,
		quadSig:   quadSignature(sel.Quads),
		at:        b.now(),
	}
}

// HandleAnnotationEvent reconciles one viewer annotation-changed batch into
// store mutations. A failure aborts the remaining annotations in the batch;
// items already applied stay applied until the next import.
func (b *Bridge) HandleAnnotationEvent(ctx context.Context, ev AnnotationEvent) error {
	if b.suppressed() || ev.Imported {
		return nil
	}

	for _, a := range ev.Annotations {
		if a.Kind != KindHighlight {
			continue
		}

		var err error
		switch ev.Action {
		case ActionAdd:
			err = b.handleAdd(ctx, a)
		case ActionModify:
			err = b.handleModify(ctx, a)
		case ActionDelete:
			err = b.handleDelete(ctx, a)
		}

		if err != nil {
			return fmt.Errorf("bridge: %s %s: %w", ev.Action, a.NativeID, err)
		}
	}

	return nil
}

func (b *Bridge) handleAdd(ctx context.Context, a *Annotation) error {
	if a.Tag(TagHighlightID) != "" {
		// already backed by a record
		return nil
	}

	text, rich := b.resolveText(a)
	if text == "" {
		// a highlight with no attributable text is not persisted
		b.log.Debug().Str("annotation", a.NativeID).Msg("no text resolved for drawn highlight, dropping")
		return nil
	}

	rects := b.rebuildRects(a)
	if len(rects) == 0 {
		return nil
	}

	color := highlight.ColorFromHex(a.Color)

	rec, err := b.store.Create(ctx, highlight.Payload{
		DocumentID:       b.documentID,
		PageIndex:        a.PageIndex,
		Rects:            rects,
		SelectedText:     text,
		SelectedRichText: rich,
		Color:            color,
	})
	if err != nil {
		return err
	}

	release := b.acquire()
	defer release()

	if err := b.tagAnnotation(a, rec.ID, text, rich); err != nil {
		return err
	}
	b.viewer.Redraw(a.PageIndex)

	return nil
}

func (b *Bridge) handleModify(ctx context.Context, a *Annotation) error {
	id := a.Tag(TagHighlightID)
	if id == "" {
		return nil
	}

	rects := b.rebuildRects(a)

	if len(rects) == 0 {
		// geometry collapsed; delete rather than persist empty rects
		if _, err := b.store.Delete(ctx, id); err != nil {
			return err
		}

		release := b.acquire()
		defer release()
		return b.viewer.RemoveAnnotations([]string{a.NativeID}, true)
	}

	patch := highlight.Patch{Rects: &rects}

	if text, rich := b.resolveText(a); text != "" {
		patch.SelectedText = &text
		patch.SelectedRichText = &rich

		release := b.acquire()
		if err := b.tagAnnotation(a, id, text, rich); err != nil {
			release()
			return err
		}
		release()
	}

	_, err := b.store.Update(ctx, id, patch)
	return err
}

func (b *Bridge) handleDelete(ctx context.Context, a *Annotation) error {
	id := a.Tag(TagHighlightID)
	if id == "" {
		return nil
	}

	// viewer-originated: the native annotation is already gone, only the
	// record needs removing
	_, err := b.store.Delete(ctx, id)
	return err
}

// CreateHighlight persists a payload and projects it into the viewer. The
// manual creation path fed by selection capture.
func (b *Bridge) CreateHighlight(ctx context.Context, p highlight.Payload) (*highlight.Record, error) {
	p.DocumentID = b.documentID

	rec, err := b.store.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	page, err := b.viewer.PageInfo(rec.PageIndex)
	if err != nil {
		return rec, nil
	}

	quads := []geom.Quad{}
	for _, r := range geom.MergeNormalizedRects(rec.Rects) {
		quads = append(quads, geom.NormalizedRectToQuad(r, page))
	}

	release := b.acquire()
	defer release()

	a := &Annotation{
		NativeID:  rec.ID,
		Kind:      KindHighlight,
		PageIndex: rec.PageIndex,
		Quads:     quads,
		Color:     rec.Color.Hex(),
		Custom: map[string]string{
			TagHighlightID:      rec.ID,
			TagSelectedText:     rec.SelectedText,
			TagSelectedRichText: rec.SelectedRichText,
		},
	}

	if err := b.viewer.AddAnnotation(a, true); err != nil {
		// viewer state is a disposable cache, the next import repairs it
		b.log.Warn().Str("highlight", rec.ID).Err(err).Msg("projecting new highlight into viewer failed")
	}
	b.viewer.Redraw(rec.PageIndex)

	return rec, nil
}

// DeleteHighlight removes a record and its native annotation, if any.
func (b *Bridge) DeleteHighlight(ctx context.Context, id string) error {
	if _, err := b.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("bridge: delete highlight %s: %w", id, err)
	}

	a := b.findAnnotation(id)
	if a == nil {
		return nil
	}

	release := b.acquire()
	defer release()

	if err := b.viewer.RemoveAnnotations([]string{a.NativeID}, true); err != nil {
		return fmt.Errorf("bridge: remove annotation for %s: %w", id, err)
	}
	b.viewer.Redraw(a.PageIndex)

	return nil
}

// FocusHighlight selects a highlight's native annotation, re-importing once
// when the annotation is missing (common after rapid page or document
// switches).
func (b *Bridge) FocusHighlight(ctx context.Context, id string) error {
	a := b.findAnnotation(id)

	if a == nil {
		if err := b.ImportAll(ctx); err != nil {
			return err
		}
		a = b.findAnnotation(id)
	}

	if a == nil {
		return fmt.Errorf("bridge: focus highlight %s: %w", id, highlight.ErrNotFound)
	}

	return b.viewer.SelectAnnotation(a.NativeID)
}

// findAnnotation tries the viewer's direct id lookup first, then falls back
// to a linear scan over the highlightId tags.
func (b *Bridge) findAnnotation(id string) *Annotation {
	if a, ok := b.viewer.AnnotationByID(id); ok && a.Tag(TagHighlightID) == id {
		return a
	}

	for _, a := range b.viewer.Annotations() {
		if a.Tag(TagHighlightID) == id {
			return a
		}
	}

	return nil
}

func (b *Bridge) tagAnnotation(a *Annotation, id, text, rich string) error {
	tags := []struct{ key, value string }{
		{TagHighlightID, id},
		{TagSelectedText, text},
		{TagSelectedRichText, rich},
	}

	for _, t := range tags {
		if err := b.viewer.SetCustomData(a.NativeID, t.key, t.value); err != nil {
			return err
		}
		a.SetTag(t.key, t.value)
	}
	return nil
}

// rebuildRects derives a record's geometry from an annotation's current
// quads.
func (b *Bridge) rebuildRects(a *Annotation) []geom.NormalizedRect {
	page, err := b.viewer.PageInfo(a.PageIndex)
	if err != nil {
		return nil
	}

	rects := []geom.NormalizedRect{}
	for _, q := range a.Quads {
		if r, ok := geom.QuadToNormalizedRect(q, page); ok {
			rects = append(rects, r)
		}
	}

	return geom.MergeNormalizedRects(rects)
}

// resolveText runs the ordered attribution strategies and returns the first
// non-empty result.
func (b *Bridge) resolveText(a *Annotation) (string, string) {
	strategies := []func(*Annotation) (string, string){
		b.textFromCustomData,
		b.textFromLiveSelection,
		b.textFromSelectionCache,
	}

	for _, strategy := range strategies {
		if text, rich := strategy(a); strings.TrimSpace(text) != "" {
			return text, rich
		}
	}

	return "", ""
}

func (b *Bridge) textFromCustomData(a *Annotation) (string, string) {
	return a.Tag(TagSelectedText), a.Tag(TagSelectedRichText)
}

func (b *Bridge) textFromLiveSelection(a *Annotation) (string, string) {
	return b.viewer.SelectedText(a.PageIndex), ""
}

func (b *Bridge) textFromSelectionCache(a *Annotation) (string, string) {
	sel := b.lastSel

	if sel == nil ||
		sel.pageIndex != a.PageIndex ||
		sel.quadSig != quadSignature(a.Quads) ||
		b.now().Sub(sel.at) > selectionTTL {
		return "", ""
	}

	return sel.text, sel.richText
}

// quadSignature fingerprints a quad list so a cached selection can be matched
// against a drawn annotation's exact geometry.
func quadSignature(quads []geom.Quad) string {
	var sb strings.Builder

	for _, q := range quads {
		for _, p := range q {
			fmt.Fprintf(&sb, "%.2f,%.2f;", p.X, p.Y)
		}
	}

	return sb.String()
}
