// Package bridge keeps the authoritative highlight store and the rendering
// engine's live annotation objects consistent. The store is canonical; the
// viewer's annotations are a disposable projection rebuilt by ImportAll.
package bridge

import (
	"github.com/geonsonatt/recall/geom"
)

// Custom-data keys correlating a native annotation with its owning highlight
// record. An annotation without a highlightId tag is "new": not yet backed by
// a record.
const (
	TagHighlightID      = "highlightId"
	TagSelectedText     = "selectedText"
	TagSelectedRichText = "selectedRichText"
)

// KindHighlight is the only annotation kind the bridge reconciles; other
// kinds the viewer supports pass through untouched.
const KindHighlight = "highlight"

// Annotation is the bridge's view of a viewer-native annotation object.
type Annotation struct {
	NativeID  string
	Kind      string
	PageIndex int
	Quads     []geom.Quad
	Color     string // hex, optional
	Custom    map[string]string
}

// Tag reads a custom-data field, tolerating a nil map.
func (a *Annotation) Tag(key string) string {
	if a.Custom == nil {
		return ""
	}
	return a.Custom[key]
}

// SetTag writes a custom-data field, allocating the map on first use.
func (a *Annotation) SetTag(key, value string) {
	if a.Custom == nil {
		a.Custom = map[string]string{}
	}
	a.Custom[key] = value
}

// Action is the kind of change an annotation event reports.
type Action string

const (
	ActionAdd    Action = "add"
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// AnnotationEvent is the viewer's annotation-changed notification. Imported
// marks events the viewer raises for bulk-imported annotations; the bridge
// never reacts to those.
type AnnotationEvent struct {
	Action      Action
	Annotations []*Annotation
	Imported    bool
}

// TextSelection is the viewer's native selection-changed payload.
type TextSelection struct {
	PageIndex int
	Text      string
	RichText  string
	Quads     []geom.Quad
}

// Viewer is the rendering-engine contract the bridge drives. Implementations
// wrap whatever paginated rendering surface hosts the document.
type Viewer interface {
	PageCount() int
	PageInfo(pageIndex int) (geom.PageInfo, error)
	CurrentPage() int
	Zoom() float64

	Annotations() []*Annotation
	AnnotationByID(nativeID string) (*Annotation, bool)
	AddAnnotation(a *Annotation, imported bool) error
	UpdateQuads(nativeID string, quads []geom.Quad) error
	RemoveAnnotations(nativeIDs []string, imported bool) error
	SetCustomData(nativeID, key, value string) error
	SelectAnnotation(nativeID string) error
	Redraw(pageIndex int)

	// SelectedText reports the viewer's current text selection on a page,
	// or "" when nothing is selected there.
	SelectedText(pageIndex int) string
}
