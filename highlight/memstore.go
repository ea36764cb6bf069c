package highlight

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geonsonatt/recall/geom"
)

// MemStore is an in-memory Store. It backs the CLI and tests and serves as
// the reference behavior for external store implementations.
type MemStore struct {
	mu      sync.Mutex
	records map[string]*Record

	// Now is swappable for deterministic timestamps in tests.
	Now func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: map[string]*Record{},
		Now:     time.Now,
	}
}

func (s *MemStore) Create(ctx context.Context, p Payload) (*Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rects := append([]geom.NormalizedRect{}, p.Rects...)
	SortRects(rects)

	color := p.Color
	if color == "" {
		color = ColorYellow
	}

	rec := &Record{
		ID:               uuid.NewString(),
		DocumentID:       p.DocumentID,
		PageIndex:        p.PageIndex,
		Rects:            rects,
		SelectedText:     p.SelectedText,
		SelectedRichText: p.SelectedRichText,
		Color:            color,
		Note:             p.Note,
		Tags:             NormalizeTags(p.Tags),
		CreatedAt:        s.Now().UTC(),
	}

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()

	return rec.Clone(), nil
}

func (s *MemStore) Update(ctx context.Context, id string, patch Patch) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("highlight: update %q: %w", id, ErrNotFound)
	}

	if patch.Rects != nil {
		if len(*patch.Rects) == 0 {
			return nil, fmt.Errorf("highlight: update %q: empty rects", id)
		}
		rects := append([]geom.NormalizedRect{}, *patch.Rects...)
		SortRects(rects)
		rec.Rects = rects
	}
	if patch.SelectedText != nil {
		rec.SelectedText = *patch.SelectedText
	}
	if patch.SelectedRichText != nil {
		rec.SelectedRichText = *patch.SelectedRichText
	}
	if patch.Color != nil {
		rec.Color = *patch.Color
	}
	if patch.Note != nil {
		rec.Note = *patch.Note
	}
	if patch.Tags != nil {
		rec.Tags = NormalizeTags(*patch.Tags)
	}

	return rec.Clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}

	delete(s.records, id)
	return true, nil
}

func (s *MemStore) ListByDocument(ctx context.Context, documentID string) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*Record{}
	for _, rec := range s.records {
		if rec.DocumentID == documentID {
			out = append(out, rec.Clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PageIndex != out[j].PageIndex {
			return out[i].PageIndex < out[j].PageIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
