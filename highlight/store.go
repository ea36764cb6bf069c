package highlight

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store operations addressing an id that does not
// exist.
var ErrNotFound = errors.New("highlight: record not found")

// Store is the persistence contract the sync engine writes through. Every
// call may fail; callers roll back any optimistic viewer-side state they
// applied before the failure. Retry and backoff are the implementation's
// concern, not the caller's.
type Store interface {
	Create(ctx context.Context, p Payload) (*Record, error)
	Update(ctx context.Context, id string, patch Patch) (*Record, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByDocument(ctx context.Context, documentID string) ([]*Record, error)
}
