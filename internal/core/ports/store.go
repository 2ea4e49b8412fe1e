package ports

import (
	"context"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

// DocumentStore persists the single users/sessions document.
type DocumentStore interface {
	// Read returns a private copy of the current document. Failures wrap
	// domain.ErrStorageUnavailable.
	Read(ctx context.Context) (*domain.Document, error)

	// Write replaces the stored document wholesale. Two callers doing their
	// own Read then Write can still interleave; use Update for mutations.
	Write(ctx context.Context, doc *domain.Document) error

	// Update reads the document, applies fn and writes the result as one
	// serialized step. If fn returns an error nothing is written and that
	// error is returned unchanged.
	Update(ctx context.Context, fn func(doc *domain.Document) error) error
}
