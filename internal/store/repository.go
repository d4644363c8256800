package store

import (
	"context"
	"fmt"
)

// maxUpdateAttempts bounds retries of optimistic updates.
const maxUpdateAttempts = 5

// Repository defines the persistence contract for the shared document.
type Repository interface {
	// Get returns the current document. A missing document is returned as
	// an empty one, never as an error.
	Get(ctx context.Context) (*Document, error)

	// Set replaces the stored document.
	Set(ctx context.Context, doc *Document) error
}

// Updater is implemented by repositories that can apply a read-modify-write
// atomically with respect to other writers of the same backend.
type Updater interface {
	Update(ctx context.Context, fn MutateFunc) (*Document, error)
}

// MutateFunc transforms a freshly read document in place.
// Returning an error aborts the update without writing.
type MutateFunc func(doc *Document) error

// Update reads the document, applies fn and writes the result back.
//
// Repositories implementing Updater perform the cycle atomically. For the
// rest, concurrent updates are last-writer-wins: a writer that started from
// an older snapshot overwrites changes made in between.
func Update(ctx context.Context, repo Repository, fn MutateFunc) (*Document, error) {
	if u, ok := repo.(Updater); ok {
		return u.Update(ctx, fn)
	}

	doc, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := repo.Set(ctx, doc.Sanitize()); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return doc, nil
}
