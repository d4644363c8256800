package store

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and the CLI's dry runs.
type InMemoryRepository struct {
	mu  sync.Mutex
	doc *Document
}

// NewInMemoryRepository creates a repository holding a copy of seed.
// A nil seed starts from the empty document.
func NewInMemoryRepository(seed *Document) *InMemoryRepository {
	if seed == nil {
		seed = Empty()
	}
	return &InMemoryRepository{doc: seed.Clone().Sanitize()}
}

// Get returns a copy of the stored document.
func (r *InMemoryRepository) Get(_ context.Context) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Clone(), nil
}

// Set replaces the stored document with a copy of doc.
func (r *InMemoryRepository) Set(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = doc.Clone().Sanitize()
	return nil
}

// Update applies fn while holding the repository lock.
func (r *InMemoryRepository) Update(_ context.Context, fn MutateFunc) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.doc.Clone()
	if err := fn(doc); err != nil {
		return nil, err
	}
	r.doc = doc.Sanitize().Clone()
	return doc, nil
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Updater    = (*InMemoryRepository)(nil)
)
