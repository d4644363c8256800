package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

var badgerKey = []byte("familieapp/document")

// BadgerRepository stores the document in an embedded Badger database.
type BadgerRepository struct {
	mu sync.Mutex
	db *badger.DB
}

// OpenBadger opens a Badger database at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}

	db, err := badger.Open(opts.WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// NewBadgerRepository creates a Badger-backed repository.
func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

// Get reads the document. A missing key yields the empty document.
func (r *BadgerRepository) Get(_ context.Context) (*Document, error) {
	var doc *Document
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readBadger(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Set writes the document.
func (r *BadgerRepository) Set(_ context.Context, doc *Document) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey, data)
	})
}

// Update applies fn inside a read-write transaction. Updates from this
// process are serialized; commits that still conflict are retried.
func (r *BadgerRepository) Update(ctx context.Context, fn MutateFunc) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var result *Document
		err := r.db.Update(func(txn *badger.Txn) error {
			doc, err := readBadger(txn)
			if err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
			data, err := encode(doc)
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			if err := txn.Set(badgerKey, data); err != nil {
				return err
			}
			result = doc
			return nil
		})
		if err == nil {
			return result, nil
		}
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

// Close closes the underlying database.
func (r *BadgerRepository) Close() error {
	return r.db.Close()
}

func readBadger(txn *badger.Txn) (*Document, error) {
	item, err := txn.Get(badgerKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("badger get: %w", err)
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("badger read value: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

var (
	_ Repository = (*BadgerRepository)(nil)
	_ Updater    = (*BadgerRepository)(nil)
)
