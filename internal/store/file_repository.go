package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFilePath is where the file backend keeps the document.
const DefaultFilePath = ".data/familie-app-data.json"

// FileRepository stores the document as pretty-printed JSON on local disk.
// Updates are serialized within the process only.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository creates a file-backed repository.
func NewFileRepository(path string) *FileRepository {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileRepository{path: path}
}

// Path returns the backing file path.
func (r *FileRepository) Path() string {
	return r.path
}

// Get reads the document. A missing or unparseable file yields the empty
// document.
func (r *FileRepository) Get(_ context.Context) (*Document, error) {
	return r.read()
}

// Set writes the document, creating the parent directory if needed.
func (r *FileRepository) Set(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(doc)
}

// Update applies fn while holding the process-wide file lock.
func (r *FileRepository) Update(_ context.Context, fn MutateFunc) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := r.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *FileRepository) read() (*Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	doc, err := decode(data)
	if err != nil {
		return Empty(), nil
	}
	return doc, nil
}

func (r *FileRepository) write(doc *Document) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(doc.Sanitize(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

var (
	_ Repository = (*FileRepository)(nil)
	_ Updater    = (*FileRepository)(nil)
)
