// Package docstore persists the lesson document as a single JSON file.
package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/lessondeck/internal/deck"
)

// FileStore reads and rewrites the whole document file. There is no partial
// write: every Write replaces the file atomically via rename.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Read loads the full document.
func (s *FileStore) Read(ctx context.Context) (*deck.Document, error) {
	data, err := s.ReadRaw(ctx)
	if err != nil {
		return nil, err
	}
	return deck.Decode(data)
}

// ReadRaw returns the encoded document bytes.
func (s *FileStore) ReadRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// Write replaces the document file with doc.
func (s *FileStore) Write(ctx context.Context, doc *deck.Document) error {
	data, err := deck.Encode(doc)
	if err != nil {
		return err
	}
	return s.WriteRaw(ctx, data)
}

// WriteRaw replaces the document file with already encoded bytes.
func (s *FileStore) WriteRaw(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		_ = os.Chmod(tmpPath, info.Mode().Perm())
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
