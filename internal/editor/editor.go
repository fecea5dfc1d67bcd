// Package editor applies single-field slide edits against the document store.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/metrics"
)

// Store is the whole-document blob store the editor reads and rewrites.
// Patches go through the raw bytes so members outside the slide model survive.
type Store interface {
	Read(ctx context.Context) (*deck.Document, error)
	ReadRaw(ctx context.Context) ([]byte, error)
	WriteRaw(ctx context.Context, data []byte) error
}

// Service performs read, patch and whole-document write. Writers inside this
// process are serialized; writers in other processes are last-write-wins.
type Service struct {
	mu      sync.Mutex
	store   Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, log *slog.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log.With("component", "editor"), metrics: m}
}

// UpdateSlide parses a dotted field path and applies it.
func (s *Service) UpdateSlide(ctx context.Context, lessonID, slideID, path, value string) (*deck.Slide, error) {
	edit, err := deck.ParseEdit(path, value)
	if err != nil {
		s.record("invalid_path")
		return nil, err
	}
	return s.Apply(ctx, lessonID, slideID, edit)
}

// Apply patches one slide and persists the full document. Nothing is written
// when the lookup or the edit fails.
func (s *Service) Apply(ctx context.Context, lessonID, slideID string, edit deck.Edit) (*deck.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.ReadRaw(ctx)
	if err != nil {
		s.record("read_error")
		return nil, err
	}

	out, slide, err := deck.PatchJSON(data, lessonID, slideID, edit)
	if err != nil {
		switch {
		case errors.Is(err, deck.ErrNotFound):
			s.record("not_found")
		case errors.Is(err, deck.ErrInvalidPath):
			s.record("invalid_path")
		default:
			s.record("read_error")
		}
		return nil, err
	}

	if err := s.store.WriteRaw(ctx, out); err != nil {
		s.record("write_error")
		s.log.Error("document write failed", "lesson_id", lessonID, "slide_id", slideID, "error", err)
		return nil, err
	}

	s.record("ok")
	s.log.Info("slide updated", "lesson_id", lessonID, "slide_id", slideID, "field", edit.Path())
	updated := *slide
	return &updated, nil
}

// Document returns a fresh copy of the stored document.
func (s *Service) Document(ctx context.Context) (*deck.Document, error) {
	return s.store.Read(ctx)
}

// DeckFor reads the document and resolves a lesson id, or the unified id, to
// a deck.
func (s *Service) DeckFor(ctx context.Context, id string) (deck.Deck, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return deck.Deck{}, err
	}
	return doc.DeckFor(id)
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.SlidePatches.WithLabelValues(outcome).Inc()
	}
}
