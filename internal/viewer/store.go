// Package viewer holds the per-session slide store: the loaded deck plus the
// active slide index that navigation and export move around.
package viewer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgallion1/lessondeck/internal/deck"
)

var ErrOutOfRange = errors.New("slide index out of range")

// SlideStore is the ordered slide sequence loaded once per session.
type SlideStore struct {
	mu     sync.RWMutex
	deck   deck.Deck
	active int
}

func NewSlideStore(d deck.Deck) *SlideStore {
	return &SlideStore{deck: d}
}

// Deck returns the deck metadata and slides.
func (s *SlideStore) Deck() deck.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deck
}

func (s *SlideStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deck.Slides)
}

// At returns the slide at index i.
func (s *SlideStore) At(i int) (deck.DeckSlide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.deck.Slides) {
		return deck.DeckSlide{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(s.deck.Slides))
	}
	return s.deck.Slides[i], nil
}

// Find returns the index of the slide with the given lesson and slide id.
func (s *SlideStore) Find(lessonID, slideID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, ds := range s.deck.Slides {
		if ds.LessonID == lessonID && ds.Slide.ID.Text == slideID {
			return i, true
		}
	}
	return -1, false
}

// Active returns the active slide index.
func (s *SlideStore) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Activate mounts slide i as the active slide.
func (s *SlideStore) Activate(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.deck.Slides) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(s.deck.Slides))
	}
	s.active = i
	return nil
}

// Current returns the mounted slide. ok is false for an empty deck.
func (s *SlideStore) Current() (deck.DeckSlide, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active < 0 || s.active >= len(s.deck.Slides) {
		return deck.DeckSlide{}, false
	}
	return s.deck.Slides[s.active], true
}

// Next advances the active index, wrapping at the end.
func (s *SlideStore) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.deck.Slides); n > 0 {
		s.active = (s.active + 1) % n
	}
	return s.active
}

// Prev moves the active index back, wrapping at the start.
func (s *SlideStore) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.deck.Slides); n > 0 {
		s.active = (s.active - 1 + n) % n
	}
	return s.active
}

// Replace swaps in an edited slide, matching by lesson and slide id, so the
// session reflects a saved edit without reloading the document.
func (s *SlideStore) Replace(lessonID string, slide deck.Slide) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.deck.Slides {
		ds := &s.deck.Slides[i]
		if ds.LessonID == lessonID && ds.Slide.ID.Text == slide.ID.Text {
			ds.Slide = slide
			return true
		}
	}
	return false
}
