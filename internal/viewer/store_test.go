package viewer

import (
	"errors"
	"testing"

	"github.com/dgallion1/lessondeck/internal/deck"
)

func threeSlides() deck.Deck {
	l := deck.Lesson{ID: "l1", Title: "L", Slides: []deck.Slide{
		{ID: deck.StringID("a"), Type: deck.KindTitle, Title: "A"},
		{ID: deck.StringID("b"), Type: deck.KindFeature, Title: "B"},
		{ID: deck.StringID("c"), Type: deck.KindClosing, Title: "C"},
	}}
	return l.Deck()
}

func TestSlideStore_Navigation(t *testing.T) {
	s := NewSlideStore(threeSlides())
	if s.Active() != 0 {
		t.Fatalf("expected initial index 0, got %d", s.Active())
	}
	if got := s.Prev(); got != 2 {
		t.Errorf("expected Prev to wrap to 2, got %d", got)
	}
	if got := s.Next(); got != 0 {
		t.Errorf("expected Next to wrap to 0, got %d", got)
	}
	if err := s.Activate(1); err != nil {
		t.Fatalf("activate: %v", err)
	}
	cur, ok := s.Current()
	if !ok || cur.Slide.Title != "B" {
		t.Errorf("expected slide B mounted, got %+v", cur)
	}
	if err := s.Activate(3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if s.Active() != 1 {
		t.Errorf("expected failed Activate to keep index 1, got %d", s.Active())
	}
}

func TestSlideStore_EmptyDeck(t *testing.T) {
	s := NewSlideStore(deck.Deck{})
	if _, ok := s.Current(); ok {
		t.Error("expected nothing mounted for empty deck")
	}
	if s.Next() != 0 || s.Prev() != 0 {
		t.Error("expected navigation on empty deck to stay at 0")
	}
}

func TestSlideStore_FindAndReplace(t *testing.T) {
	s := NewSlideStore(threeSlides())
	i, ok := s.Find("l1", "c")
	if !ok || i != 2 {
		t.Fatalf("expected c at 2, got %d %v", i, ok)
	}
	if !s.Replace("l1", deck.Slide{ID: deck.StringID("c"), Type: deck.KindClosing, Title: "Changed"}) {
		t.Fatal("expected replace to match")
	}
	got, _ := s.At(2)
	if got.Slide.Title != "Changed" {
		t.Errorf("expected replaced title, got %q", got.Slide.Title)
	}
	if s.Replace("other", deck.Slide{ID: deck.StringID("c")}) {
		t.Error("expected replace with wrong lesson to miss")
	}
}
